package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/daterange"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("bookings")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"user_id": userID})
}

func (r *BookingRepository) ListByListing(ctx context.Context, id domainlisting.ListingID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"listing_id": string(id)})
}

// ActiveOverlapping matches pending/confirmed bookings whose occupied range
// intersects [start, end). The query runs on the persisted occupied_start /
// occupied_end pair, which already carries the whole-day window of
// single-date bookings, so interval overlap covers both booking shapes.
func (r *BookingRepository) ActiveOverlapping(ctx context.Context, id domainlisting.ListingID, start, end time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"listing_id":     string(id),
		"status":         bson.M{"$in": bson.A{string(domainbooking.StatusPending), string(domainbooking.StatusConfirmed)}},
		"occupied_start": bson.M{"$lt": end.UTC().UnixMilli()},
		"occupied_end":   bson.M{"$gt": start.UTC().UnixMilli()},
	}
	return r.list(ctx, filter)
}

func (r *BookingRepository) CountUserOnDay(ctx context.Context, userID string, id domainlisting.ListingID, day time.Time) (int, error) {
	dayStart := daterange.Truncate(day)
	dayEnd := dayStart.AddDate(0, 0, 1)
	filter := bson.M{
		"user_id":    userID,
		"listing_id": string(id),
		"status":     bson.M{"$ne": string(domainbooking.StatusCancelled)},
		"date":       bson.M{"$gte": dayStart.UnixMilli(), "$lt": dayEnd.UnixMilli()},
	}
	count, err := r.col.CountDocuments(ctx, filter)
	return int(count), err
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type bookingDocument struct {
	ID        string `bson:"_id"`
	UserID    string `bson:"user_id"`
	ListingID string `bson:"listing_id"`
	Date      int64  `bson:"date"`
	EndDate   int64  `bson:"end_date,omitempty"`
	// occupied_start/occupied_end carry the half-open occupied range so
	// overlap queries work for single-date bookings too: a legacy row at
	// 14:30 occupies its whole truncated day, not a point in time.
	OccupiedStart int64  `bson:"occupied_start"`
	OccupiedEnd   int64  `bson:"occupied_end"`
	Units         int    `bson:"units"`
	Status        string `bson:"status"`
	Notes         string `bson:"notes,omitempty"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
	Version       int64  `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	occupied := b.OccupiedRange()
	doc := bookingDocument{
		ID:            string(b.ID),
		UserID:        b.UserID,
		ListingID:     string(b.ListingID),
		Date:          b.Date.UnixMilli(),
		OccupiedStart: occupied.Start.UnixMilli(),
		OccupiedEnd:   occupied.End.UnixMilli(),
		Units:         b.Units,
		Status:        string(b.Status),
		Notes:         b.Notes,
		CreatedAt:     b.CreatedAt.UnixMilli(),
		UpdatedAt:     b.UpdatedAt.UnixMilli(),
		Version:       b.Version,
	}
	if !b.EndDate.IsZero() {
		doc.EndDate = b.EndDate.UnixMilli()
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		UserID:    d.UserID,
		ListingID: domainlisting.ListingID(d.ListingID),
		Date:      timestampToTime(d.Date),
		EndDate:   timestampToTime(d.EndDate),
		Units:     d.Units,
		Status:    domainbooking.Status(d.Status),
		Notes:     d.Notes,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}
