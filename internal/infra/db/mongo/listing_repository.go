package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayhub/internal/domain/calendar"
	domainlisting "stayhub/internal/domain/listing"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("listings")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ListingID) (*domainlisting.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlisting.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlisting.Listing) error {
	doc := newListingDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
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
	l.Version = doc.Version
	return nil
}

// ReserveUnits is the single atomic conditional decrement of the available
// counter: the filter only matches while enough units remain, so a
// concurrent reserve of the last unit can never drive the counter negative.
func (r *ListingRepository) ReserveUnits(ctx context.Context, id domainlisting.ListingID, units int) error {
	filter := bson.M{
		"_id":                       string(id),
		"inventory.available_units": bson.M{"$gte": units},
	}
	update := bson.M{
		"$inc": bson.M{"inventory.available_units": -units},
		"$set": bson.M{"updated_at": time.Now().UTC().UnixMilli()},
	}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		exists, err := r.exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return domainlisting.ErrNotFound
		}
		return domainlisting.ErrInsufficientInventory
	}
	return nil
}

// ReleaseUnits returns units to the counter, clamped at total_units via a
// pipeline update.
func (r *ListingRepository) ReleaseUnits(ctx context.Context, id domainlisting.ListingID, units int) error {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"inventory.available_units": bson.M{"$min": bson.A{
				"$inventory.total_units",
				bson.M{"$add": bson.A{"$inventory.available_units", units}},
			}},
			"updated_at": time.Now().UTC().UnixMilli(),
		}}},
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": string(id)}, pipeline)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainlisting.ErrNotFound
	}
	return nil
}

// UpdateInventory merges the patch over the current record and validates the
// result before writing. The write is conditioned on the inventory values
// that were read, so a concurrent ReserveUnits/ReleaseUnits between read and
// write invalidates the attempt instead of landing a state that breaks the
// available <= total invariant.
func (r *ListingRepository) UpdateInventory(ctx context.Context, id domainlisting.ListingID, patch domainlisting.InventoryPatch) (*domainlisting.Listing, error) {
	for attempt := 0; attempt < 3; attempt++ {
		current, err := r.ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		next, err := patch.Apply(current.Inventory)
		if err != nil {
			return nil, err
		}
		filter := bson.M{
			"_id":                        string(id),
			"inventory.total_units":      current.Inventory.TotalUnits,
			"inventory.available_units":  current.Inventory.AvailableUnits,
			"inventory.min_booking_days": current.Inventory.MinBookingDays,
			"inventory.max_booking_days": current.Inventory.MaxBookingDays,
		}
		now := time.Now().UTC()
		update := bson.M{"$set": bson.M{
			"inventory": inventoryDocument{
				TotalUnits:     next.TotalUnits,
				AvailableUnits: next.AvailableUnits,
				MinBookingDays: next.MinBookingDays,
				MaxBookingDays: next.MaxBookingDays,
			},
			"updated_at": now.UnixMilli(),
		}}
		res, err := r.col.UpdateOne(ctx, filter, update)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			current.Inventory = next
			current.UpdatedAt = now
			return current, nil
		}
	}
	return nil, ErrConcurrentUpdate
}

func (r *ListingRepository) exists(ctx context.Context, id domainlisting.ListingID) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type listingDocument struct {
	ID           string            `bson:"_id"`
	Owner        string            `bson:"owner"`
	Title        string            `bson:"title"`
	Description  string            `bson:"description"`
	PropertyType string            `bson:"property_type"`
	Inventory    inventoryDocument `bson:"inventory"`
	BlockedDates []int64           `bson:"blocked_dates"`
	Version      int64             `bson:"version"`
	CreatedAt    int64             `bson:"created_at"`
	UpdatedAt    int64             `bson:"updated_at"`
}

type inventoryDocument struct {
	TotalUnits     int `bson:"total_units"`
	AvailableUnits int `bson:"available_units"`
	MinBookingDays int `bson:"min_booking_days"`
	MaxBookingDays int `bson:"max_booking_days"`
}

func newListingDocument(l *domainlisting.Listing) listingDocument {
	blocked := make([]int64, 0, len(l.BlockedDates))
	for _, d := range l.BlockedDates {
		blocked = append(blocked, d.UnixMilli())
	}
	return listingDocument{
		ID:           string(l.ID),
		Owner:        string(l.Owner),
		Title:        l.Title,
		Description:  l.Description,
		PropertyType: l.PropertyType,
		Inventory: inventoryDocument{
			TotalUnits:     l.Inventory.TotalUnits,
			AvailableUnits: l.Inventory.AvailableUnits,
			MinBookingDays: l.Inventory.MinBookingDays,
			MaxBookingDays: l.Inventory.MaxBookingDays,
		},
		BlockedDates: blocked,
		Version:      l.Version,
		CreatedAt:    l.CreatedAt.UnixMilli(),
		UpdatedAt:    l.UpdatedAt.UnixMilli(),
	}
}

func (d listingDocument) toAggregate() *domainlisting.Listing {
	blocked := make(calendar.DateSet, 0, len(d.BlockedDates))
	for _, ms := range d.BlockedDates {
		blocked = append(blocked, timestampToTime(ms))
	}
	return &domainlisting.Listing{
		ID:           domainlisting.ListingID(d.ID),
		Owner:        domainlisting.OwnerID(d.Owner),
		Title:        d.Title,
		Description:  d.Description,
		PropertyType: d.PropertyType,
		Inventory: domainlisting.Inventory{
			TotalUnits:     d.Inventory.TotalUnits,
			AvailableUnits: d.Inventory.AvailableUnits,
			MinBookingDays: d.Inventory.MinBookingDays,
			MaxBookingDays: d.Inventory.MaxBookingDays,
		},
		BlockedDates: blocked,
		Version:      d.Version,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
	}
}
