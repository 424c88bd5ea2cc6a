package booking

import (
	"time"

	"stayhub/internal/domain/listing"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingCancelled     = "booking.cancelled"
	EventBookingStatusChanged = "booking.status_changed"
)

type BookingCreated struct {
	BookingID BookingID         `json:"booking_id"`
	ListingID listing.ListingID `json:"listing_id"`
	UserID    string            `json:"user_id"`
	Units     int               `json:"units"`
	At        time.Time         `json:"at"`
}

func (e BookingCreated) EventName() string     { return EventBookingCreated }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID         `json:"booking_id"`
	ListingID listing.ListingID `json:"listing_id"`
	Units     int               `json:"units"`
	At        time.Time         `json:"at"`
}

func (e BookingCancelled) EventName() string     { return EventBookingCancelled }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingStatusChanged struct {
	BookingID BookingID         `json:"booking_id"`
	ListingID listing.ListingID `json:"listing_id"`
	Status    Status            `json:"status"`
	At        time.Time         `json:"at"`
}

func (e BookingStatusChanged) EventName() string     { return EventBookingStatusChanged }
func (e BookingStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e BookingStatusChanged) OccurredAt() time.Time { return e.At }
