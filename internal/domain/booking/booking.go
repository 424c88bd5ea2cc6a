package booking

import (
	"context"
	"errors"
	"time"

	"stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/events"
)

var (
	ErrNotFound                = errors.New("booking: not found")
	ErrInvalidUnits            = errors.New("booking: units must be between 1 and 100")
	ErrNotesTooLong            = errors.New("booking: notes exceed 1000 characters")
	ErrUserRequired            = errors.New("booking: user id required")
	ErrInvalidStatusTransition = errors.New("booking: invalid status transition")
	ErrBookingNotYetOccurred   = errors.New("booking: cannot complete before the booking date")
	ErrCannotCancelCompleted   = errors.New("booking: completed bookings cannot be cancelled")
	ErrAlreadyCancelled        = errors.New("booking: already cancelled")
)

const (
	MaxUnits    = 100
	MaxNotesLen = 1000
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return Status(raw), true
	}
	return "", false
}

// transitions is the closed legal-transition table. Completed and cancelled
// are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID        BookingID
	UserID    string
	ListingID listing.ListingID
	Date      time.Time
	EndDate   time.Time // zero for legacy single-date bookings
	Units     int
	Status    Status
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByUser(ctx context.Context, userID string) ([]*Booking, error)
	ListByListing(ctx context.Context, id listing.ListingID) ([]*Booking, error)
	// ActiveOverlapping returns pending/confirmed bookings on the listing
	// whose occupied range overlaps [start, end). Single-date bookings
	// occupy one day.
	ActiveOverlapping(ctx context.Context, id listing.ListingID, start, end time.Time) ([]*Booking, error)
	// CountUserOnDay counts the user's non-cancelled bookings for the
	// listing on the given calendar day.
	CountUserOnDay(ctx context.Context, userID string, id listing.ListingID, day time.Time) (int, error)
}

type CreateParams struct {
	ID        BookingID
	UserID    string
	ListingID listing.ListingID
	Date      time.Time
	EndDate   time.Time
	Units     int
	Notes     string
	Now       time.Time
}

func New(params CreateParams) (*Booking, error) {
	if params.UserID == "" {
		return nil, ErrUserRequired
	}
	units := params.Units
	if units == 0 {
		units = 1
	}
	if units < 1 || units > MaxUnits {
		return nil, ErrInvalidUnits
	}
	if len(params.Notes) > MaxNotesLen {
		return nil, ErrNotesTooLong
	}
	now := params.Now.UTC()
	b := &Booking{
		ID:        params.ID,
		UserID:    params.UserID,
		ListingID: params.ListingID,
		Date:      params.Date.UTC(),
		Units:     units,
		Notes:     params.Notes,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !params.EndDate.IsZero() {
		b.EndDate = params.EndDate.UTC()
	}
	b.Record(BookingCreated{BookingID: b.ID, ListingID: b.ListingID, UserID: b.UserID, Units: b.Units, At: now})
	return b, nil
}

// OccupiedRange is the half-open interval the booking holds against the
// listing. Legacy single-date bookings occupy one day.
func (b *Booking) OccupiedRange() daterange.DateRange {
	if b.EndDate.IsZero() {
		start := daterange.Truncate(b.Date)
		return daterange.DateRange{Start: start, End: start.AddDate(0, 0, 1)}
	}
	return daterange.DateRange{Start: b.Date.UTC(), End: b.EndDate.UTC()}
}

// Active reports whether the booking counts against capacity.
func (b *Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

func (b *Booking) Confirm(now time.Time) error {
	if !CanTransition(b.Status, StatusConfirmed) {
		return ErrInvalidStatusTransition
	}
	b.Status = StatusConfirmed
	b.touch(now)
	b.Record(BookingStatusChanged{BookingID: b.ID, ListingID: b.ListingID, Status: StatusConfirmed, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Complete(now time.Time) error {
	if !CanTransition(b.Status, StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	if b.Date.After(now) {
		return ErrBookingNotYetOccurred
	}
	b.Status = StatusCompleted
	b.touch(now)
	b.Record(BookingStatusChanged{BookingID: b.ID, ListingID: b.ListingID, Status: StatusCompleted, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(now time.Time) error {
	switch b.Status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrCannotCancelCompleted
	}
	b.Status = StatusCancelled
	b.touch(now)
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, Units: b.Units, At: b.UpdatedAt})
	return nil
}

// TransitionTo applies a caller-selected target status through the state
// machine table.
func (b *Booking) TransitionTo(target Status, now time.Time) error {
	switch target {
	case StatusConfirmed:
		return b.Confirm(now)
	case StatusCompleted:
		return b.Complete(now)
	case StatusCancelled:
		return b.Cancel(now)
	default:
		return ErrInvalidStatusTransition
	}
}

func (b *Booking) touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}
