package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/app/auth"
	"stayhub/internal/app/events"
	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/daterange"
)

var (
	ErrInventoryNotConfigured = errors.New("reservation: listing has no inventory configured")
	ErrInsufficientInventory  = errors.New("reservation: insufficient inventory")
	ErrDuplicateBooking       = errors.New("reservation: user already booked this listing on that day")
	ErrSlotUnavailable        = errors.New("reservation: the requested slot conflicts with another booking")
)

// legacySlotWindow is the fixed conflict window the single-date path applies
// around the requested time.
const legacySlotWindow = 30 * time.Minute

// Service orchestrates booking creation and cancellation against the listing
// inventory and the booking ledger.
type Service struct {
	Listings listing.Repository
	Bookings booking.Repository
	Events   events.Dispatcher
	Logger   *slog.Logger
	Clock    func() time.Time
}

type CreateParams struct {
	ListingID listing.ListingID
	StartDate time.Time
	EndDate   time.Time
	Units     int
	Notes     string
}

type CreateResult struct {
	Booking        *booking.Booking
	RemainingUnits int
}

// Create places an inventory-aware booking: duration policy, availability
// against the ledger, then an atomic conditional reserve on the listing's
// unit counter. The availability check and the reserve are not one
// operation; losing the race at reserve time cancels the just-written
// booking and reports insufficient inventory.
func (s *Service) Create(ctx context.Context, p auth.Principal, params CreateParams) (*CreateResult, error) {
	l, err := s.Listings.ByID(ctx, params.ListingID)
	if err != nil {
		return nil, err
	}
	if l.Inventory.TotalUnits == 0 {
		return nil, ErrInventoryNotConfigured
	}
	start, end := params.StartDate.UTC(), params.EndDate.UTC()
	if end.Before(start) {
		return nil, daterange.ErrInvalidRange
	}
	// Duration policy runs first so a same-day request reads as too short
	// rather than as a malformed range.
	if _, err := booking.ValidateDuration(l.Inventory, start, end); err != nil {
		return nil, err
	}
	dr, err := daterange.New(start, end)
	if err != nil {
		return nil, err
	}
	units := params.Units
	if units == 0 {
		units = 1
	}
	avail, err := s.CheckAvailability(ctx, params.ListingID, dr.Start, dr.End, units)
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientInventory, units, avail.AvailableUnits)
	}

	now := s.now()
	b, err := booking.New(booking.CreateParams{
		ID:        booking.BookingID(uuid.NewString()),
		UserID:    p.UserID,
		ListingID: params.ListingID,
		Date:      dr.Start,
		EndDate:   dr.End,
		Units:     units,
		Notes:     params.Notes,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Bookings.Save(ctx, b); err != nil {
		return nil, err
	}
	if err := s.Listings.ReserveUnits(ctx, params.ListingID, units); err != nil {
		if errors.Is(err, listing.ErrInsufficientInventory) {
			// Lost the reserve race: undo the ledger write.
			_ = b.Cancel(now)
			if saveErr := s.Bookings.Save(ctx, b); saveErr != nil && s.Logger != nil {
				s.Logger.Error("compensating cancel failed", "booking_id", b.ID, "error", saveErr)
			}
			return nil, fmt.Errorf("%w: requested %d", ErrInsufficientInventory, units)
		}
		return nil, err
	}

	remaining := avail.AvailableUnits - units
	if updated, err := s.Listings.ByID(ctx, params.ListingID); err == nil {
		remaining = updated.Inventory.AvailableUnits
	}
	s.dispatch(ctx, b)
	if s.Logger != nil {
		s.Logger.Info("booking created", "booking_id", b.ID, "listing_id", params.ListingID, "units", units, "remaining", remaining)
	}
	return &CreateResult{Booking: b, RemainingUnits: remaining}, nil
}

// Cancel releases the booking's reserved units back to the listing and
// marks the booking cancelled. Allowed for the booking owner, the listing
// owner and admins.
func (s *Service) Cancel(ctx context.Context, p auth.Principal, id booking.BookingID) (*booking.Booking, error) {
	b, err := s.Bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, b); err != nil {
		return nil, err
	}
	now := s.now()
	if err := b.Cancel(now); err != nil {
		return nil, err
	}
	if err := s.Bookings.Save(ctx, b); err != nil {
		return nil, err
	}
	// Legacy single-date bookings never reserved units, so there is
	// nothing to release for them.
	if b.Units > 0 && !b.EndDate.IsZero() {
		if err := s.Listings.ReleaseUnits(ctx, b.ListingID, b.Units); err != nil && s.Logger != nil {
			s.Logger.Error("unit release failed", "booking_id", b.ID, "listing_id", b.ListingID, "error", err)
		}
	}
	s.dispatch(ctx, b)
	if s.Logger != nil {
		s.Logger.Info("booking cancelled", "booking_id", b.ID, "listing_id", b.ListingID)
	}
	return b, nil
}

// UpdateStatus drives the booking through its lifecycle state machine.
// Cancelling through this path releases units exactly like Cancel.
func (s *Service) UpdateStatus(ctx context.Context, p auth.Principal, id booking.BookingID, target booking.Status) (*booking.Booking, error) {
	if target == booking.StatusCancelled {
		return s.Cancel(ctx, p, id)
	}
	b, err := s.Bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, b); err != nil {
		return nil, err
	}
	if err := b.TransitionTo(target, s.now()); err != nil {
		return nil, err
	}
	if err := s.Bookings.Save(ctx, b); err != nil {
		return nil, err
	}
	s.dispatch(ctx, b)
	return b, nil
}

type CreateLegacyParams struct {
	ListingID listing.ListingID
	Date      time.Time
	Notes     string
}

// CreateLegacy places a single-date booking without touching inventory: the
// date must be in the future, the user may not already hold a booking for
// the listing on that day, and the requested time must clear a fixed window
// around every other active booking on the listing.
func (s *Service) CreateLegacy(ctx context.Context, p auth.Principal, params CreateLegacyParams) (*booking.Booking, error) {
	now := s.now()
	if err := booking.ValidateFutureDate(params.Date, now); err != nil {
		return nil, err
	}
	if _, err := s.Listings.ByID(ctx, params.ListingID); err != nil {
		return nil, err
	}
	day := daterange.Truncate(params.Date)
	count, err := s.Bookings.CountUserOnDay(ctx, p.UserID, params.ListingID, day)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateBooking
	}
	existing, err := s.Bookings.ListByListing(ctx, params.ListingID)
	if err != nil {
		return nil, err
	}
	requested := params.Date.UTC()
	for _, other := range existing {
		if !other.Active() {
			continue
		}
		diff := other.Date.Sub(requested)
		if diff < 0 {
			diff = -diff
		}
		if diff <= legacySlotWindow {
			return nil, ErrSlotUnavailable
		}
	}
	b, err := booking.New(booking.CreateParams{
		ID:        booking.BookingID(uuid.NewString()),
		UserID:    p.UserID,
		ListingID: params.ListingID,
		Date:      requested,
		Units:     1,
		Notes:     params.Notes,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Bookings.Save(ctx, b); err != nil {
		return nil, err
	}
	s.dispatch(ctx, b)
	return b, nil
}

// ListMine returns the caller's bookings.
func (s *Service) ListMine(ctx context.Context, p auth.Principal) ([]*booking.Booking, error) {
	return s.Bookings.ListByUser(ctx, p.UserID)
}

// ListForListing returns a listing's bookings to its owner or an admin.
func (s *Service) ListForListing(ctx context.Context, p auth.Principal, id listing.ListingID) ([]*booking.Booking, error) {
	l, err := s.Listings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !l.OwnedBy(p.UserID) {
		return nil, auth.ErrForbidden
	}
	return s.Bookings.ListByListing(ctx, id)
}

// authorize grants the booking owner, the listing owner and admins.
func (s *Service) authorize(ctx context.Context, p auth.Principal, b *booking.Booking) error {
	if p.IsAdmin() || p.Is(b.UserID) {
		return nil
	}
	l, err := s.Listings.ByID(ctx, b.ListingID)
	if err == nil && l.OwnedBy(p.UserID) {
		return nil
	}
	return auth.ErrForbidden
}

func (s *Service) dispatch(ctx context.Context, b *booking.Booking) {
	evts := b.PendingEvents()
	b.ClearEvents()
	s.Events.Dispatch(ctx, evts)
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}
