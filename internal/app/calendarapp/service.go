package calendarapp

import (
	"context"
	"log/slog"
	"time"

	"stayhub/internal/app/auth"
	"stayhub/internal/domain/calendar"
	"stayhub/internal/domain/listing"
)

// Service maintains the per-listing unavailable-dates set and answers the
// simple date-based availability questions that do not involve unit
// inventory.
type Service struct {
	Listings listing.Repository
	Logger   *slog.Logger
	Clock    func() time.Time
}

// BlockDates adds the given dates to the listing's blocked set, ignoring
// dates already present. Listing owner or admin only.
func (s *Service) BlockDates(ctx context.Context, p auth.Principal, id listing.ListingID, dates []time.Time) (calendar.DateSet, error) {
	l, err := s.ownedListing(ctx, p, id)
	if err != nil {
		return nil, err
	}
	next, err := l.BlockedDates.Block(dates)
	if err != nil {
		return nil, err
	}
	l.BlockedDates = next
	if err := s.Listings.Save(ctx, l); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("dates blocked", "listing_id", id, "blocked_total", len(next))
	}
	return next, nil
}

// UnblockDates removes matching dates from the blocked set.
func (s *Service) UnblockDates(ctx context.Context, p auth.Principal, id listing.ListingID, dates []time.Time) (calendar.DateSet, error) {
	l, err := s.ownedListing(ctx, p, id)
	if err != nil {
		return nil, err
	}
	next, err := l.BlockedDates.Unblock(dates)
	if err != nil {
		return nil, err
	}
	l.BlockedDates = next
	if err := s.Listings.Save(ctx, l); err != nil {
		return nil, err
	}
	return next, nil
}

// Window selects the calendar view range: an explicit [from, to] window,
// a month/year pair, or the current month when nothing is given.
type Window struct {
	From  time.Time
	To    time.Time
	Month time.Month
	Year  int
}

func (w Window) resolve(now time.Time) (time.Time, time.Time) {
	if !w.From.IsZero() && !w.To.IsZero() {
		return w.From, w.To
	}
	if w.Year != 0 && w.Month != 0 {
		return calendar.MonthWindow(w.Year, w.Month)
	}
	return calendar.MonthWindow(now.Year(), now.Month())
}

// Calendar produces the day-by-day availability sequence for the window.
func (s *Service) Calendar(ctx context.Context, id listing.ListingID, w Window) ([]calendar.Day, error) {
	l, err := s.Listings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from, to := w.resolve(s.now())
	return l.BlockedDates.View(from, to), nil
}

type RangeCheck struct {
	Available        bool        `json:"is_available"`
	ConflictingDates []time.Time `json:"conflicting_dates"`
}

// CheckRange reports which days of [checkIn, checkOut) are blocked.
func (s *Service) CheckRange(ctx context.Context, id listing.ListingID, checkIn, checkOut time.Time) (RangeCheck, error) {
	l, err := s.Listings.ByID(ctx, id)
	if err != nil {
		return RangeCheck{}, err
	}
	conflicts, err := l.BlockedDates.CheckRange(checkIn, checkOut)
	if err != nil {
		return RangeCheck{}, err
	}
	if conflicts == nil {
		conflicts = []time.Time{}
	}
	return RangeCheck{Available: len(conflicts) == 0, ConflictingDates: conflicts}, nil
}

func (s *Service) ownedListing(ctx context.Context, p auth.Principal, id listing.ListingID) (*listing.Listing, error) {
	l, err := s.Listings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !l.OwnedBy(p.UserID) {
		return nil, auth.ErrForbidden
	}
	return l, nil
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}
