package reservation

import (
	"context"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/listing"
)

// Availability is the capacity report for a listing over a date range.
type Availability struct {
	Available           bool
	AvailableUnits      int
	TotalUnits          int
	ConflictingBookings []*booking.Booking
}

// CheckAvailability determines whether the listing can absorb the requested
// unit count over [start, end). Committed capacity is the unit sum of
// pending/confirmed bookings whose occupied range overlaps the window;
// cancelled and completed bookings never count.
func (s *Service) CheckAvailability(ctx context.Context, listingID listing.ListingID, start, end time.Time, units int) (Availability, error) {
	if units == 0 {
		units = 1
	}
	if units < 0 || units > booking.MaxUnits {
		return Availability{}, booking.ErrInvalidUnits
	}
	l, err := s.Listings.ByID(ctx, listingID)
	if err != nil {
		return Availability{}, err
	}
	inv := l.Inventory
	if inv.TotalUnits == 0 {
		return Availability{}, ErrInventoryNotConfigured
	}

	// Requesting more units than the listing physically has can never
	// succeed, so the ledger is not consulted.
	if units > inv.TotalUnits {
		return Availability{
			Available:      false,
			AvailableUnits: inv.AvailableUnits,
			TotalUnits:     inv.TotalUnits,
		}, nil
	}

	overlapping, err := s.Bookings.ActiveOverlapping(ctx, listingID, start.UTC(), end.UTC())
	if err != nil {
		return Availability{}, err
	}
	committed := 0
	for _, b := range overlapping {
		committed += b.Units
	}
	availableForRange := inv.TotalUnits - committed
	return Availability{
		Available:           availableForRange >= units,
		AvailableUnits:      max(0, availableForRange),
		TotalUnits:          inv.TotalUnits,
		ConflictingBookings: overlapping,
	}, nil
}
