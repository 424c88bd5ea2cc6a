package booking

import (
	"errors"
	"time"

	"stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/daterange"
)

var (
	ErrBookingTooShort = errors.New("booking: duration below the listing minimum")
	ErrBookingTooLong  = errors.New("booking: duration above the listing maximum")
	ErrDateNotFuture   = errors.New("booking: date must be in the future")
)

// ValidateDuration checks a candidate date range against the listing's
// booking-length policy and returns the duration in days. The day count is
// the ceiling of the range length, so a start equal to the end yields zero
// days and always fails the minimum bound.
func ValidateDuration(policy listing.Inventory, start, end time.Time) (int, error) {
	days := daterange.DateRange{Start: start.UTC(), End: end.UTC()}.Days()
	if days < policy.MinBookingDays {
		return days, ErrBookingTooShort
	}
	if days > policy.MaxBookingDays {
		return days, ErrBookingTooLong
	}
	return days, nil
}

// ValidateFutureDate rejects dates at or before now. Used by the legacy
// single-date booking path.
func ValidateFutureDate(date, now time.Time) error {
	if !date.After(now) {
		return ErrDateNotFuture
	}
	return nil
}
