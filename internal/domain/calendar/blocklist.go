package calendar

import (
	"errors"
	"time"

	"stayhub/internal/domain/shared/daterange"
)

var (
	ErrNoNewDatesToBlock  = errors.New("calendar: all dates are already blocked")
	ErrNoDatesWereBlocked = errors.New("calendar: none of the dates were blocked")
	ErrInvalidDateRange   = errors.New("calendar: check-in must be before check-out")
)

// DateSet is an unordered collection of manually blocked calendar dates,
// stored normalized to day granularity so equality is exact.
type DateSet []time.Time

func (s DateSet) Contains(day time.Time) bool {
	day = daterange.Truncate(day)
	for _, d := range s {
		if d.Equal(day) {
			return true
		}
	}
	return false
}

// Block normalizes the given dates, drops those already present and appends
// the rest. Fails with ErrNoNewDatesToBlock when every input was already
// blocked.
func (s DateSet) Block(dates []time.Time) (DateSet, error) {
	added := 0
	next := s
	for _, d := range dates {
		day := daterange.Truncate(d)
		if next.Contains(day) {
			continue
		}
		next = append(next, day)
		added++
	}
	if added == 0 {
		return s, ErrNoNewDatesToBlock
	}
	return next, nil
}

// Unblock removes the matching normalized dates. Fails with
// ErrNoDatesWereBlocked when nothing matched.
func (s DateSet) Unblock(dates []time.Time) (DateSet, error) {
	remove := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		remove[daterange.Truncate(d)] = struct{}{}
	}
	next := make(DateSet, 0, len(s))
	removed := 0
	for _, d := range s {
		if _, ok := remove[d]; ok {
			removed++
			continue
		}
		next = append(next, d)
	}
	if removed == 0 {
		return s, ErrNoDatesWereBlocked
	}
	return next, nil
}

// Day is one entry of a calendar view.
type Day struct {
	Date      time.Time
	DayOfWeek time.Weekday
	Available bool
}

// View produces the day-by-day availability sequence for the [from, to]
// window. Pure function of its inputs.
func (s DateSet) View(from, to time.Time) []Day {
	from = daterange.Truncate(from)
	to = daterange.Truncate(to)
	var days []Day
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		days = append(days, Day{
			Date:      day,
			DayOfWeek: day.Weekday(),
			Available: !s.Contains(day),
		})
	}
	return days
}

// CheckRange walks the half-open [checkIn, checkOut) window and reports the
// days that intersect the blocked set. Available iff no conflicts.
func (s DateSet) CheckRange(checkIn, checkOut time.Time) ([]time.Time, error) {
	checkIn = daterange.Truncate(checkIn)
	checkOut = daterange.Truncate(checkOut)
	if !checkIn.Before(checkOut) {
		return nil, ErrInvalidDateRange
	}
	var conflicts []time.Time
	dr := daterange.DateRange{Start: checkIn, End: checkOut}
	dr.EachDay(func(day time.Time) bool {
		if s.Contains(day) {
			conflicts = append(conflicts, day)
		}
		return true
	})
	return conflicts, nil
}

// MonthWindow resolves a month/year pair to its [first, last] day window.
func MonthWindow(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}
