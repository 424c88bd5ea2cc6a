package daterange

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewRejectsInvertedRange(t *testing.T) {
	if _, err := New(date(2024, 6, 10), date(2024, 6, 10)); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange for equal endpoints, got %v", err)
	}
	if _, err := New(date(2024, 6, 11), date(2024, 6, 10)); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange for inverted range, got %v", err)
	}
}

func TestDaysIsCeiling(t *testing.T) {
	cases := []struct {
		start, end time.Time
		want       int
	}{
		{date(2024, 6, 10), date(2024, 6, 11), 1},
		{date(2024, 6, 10), date(2024, 6, 13), 3},
		{date(2024, 6, 10), date(2024, 6, 10), 0},
		{date(2024, 6, 10), date(2024, 6, 10).Add(12 * time.Hour), 1},
		{date(2024, 6, 10), date(2024, 6, 11).Add(time.Hour), 2},
	}
	for _, tc := range cases {
		got := DateRange{Start: tc.start, End: tc.end}.Days()
		if got != tc.want {
			t.Errorf("Days(%v, %v) = %d, want %d", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestOverlaps(t *testing.T) {
	base := DateRange{Start: date(2024, 6, 10), End: date(2024, 6, 15)}
	overlapping := DateRange{Start: date(2024, 6, 14), End: date(2024, 6, 20)}
	adjacent := DateRange{Start: date(2024, 6, 15), End: date(2024, 6, 20)}
	if !base.Overlaps(overlapping) {
		t.Fatal("expected overlap")
	}
	if base.Overlaps(adjacent) {
		t.Fatal("half-open ranges sharing an endpoint must not overlap")
	}
}

func TestEachDayWalksHalfOpenRange(t *testing.T) {
	dr := DateRange{Start: date(2024, 7, 1), End: date(2024, 7, 4)}
	var days []time.Time
	dr.EachDay(func(day time.Time) bool {
		days = append(days, day)
		return true
	})
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	if !days[0].Equal(date(2024, 7, 1)) || !days[2].Equal(date(2024, 7, 3)) {
		t.Fatalf("unexpected day sequence: %v", days)
	}
}

func TestTruncateNormalizesToDay(t *testing.T) {
	ts := time.Date(2024, 7, 1, 15, 30, 45, 12, time.UTC)
	if got := Truncate(ts); !got.Equal(date(2024, 7, 1)) {
		t.Fatalf("Truncate = %v", got)
	}
}
