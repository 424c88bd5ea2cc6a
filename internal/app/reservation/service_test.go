package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stayhub/internal/app/auth"
	"stayhub/internal/app/events"
	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/listing"
	"stayhub/internal/infra/storage/memory"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*Service, *memory.ListingRepository, *memory.BookingRepository) {
	t.Helper()
	listings := memory.NewListingRepository()
	bookings := memory.NewBookingRepository()
	svc := &Service{
		Listings: listings,
		Bookings: bookings,
		Events:   events.Dispatcher{Publisher: events.Noop{}},
		Clock:    func() time.Time { return testNow },
	}
	return svc, listings, bookings
}

func seedListing(t *testing.T, repo *memory.ListingRepository, id string, inv listing.Inventory) {
	t.Helper()
	l := &listing.Listing{
		ID:        listing.ListingID(id),
		Owner:     "owner-1",
		Title:     "Test listing",
		Inventory: inv,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	if err := repo.Save(context.Background(), l); err != nil {
		t.Fatalf("seed listing: %v", err)
	}
}

func customer(id string) auth.Principal {
	return auth.Principal{UserID: id, Role: auth.RoleCustomer}
}

func TestCheckAvailabilityScenario(t *testing.T) {
	svc, listings, _ := newTestService(t)
	seedListing(t, listings, "l1", listing.Inventory{TotalUnits: 3, AvailableUnits: 3, MinBookingDays: 1, MaxBookingDays: 30})
	ctx := context.Background()

	// Two active bookings covering 2024-06-10.
	for _, user := range []string{"u1", "u2"} {
		if _, err := svc.Create(ctx, customer(user), CreateParams{
			ListingID: "l1",
			StartDate: date(2024, 6, 9),
			EndDate:   date(2024, 6, 12),
			Units:     1,
		}); err != nil {
			t.Fatalf("seed booking for %s: %v", user, err)
		}
	}

	avail, err := svc.CheckAvailability(ctx, "l1", date(2024, 6, 10), date(2024, 6, 11), 2)
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if avail.Available {
		t.Fatal("two units must not fit when only one remains for the range")
	}
	if avail.AvailableUnits != 1 {
		t.Fatalf("expected 1 available unit, got %d", avail.AvailableUnits)
	}
	if len(avail.ConflictingBookings) != 2 {
		t.Fatalf("expected 2 conflicting bookings, got %d", len(avail.ConflictingBookings))
	}

	avail, err = svc.CheckAvailability(ctx, "l1", date(2024, 6, 10), date(2024, 6, 11), 1)
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if !avail.Available {
		t.Fatal("one unit should still be available")
	}
}

func TestCheckAvailabilityStructuralImpossibility(t *testing.T) {
	svc, listings, _ := newTestService(t)
	seedListing(t, listings, "l1", listing.Inventory{TotalUnits: 2, AvailableUnits: 2, MinBookingDays: 1, MaxBookingDays: 30})

	avail, err := svc.CheckAvailability(context.Background(), "l1", date(2024, 6, 10), date(2024, 6, 11), 5)
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if avail.Available {
		t.Fatal("requesting more units than the listing has must be unavailable")
	}
	if avail.ConflictingBookings != nil {
		t.Fatal("the ledger must not be consulted for structurally impossible requests")
	}
}

func TestCheckAvailabilityNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.CheckAvailability(context.Background(), "missing", date(2024, 6, 10), date(2024, 6, 11), 1); !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("expected listing.ErrNotFound, got %v", err)
	}
}

func TestCreateValidatesDuration(t *testing.T) {
	svc, listings, _ := newTestService(t)
	seedListing(t, listings, "l1", listing.Inventory{TotalUnits: 1, AvailableUnits: 1, MinBookingDays: 2, MaxBookingDays: 5})
	ctx := context.Background()

	_, err := svc.Create(ctx, customer("u1"), CreateParams{ListingID: "l1", StartDate: date(2024, 7, 1), EndDate: date(2024, 7, 2)})
	if !errors.Is(err, booking.ErrBookingTooShort) {
		t.Fatalf("expected ErrBookingTooShort, got %v", err)
	}
	_, err = svc.Create(ctx, customer("u1"), CreateParams{ListingID: "l1", StartDate: date(2024, 7, 1), EndDate: date(2024, 7, 10)})
	if !errors.Is(err, booking.ErrBookingTooLong) {
		t.Fatalf("expected ErrBookingTooLong, got %v", err)
	}
	// Same-day request is a duration failure, not a malformed range.
	_, err = svc.Create(ctx, customer("u1"), CreateParams{ListingID: "l1", StartDate: date(2024, 7, 1), EndDate: date(2024, 7, 1)})
	if !errors.Is(err, booking.ErrBookingTooShort) {
		t.Fatalf("expected ErrBookingTooShort for same-day range, got %v", err)
	}
}

func TestReserveCancelRoundTrip(t *testing.T) {
	svc, listings, _ := newTestService(t)
	seedListing(t, listings, "l1", listing.Inventory{TotalUnits: 5, AvailableUnits: 5, MinBookingDays: 1, MaxBookingDays: 30})
	ctx := context.Background()

	result, err := svc.Create(ctx, customer("u1"), CreateParams{
		ListingID: "l1",
		StartDate: date(2024, 7, 1),
		EndDate:   date(2024, 7, 4),
		Units:     2,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if result.RemainingUnits != 3 {
		t.Fatalf("expected 3 remaining units, got %d", result.RemainingUnits)
	}
	l, _ := listings.ByID(ctx, "l1")
	if l.Inventory.AvailableUnits != 3 {
		t.Fatalf("expected availableUnits 3 after reserve, got %d", l.Inventory.AvailableUnits)
	}

	cancelled, err := svc.Cancel(ctx, customer("u1"), result.Booking.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != booking.StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
	l, _ = listings.ByID(ctx, "l1")
	if l.Inventory.AvailableUnits != 5 {
		t.Fatalf("expected availableUnits restored to 5, got %d", l.Inventory.AvailableUnits)
	}
}

func TestCancelledBookingFreesCapacityForOthers(t *testing.T) {
	svc, listings, _ := newTestService(t)
	seedListing(t, listings, "l1", listing.Inventory{TotalUnits: 1, AvailableUnits: 1, MinBookingDays: 1, MaxBookingDays: 30})
	ctx := context.Background()

	first, err := svc.Create(ctx, customer("u1"), CreateParams{ListingID: "l1", StartDate: date(2024, 7, 1), EndDate: date(2024, 7, 3)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, customer("u2"), CreateParams{ListingID: "l1", StartDate: date(2024, 7, 1), EndDate: date(2024, 7, 3)}); !errors.Is(err, ErrInsufficientInventory) {
		t.Fatalf("expected ErrInsufficientInventory, got %v", err)
	}
	if _, err := svc.Cancel(ctx, customer("u1"), first.Booking.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := svc.Create(ctx, customer("u2"), CreateParams{ListingID: "l1", StartDate: date(2024, 7, 1), EndDate: date(2024, 7, 3)}); err != nil {
		t.Fatalf("booking after cancellation should succeed: %v", err)
	}
}

func TestCancelAuthorization(t *testing.T) {
	svc, listings, _ := newTestService(t)
	seedListing(t, listings, "l1", listing.Inventory{TotalUnits: 2, AvailableUnits: 2, MinBookingDays: 1, MaxBookingDays: 30})
	ctx := context.Background()

	result, err := svc.Create(ctx, customer("u1"), CreateParams{ListingID: "l1", StartDate: date(2024, 7, 1), EndDate: date(2024, 7, 3)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Cancel(ctx, customer("stranger"), result.Booking.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a stranger, got %v", err)
	}
	// The listing owner may cancel.
	if _, err := svc.Cancel(ctx, auth.Principal{UserID: "owner-1", Role: auth.RoleProvider}, result.Booking.ID); err != nil {
		t.Fatalf("listing owner cancel: %v", err)
	}
}

func TestCancelIsNotRepeatable(t *testing.T) {
	svc, listings, _ := newTestService(t)
	seedListing(t, listings, "l1", listing.Inventory{TotalUnits: 2, AvailableUnits: 2, MinBookingDays: 1, MaxBookingDays: 30})
	ctx := context.Background()

	result, err := svc.Create(ctx, customer("u1"), CreateParams{ListingID: "l1", StartDate: date(2024, 7, 1), EndDate: date(2024, 7, 3)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Cancel(ctx, customer("u1"), result.Booking.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := svc.Cancel(ctx, customer("u1"), result.Booking.ID); !errors.Is(err, booking.ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
	// Double cancel must not release units twice.
	l, _ := listings.ByID(ctx, "l1")
	if l.Inventory.AvailableUnits != 2 {
		t.Fatalf("expected availableUnits 2, got %d", l.Inventory.AvailableUnits)
	}
}

func TestUpdateStatusLifecycle(t *testing.T) {
	svc, listings, _ := newTestService(t)
	seedListing(t, listings, "l1", listing.Inventory{TotalUnits: 2, AvailableUnits: 2, MinBookingDays: 1, MaxBookingDays: 30})
	ctx := context.Background()

	result, err := svc.Create(ctx, customer("u1"), CreateParams{ListingID: "l1", StartDate: testNow.AddDate(0, 0, -3), EndDate: testNow.AddDate(0, 0, -1)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := result.Booking.ID

	b, err := svc.UpdateStatus(ctx, customer("u1"), id, booking.StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if b.Status != booking.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", b.Status)
	}
	if _, err := svc.UpdateStatus(ctx, customer("u1"), id, booking.StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, customer("u1"), id, booking.StatusCancelled); !errors.Is(err, booking.ErrCannotCancelCompleted) {
		t.Fatalf("expected ErrCannotCancelCompleted, got %v", err)
	}
}

func TestUpdateStatusToCancelledReleasesUnits(t *testing.T) {
	svc, listings, _ := newTestService(t)
	seedListing(t, listings, "l1", listing.Inventory{TotalUnits: 3, AvailableUnits: 3, MinBookingDays: 1, MaxBookingDays: 30})
	ctx := context.Background()

	result, err := svc.Create(ctx, customer("u1"), CreateParams{ListingID: "l1", StartDate: date(2024, 7, 1), EndDate: date(2024, 7, 3), Units: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, customer("u1"), result.Booking.ID, booking.StatusCancelled); err != nil {
		t.Fatalf("cancel via status: %v", err)
	}
	l, _ := listings.ByID(ctx, "l1")
	if l.Inventory.AvailableUnits != 3 {
		t.Fatalf("expected availableUnits restored to 3, got %d", l.Inventory.AvailableUnits)
	}
}

func TestInventoryNotConfigured(t *testing.T) {
	svc, listings, _ := newTestService(t)
	l := &listing.Listing{ID: "bare", Owner: "owner-1", Title: "No inventory"}
	if err := listings.Save(context.Background(), l); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := svc.Create(context.Background(), customer("u1"), CreateParams{ListingID: "bare", StartDate: date(2024, 7, 1), EndDate: date(2024, 7, 3)})
	if !errors.Is(err, ErrInventoryNotConfigured) {
		t.Fatalf("expected ErrInventoryNotConfigured, got %v", err)
	}
}

func TestParallelReservationOfLastUnit(t *testing.T) {
	svc, listings, _ := newTestService(t)
	seedListing(t, listings, "l1", listing.Inventory{TotalUnits: 1, AvailableUnits: 1, MinBookingDays: 1, MaxBookingDays: 30})
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	successes := make(chan booking.BookingID, workers)
	failures := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			result, err := svc.Create(ctx, customer("user"), CreateParams{
				ListingID: "l1",
				StartDate: date(2024, 7, 1),
				EndDate:   date(2024, 7, 3),
				Units:     1,
			})
			if err != nil {
				failures <- err
				return
			}
			successes <- result.Booking.ID
		}(i)
	}
	wg.Wait()
	close(successes)
	close(failures)

	if got := len(successes); got != 1 {
		t.Fatalf("expected exactly 1 successful reservation, got %d", got)
	}
	for err := range failures {
		if !errors.Is(err, ErrInsufficientInventory) {
			t.Fatalf("losers must fail with ErrInsufficientInventory, got %v", err)
		}
	}
	l, _ := listings.ByID(ctx, "l1")
	if l.Inventory.AvailableUnits != 0 {
		t.Fatalf("counter must end at exactly 0, got %d", l.Inventory.AvailableUnits)
	}
	if l.Inventory.AvailableUnits < 0 || l.Inventory.AvailableUnits > l.Inventory.TotalUnits {
		t.Fatalf("inventory invariant violated: %+v", l.Inventory)
	}
}

func TestCreateLegacy(t *testing.T) {
	svc, listings, _ := newTestService(t)
	seedListing(t, listings, "l1", listing.Inventory{TotalUnits: 1, AvailableUnits: 1, MinBookingDays: 1, MaxBookingDays: 30})
	ctx := context.Background()

	if _, err := svc.CreateLegacy(ctx, customer("u1"), CreateLegacyParams{ListingID: "l1", Date: testNow.Add(-time.Hour)}); !errors.Is(err, booking.ErrDateNotFuture) {
		t.Fatalf("expected ErrDateNotFuture, got %v", err)
	}

	slot := testNow.AddDate(0, 0, 7).Add(2 * time.Hour)
	if _, err := svc.CreateLegacy(ctx, customer("u1"), CreateLegacyParams{ListingID: "l1", Date: slot}); err != nil {
		t.Fatalf("CreateLegacy: %v", err)
	}

	// Same user, same day: duplicate.
	if _, err := svc.CreateLegacy(ctx, customer("u1"), CreateLegacyParams{ListingID: "l1", Date: slot.Add(4 * time.Hour)}); !errors.Is(err, ErrDuplicateBooking) {
		t.Fatalf("expected ErrDuplicateBooking, got %v", err)
	}
	// Other user inside the 30-minute window: slot conflict.
	if _, err := svc.CreateLegacy(ctx, customer("u2"), CreateLegacyParams{ListingID: "l1", Date: slot.Add(20 * time.Minute)}); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
	// Other user well clear of the window succeeds.
	if _, err := svc.CreateLegacy(ctx, customer("u2"), CreateLegacyParams{ListingID: "l1", Date: slot.Add(3 * time.Hour)}); err != nil {
		t.Fatalf("CreateLegacy outside window: %v", err)
	}

	// The legacy path never touches inventory.
	l, _ := listings.ByID(ctx, "l1")
	if l.Inventory.AvailableUnits != 1 {
		t.Fatalf("legacy bookings must not consume units, got %d", l.Inventory.AvailableUnits)
	}
}

func TestListForListingAuthorization(t *testing.T) {
	svc, listings, _ := newTestService(t)
	seedListing(t, listings, "l1", listing.Inventory{TotalUnits: 1, AvailableUnits: 1, MinBookingDays: 1, MaxBookingDays: 30})
	ctx := context.Background()

	if _, err := svc.ListForListing(ctx, customer("stranger"), "l1"); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.ListForListing(ctx, auth.Principal{UserID: "owner-1", Role: auth.RoleProvider}, "l1"); err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if _, err := svc.ListForListing(ctx, auth.Principal{UserID: "root", Role: auth.RoleAdmin}, "l1"); err != nil {
		t.Fatalf("admin list: %v", err)
	}
}
