package memory

import (
	"context"
	"sync"
	"time"

	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/daterange"
)

// ListingRepository is an in-memory implementation used for tests and as a
// dev fallback when no database is configured. The mutex serializes
// ReserveUnits, giving the same never-negative guarantee the conditional
// update provides on the database.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlisting.ListingID]domainlisting.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[domainlisting.ListingID]domainlisting.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ListingID) (*domainlisting.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.items[id]
	if !ok {
		return nil, domainlisting.ErrNotFound
	}
	return cloneListing(l), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlisting.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.Version++
	r.items[l.ID] = *cloneListing(*l)
	return nil
}

func (r *ListingRepository) ReserveUnits(ctx context.Context, id domainlisting.ListingID, units int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return domainlisting.ErrNotFound
	}
	if l.Inventory.AvailableUnits < units {
		return domainlisting.ErrInsufficientInventory
	}
	l.Inventory.AvailableUnits -= units
	l.UpdatedAt = time.Now().UTC()
	r.items[id] = l
	return nil
}

func (r *ListingRepository) ReleaseUnits(ctx context.Context, id domainlisting.ListingID, units int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return domainlisting.ErrNotFound
	}
	l.Inventory.AvailableUnits = min(l.Inventory.TotalUnits, l.Inventory.AvailableUnits+units)
	l.UpdatedAt = time.Now().UTC()
	r.items[id] = l
	return nil
}

func (r *ListingRepository) UpdateInventory(ctx context.Context, id domainlisting.ListingID, patch domainlisting.InventoryPatch) (*domainlisting.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return nil, domainlisting.ErrNotFound
	}
	next, err := patch.Apply(l.Inventory)
	if err != nil {
		return nil, err
	}
	l.Inventory = next
	l.UpdatedAt = time.Now().UTC()
	r.items[id] = l
	return cloneListing(l), nil
}

func cloneListing(l domainlisting.Listing) *domainlisting.Listing {
	out := l
	out.BlockedDates = append(out.BlockedDates[:0:0], l.BlockedDates...)
	return &out
}

// BookingRepository keeps the booking ledger in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	out := b
	return &out, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.Version++
	stored := *b
	// Pending events are dispatch state, not persisted state.
	stored.ClearEvents()
	r.items[b.ID] = stored
	return nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*domainbooking.Booking, error) {
	return r.filter(func(b domainbooking.Booking) bool {
		return b.UserID == userID
	})
}

func (r *BookingRepository) ListByListing(ctx context.Context, id domainlisting.ListingID) ([]*domainbooking.Booking, error) {
	return r.filter(func(b domainbooking.Booking) bool {
		return b.ListingID == id
	})
}

func (r *BookingRepository) ActiveOverlapping(ctx context.Context, id domainlisting.ListingID, start, end time.Time) ([]*domainbooking.Booking, error) {
	window := daterange.DateRange{Start: start.UTC(), End: end.UTC()}
	return r.filter(func(b domainbooking.Booking) bool {
		return b.ListingID == id && b.Active() && b.OccupiedRange().Overlaps(window)
	})
}

func (r *BookingRepository) CountUserOnDay(ctx context.Context, userID string, id domainlisting.ListingID, day time.Time) (int, error) {
	day = daterange.Truncate(day)
	matches, err := r.filter(func(b domainbooking.Booking) bool {
		return b.UserID == userID && b.ListingID == id &&
			b.Status != domainbooking.StatusCancelled &&
			daterange.Truncate(b.Date).Equal(day)
	})
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

func (r *BookingRepository) filter(keep func(domainbooking.Booking) bool) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if keep(b) {
			copy := b
			out = append(out, &copy)
		}
	}
	return out, nil
}
