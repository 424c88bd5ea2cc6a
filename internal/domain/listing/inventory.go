package listing

import "errors"

var ErrInvalidInventoryConfiguration = errors.New("listing: invalid inventory configuration")

const (
	MaxUnits       = 100
	MaxBookingDays = 365
)

// Inventory is the per-listing capacity record: how many bookable units the
// listing represents, how many remain unreserved, and the booking-duration
// policy applied to date-range bookings.
type Inventory struct {
	TotalUnits     int
	AvailableUnits int
	MinBookingDays int
	MaxBookingDays int
}

func DefaultInventory() Inventory {
	return Inventory{
		TotalUnits:     1,
		AvailableUnits: 1,
		MinBookingDays: 1,
		MaxBookingDays: 30,
	}
}

// Validate enforces the inventory invariants. Every write path must call it
// before persistence.
func (inv Inventory) Validate() error {
	if inv.TotalUnits < 1 || inv.TotalUnits > MaxUnits {
		return ErrInvalidInventoryConfiguration
	}
	if inv.AvailableUnits < 0 || inv.AvailableUnits > inv.TotalUnits {
		return ErrInvalidInventoryConfiguration
	}
	if inv.MinBookingDays < 1 || inv.MinBookingDays > MaxBookingDays {
		return ErrInvalidInventoryConfiguration
	}
	if inv.MaxBookingDays < 1 || inv.MaxBookingDays > MaxBookingDays {
		return ErrInvalidInventoryConfiguration
	}
	if inv.MinBookingDays > inv.MaxBookingDays {
		return ErrInvalidInventoryConfiguration
	}
	return nil
}

// InventoryPatch is a partial inventory update; nil fields keep the current
// value. Applied values are re-validated as a whole before persistence.
type InventoryPatch struct {
	TotalUnits     *int
	AvailableUnits *int
	MinBookingDays *int
	MaxBookingDays *int
}

func (p InventoryPatch) Empty() bool {
	return p.TotalUnits == nil && p.AvailableUnits == nil && p.MinBookingDays == nil && p.MaxBookingDays == nil
}

// Apply merges the patch over the current inventory and validates the result.
func (p InventoryPatch) Apply(current Inventory) (Inventory, error) {
	next := current
	if p.TotalUnits != nil {
		next.TotalUnits = *p.TotalUnits
	}
	if p.AvailableUnits != nil {
		next.AvailableUnits = *p.AvailableUnits
	}
	if p.MinBookingDays != nil {
		next.MinBookingDays = *p.MinBookingDays
	}
	if p.MaxBookingDays != nil {
		next.MaxBookingDays = *p.MaxBookingDays
	}
	if err := next.Validate(); err != nil {
		return Inventory{}, err
	}
	return next, nil
}
