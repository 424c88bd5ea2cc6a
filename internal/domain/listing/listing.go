package listing

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayhub/internal/domain/calendar"
)

var (
	ErrNotFound              = errors.New("listing: not found")
	ErrTitleRequired         = errors.New("listing: title is required")
	ErrOwnerRequired         = errors.New("listing: owner id is required")
	ErrInsufficientInventory = errors.New("listing: insufficient inventory")
)

type ListingID string
type OwnerID string

type Listing struct {
	ID           ListingID
	Owner        OwnerID
	Title        string
	Description  string
	PropertyType string
	Inventory    Inventory
	BlockedDates calendar.DateSet
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository is the listing store. ReserveUnits and ReleaseUnits are the
// single serialization point for the available-units counter: ReserveUnits
// must apply the check and the decrement as one atomic conditional update
// and return ErrInsufficientInventory when capacity does not suffice.
type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, l *Listing) error
	ReserveUnits(ctx context.Context, id ListingID, units int) error
	ReleaseUnits(ctx context.Context, id ListingID, units int) error
	UpdateInventory(ctx context.Context, id ListingID, patch InventoryPatch) (*Listing, error)
}

type CreateParams struct {
	ID           ListingID
	Owner        OwnerID
	Title        string
	Description  string
	PropertyType string
	Inventory    *Inventory
	Now          time.Time
}

func New(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	inv := DefaultInventory()
	if params.Inventory != nil {
		inv = *params.Inventory
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	return &Listing{
		ID:           params.ID,
		Owner:        params.Owner,
		Title:        strings.TrimSpace(params.Title),
		Description:  params.Description,
		PropertyType: params.PropertyType,
		Inventory:    inv,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// OwnedBy reports whether the given user is the listing owner.
func (l *Listing) OwnedBy(userID string) bool {
	return userID != "" && string(l.Owner) == userID
}
