package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/app/auth"
	"stayhub/internal/domain/listing"
)

// Service covers the thin listing surface the booking engine hangs off:
// creating a listing with inventory defaults and reading it back.
type Service struct {
	Listings listing.Repository
	Logger   *slog.Logger
}

type CreateParams struct {
	Title        string
	Description  string
	PropertyType string
	Inventory    *listing.Inventory
}

func (s *Service) Create(ctx context.Context, p auth.Principal, params CreateParams) (*listing.Listing, error) {
	l, err := listing.New(listing.CreateParams{
		ID:           listing.ListingID(uuid.NewString()),
		Owner:        listing.OwnerID(p.UserID),
		Title:        params.Title,
		Description:  params.Description,
		PropertyType: params.PropertyType,
		Inventory:    params.Inventory,
		Now:          time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Listings.Save(ctx, l); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("listing created", "listing_id", l.ID, "owner", l.Owner)
	}
	return l, nil
}

func (s *Service) Get(ctx context.Context, id listing.ListingID) (*listing.Listing, error) {
	return s.Listings.ByID(ctx, id)
}
