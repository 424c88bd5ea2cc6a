package inventory

import (
	"context"
	"log/slog"

	"stayhub/internal/app/auth"
	"stayhub/internal/domain/listing"
)

// Service carries the admin-facing inventory operations: single update,
// availability adjustment and bulk update with partial-failure semantics.
type Service struct {
	Listings listing.Repository
	Logger   *slog.Logger
}

// Update applies a field-subset patch to one listing's inventory. The merged
// record is validated before anything is persisted. Allowed for the listing
// owner and admins.
func (s *Service) Update(ctx context.Context, p auth.Principal, id listing.ListingID, patch listing.InventoryPatch) (*listing.Listing, error) {
	l, err := s.Listings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !l.OwnedBy(p.UserID) {
		return nil, auth.ErrForbidden
	}
	if _, err := patch.Apply(l.Inventory); err != nil {
		return nil, err
	}
	updated, err := s.Listings.UpdateInventory(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("inventory updated", "listing_id", id)
	}
	return updated, nil
}

// Adjust shifts availableUnits by a delta, bounded by the inventory
// invariants.
func (s *Service) Adjust(ctx context.Context, p auth.Principal, id listing.ListingID, delta int) (*listing.Listing, error) {
	l, err := s.Listings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !l.OwnedBy(p.UserID) {
		return nil, auth.ErrForbidden
	}
	next := l.Inventory.AvailableUnits + delta
	patch := listing.InventoryPatch{AvailableUnits: &next}
	if _, err := patch.Apply(l.Inventory); err != nil {
		return nil, err
	}
	return s.Listings.UpdateInventory(ctx, id, patch)
}

type BulkItem struct {
	ListingID listing.ListingID
	Patch     listing.InventoryPatch
}

type BulkFailure struct {
	ListingID listing.ListingID `json:"listing_id"`
	Reason    string            `json:"reason"`
}

type BulkResult struct {
	Succeeded int           `json:"succeeded"`
	Failures  []BulkFailure `json:"failures"`
}

// BulkUpdate applies each item independently: failures are collected per
// listing while the rest of the batch commits. Admin only.
func (s *Service) BulkUpdate(ctx context.Context, p auth.Principal, items []BulkItem) (BulkResult, error) {
	if !p.IsAdmin() {
		return BulkResult{}, auth.ErrForbidden
	}
	result := BulkResult{Failures: []BulkFailure{}}
	for _, item := range items {
		if err := s.applyOne(ctx, item); err != nil {
			result.Failures = append(result.Failures, BulkFailure{ListingID: item.ListingID, Reason: err.Error()})
			continue
		}
		result.Succeeded++
	}
	if s.Logger != nil {
		s.Logger.Info("bulk inventory update", "succeeded", result.Succeeded, "failed", len(result.Failures))
	}
	return result, nil
}

func (s *Service) applyOne(ctx context.Context, item BulkItem) error {
	l, err := s.Listings.ByID(ctx, item.ListingID)
	if err != nil {
		return err
	}
	if _, err := item.Patch.Apply(l.Inventory); err != nil {
		return err
	}
	_, err = s.Listings.UpdateInventory(ctx, item.ListingID, item.Patch)
	return err
}
