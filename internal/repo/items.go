// Package repo provides the read and write surface the HTTP services call.
// Repositories compose the local cache, the sync coordinators and the
// lifecycle engine; they never touch the remote store directly.
package repo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/cache"
	"github.com/swapcycle/swapcycle-api/internal/geo"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/syncer"
)

// ItemRepo manages item listings.
type ItemRepo struct {
	store *cache.Store
	items *syncer.Coordinator[*models.Item]
	now   func() time.Time
}

// NewItemRepo creates an item repository.
func NewItemRepo(store *cache.Store, set *syncer.Set) *ItemRepo {
	return &ItemRepo{store: store, items: set.Items, now: time.Now}
}

// CreateItemRequest carries a new listing's fields.
type CreateItemRequest struct {
	Name          string
	Description   string
	Category      models.ItemCategory
	Condition     models.ItemCondition
	Images        []string
	Location      *models.Location
	DesiredTrades string
}

// Create persists a new listing owned by the actor.
func (r *ItemRepo) Create(ctx context.Context, actor uuid.UUID, req CreateItemRequest) (*models.Item, error) {
	if actor == uuid.Nil {
		return nil, models.ErrNoActor
	}
	if req.Name == "" {
		return nil, fmt.Errorf("item name is required")
	}
	if req.Category == "" {
		req.Category = models.CategoryOther
	}

	now := r.now().UTC()
	item := &models.Item{
		ID:            uuid.New(),
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Condition:     req.Condition,
		Images:        req.Images,
		OwnerID:       actor,
		Location:      req.Location,
		DesiredTrades: req.DesiredTrades,
		IsAvailable:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := r.items.WriteThrough(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemRequest carries the mutable listing fields. Nil pointers leave
// the current value untouched.
type UpdateItemRequest struct {
	Name          *string
	Description   *string
	Category      *models.ItemCategory
	Condition     *models.ItemCondition
	Images        []string
	Location      *models.Location
	DesiredTrades *string
}

// Update edits a listing. Only the owner may edit.
func (r *ItemRepo) Update(ctx context.Context, actor uuid.UUID, itemID uuid.UUID, req UpdateItemRequest) (*models.Item, error) {
	item, err := r.get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != actor {
		return nil, fmt.Errorf("item %s: %w", itemID, models.ErrNotAuthorized)
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Condition != nil {
		item.Condition = *req.Condition
	}
	if req.Images != nil {
		item.Images = req.Images
	}
	if req.Location != nil {
		item.Location = req.Location
	}
	if req.DesiredTrades != nil {
		item.DesiredTrades = *req.DesiredTrades
	}
	item.UpdatedAt = r.now().UTC()

	if _, err := r.items.WriteThrough(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Get returns a listing and counts the view.
func (r *ItemRepo) Get(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	item, err := r.get(ctx, itemID)
	if err != nil {
		return nil, err
	}

	item.ViewCount++
	if _, err := r.items.WriteThrough(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListQuery filters and ranks the browse feed.
type ListQuery struct {
	Category models.ItemCategory
	Viewer   *models.Location
	Limit    int
}

// List returns available listings, closest first when the viewer shares a
// location. Listings without coordinates sort after located ones.
func (r *ItemRepo) List(ctx context.Context, q ListQuery) ([]*models.Item, error) {
	items, err := r.store.ListAvailableItems(ctx)
	if err != nil {
		return nil, err
	}

	filtered := items[:0]
	for _, item := range items {
		if q.Category != "" && item.Category != q.Category {
			continue
		}
		if q.Viewer != nil && item.Location != nil {
			item.Distance = geo.DistanceKm(q.Viewer.Latitude, q.Viewer.Longitude,
				item.Location.Latitude, item.Location.Longitude)
		}
		filtered = append(filtered, item)
	}

	if q.Viewer != nil {
		sort.SliceStable(filtered, func(i, j int) bool {
			a, b := filtered[i], filtered[j]
			if (a.Location == nil) != (b.Location == nil) {
				return b.Location == nil
			}
			return a.Distance < b.Distance
		})
	}

	if q.Limit > 0 && len(filtered) > q.Limit {
		filtered = filtered[:q.Limit]
	}
	return filtered, nil
}

// ListByOwner returns every listing of one user, available or not.
func (r *ItemRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Item, error) {
	return r.store.ListItemsByOwner(ctx, ownerID)
}

// Delete removes a listing. Only the owner may delete, and a listing held
// by an accepted offer cannot be removed out from under the trade.
func (r *ItemRepo) Delete(ctx context.Context, actor uuid.UUID, itemID uuid.UUID) error {
	item, err := r.get(ctx, itemID)
	if err != nil {
		return err
	}
	if item.OwnerID != actor {
		return fmt.Errorf("item %s: %w", itemID, models.ErrNotAuthorized)
	}
	if !item.IsAvailable {
		return fmt.Errorf("%w: item is held by an active trade", models.ErrInvalidTransition)
	}

	// The remote document has to go too, or the next sync pulls the
	// listing straight back into the cache.
	_, err = r.items.DeleteThrough(ctx, itemID.String())
	return err
}

func (r *ItemRepo) get(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	item, err := r.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", itemID, models.ErrNotFound)
	}
	return item, nil
}
