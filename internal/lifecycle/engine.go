// Package lifecycle owns the offer state machine: which statuses exist,
// who may move an offer between them, and the side effects that travel
// with each transition (availability flips, system chat messages, meetup
// initialization, trade history accrual). Transitions are serialized
// per offer by a status-guard compare-and-set on the remote document, so
// two devices can never double-apply the same transition.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/accrual"
	"github.com/swapcycle/swapcycle-api/internal/cache"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/remote"
	"github.com/swapcycle/swapcycle-api/internal/syncer"
)

// Notifier requests a push to a user after a transition. Dispatch is
// fire-and-forget; a failed push never blocks or fails the transition.
type Notifier interface {
	Push(userID uuid.UUID, event string, payload any)
}

type noopNotifier struct{}

func (noopNotifier) Push(uuid.UUID, string, any) {}

// Engine drives offer and meetup transitions.
type Engine struct {
	store  *cache.Store
	set    *syncer.Set
	remote remote.Store
	accrue *accrual.Accruer
	notify Notifier
	now    func() time.Time
}

// New creates the lifecycle engine. A nil notifier disables pushes.
func New(store *cache.Store, set *syncer.Set, r remote.Store, accruer *accrual.Accruer, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Engine{
		store:  store,
		set:    set,
		remote: r,
		accrue: accruer,
		notify: notifier,
		now:    time.Now,
	}
}

// SetClock overrides the engine clock, for tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// loadOffer reads an offer from the cache, falling back to the remote on a
// cache miss.
func (e *Engine) loadOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	offer, err := e.store.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer != nil {
		return offer, nil
	}

	doc, err := e.remote.Get(ctx, syncer.CollectionOffers, id.String())
	if errors.Is(err, remote.ErrNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		log.Printf("lifecycle: remote read of offer %s failed: %v", id, err)
		return nil, models.ErrNotFound
	}

	offer = &models.Offer{}
	if err := json.Unmarshal(doc, offer); err != nil {
		return nil, fmt.Errorf("decoding remote offer %s: %w", id, err)
	}
	if err := e.store.UpsertOffer(ctx, offer); err != nil {
		return nil, err
	}
	return offer, nil
}

// loadItem reads an item from the cache; a miss is ErrNotFound.
func (e *Engine) loadItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, err := e.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", id, models.ErrNotFound)
	}
	return item, nil
}

// commitOffer commits a transitioned offer. The remote compare-and-set only
// lands if the stored status still matches expectedPrior; a guard failure
// refreshes the cache and reports ErrStaleState. A transient remote failure
// commits locally and journals the divergence, it does not block the user.
func (e *Engine) commitOffer(ctx context.Context, offer *models.Offer, expectedPrior models.OfferStatus) error {
	doc, err := json.Marshal(offer)
	if err != nil {
		return fmt.Errorf("encoding offer %s: %w", offer.ID, err)
	}

	err = e.remote.CompareAndSet(ctx, syncer.CollectionOffers, offer.ID.String(), doc, string(expectedPrior))
	switch {
	case errors.Is(err, remote.ErrGuardFailed):
		e.refreshOffer(ctx, offer.ID)
		return models.ErrStaleState
	case err != nil:
		log.Printf("lifecycle: remote commit of offer %s failed, journaled for retry: %v", offer.ID, err)
		if jerr := e.store.EnqueuePending(ctx, syncer.CollectionOffers, offer.ID.String()); jerr != nil {
			return jerr
		}
	}

	return e.store.UpsertOffer(ctx, offer)
}

// refreshOffer best-effort replaces the cached offer with the remote copy
// after a guard failure, so the caller re-presents current state.
func (e *Engine) refreshOffer(ctx context.Context, id uuid.UUID) {
	doc, err := e.remote.Get(ctx, syncer.CollectionOffers, id.String())
	if err != nil {
		log.Printf("lifecycle: refreshing stale offer %s failed: %v", id, err)
		return
	}
	var offer models.Offer
	if err := json.Unmarshal(doc, &offer); err != nil {
		log.Printf("lifecycle: decoding refreshed offer %s failed: %v", id, err)
		return
	}
	if err := e.store.UpsertOffer(ctx, &offer); err != nil {
		log.Printf("lifecycle: caching refreshed offer %s failed: %v", id, err)
	}
}

// holdsByOtherOffer reports whether any other accepted offer still holds
// the item. Holds are taken at accept time, so only accepted offers count.
func (e *Engine) holdsByOtherOffer(ctx context.Context, itemID, excludeOfferID uuid.UUID) (bool, error) {
	offers, err := e.store.ListOffersReferencingItem(ctx, itemID)
	if err != nil {
		return false, err
	}
	for _, o := range offers {
		if o.ID == excludeOfferID {
			continue
		}
		if o.Status == models.OfferAccepted {
			return true, nil
		}
	}
	return false, nil
}

// holdItems marks every item of the offer unavailable.
func (e *Engine) holdItems(ctx context.Context, offer *models.Offer) error {
	for _, itemID := range offer.ItemIDs() {
		item, err := e.store.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil || !item.IsAvailable {
			continue
		}
		item.IsAvailable = false
		item.UpdatedAt = e.now().UTC()
		if _, err := e.set.Items.WriteThrough(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// releaseItems restores availability on the offer's items, but only for
// items no other active offer still holds.
func (e *Engine) releaseItems(ctx context.Context, offer *models.Offer) error {
	for _, itemID := range offer.ItemIDs() {
		held, err := e.holdsByOtherOffer(ctx, itemID, offer.ID)
		if err != nil {
			return err
		}
		if held {
			continue
		}
		item, err := e.store.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil || item.IsAvailable {
			continue
		}
		item.IsAvailable = true
		item.UpdatedAt = e.now().UTC()
		if _, err := e.set.Items.WriteThrough(ctx, item); err != nil {
			return err
		}
	}
	return nil
}
