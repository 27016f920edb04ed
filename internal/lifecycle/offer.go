package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/models"
)

// CreateRequest carries the fields a user supplies when proposing a trade.
type CreateRequest struct {
	ToUserID        uuid.UUID
	RequestedItemID uuid.UUID
	OfferedItemIDs  []uuid.UUID
	CashAmount      float64
	Message         string
	ExpiresAt       *time.Time
}

// Create validates and persists a new pending offer, opens its chat and
// posts the opening system message.
func (e *Engine) Create(ctx context.Context, actor uuid.UUID, req CreateRequest) (*models.Offer, error) {
	if actor == uuid.Nil {
		return nil, models.ErrNoActor
	}

	offer, err := models.NewOffer(actor, req.ToUserID, req.RequestedItemID,
		req.OfferedItemIDs, req.CashAmount, req.Message, req.ExpiresAt)
	if err != nil {
		return nil, err
	}

	requested, err := e.validateDraft(ctx, offer)
	if err != nil {
		return nil, err
	}

	return e.publish(ctx, offer, requested)
}

// validateDraft checks a new offer's items: the requested item belongs to
// the recipient and every offered item to the initiator, all available.
func (e *Engine) validateDraft(ctx context.Context, offer *models.Offer) (*models.Item, error) {
	requested, err := e.loadItem(ctx, offer.RequestedItemID)
	if err != nil {
		return nil, err
	}
	if requested.OwnerID != offer.ToUserID {
		return nil, fmt.Errorf("%w: requested item does not belong to the recipient", models.ErrInvalidOffer)
	}
	if !requested.IsAvailable {
		return nil, models.ErrItemsUnavailable
	}

	for _, itemID := range offer.OfferedItemIDs {
		item, err := e.loadItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if item.OwnerID != offer.FromUserID {
			return nil, fmt.Errorf("offered item %s: %w", itemID, models.ErrNotAuthorized)
		}
		if !item.IsAvailable {
			return nil, models.ErrItemsUnavailable
		}
	}
	return requested, nil
}

// publish persists a validated pending offer, opens its chat and notifies
// the recipient.
func (e *Engine) publish(ctx context.Context, offer *models.Offer, requested *models.Item) (*models.Offer, error) {
	if _, err := e.set.Offers.WriteThrough(ctx, offer); err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("New trade offer for %q", requested.Name)
	if len(offer.OfferedItemIDs) > 0 && offer.CashAmount > 0 {
		summary += fmt.Sprintf(" (%d item(s) plus %.2f cash)", len(offer.OfferedItemIDs), offer.CashAmount)
	} else if offer.CashAmount > 0 {
		summary += fmt.Sprintf(" (%.2f cash)", offer.CashAmount)
	} else {
		summary += fmt.Sprintf(" (%d item(s))", len(offer.OfferedItemIDs))
	}
	if err := e.postSystemMessage(ctx, offer, offer.FromUserID, models.MessageOffer, summary); err != nil {
		return nil, err
	}

	e.push(offer.ToUserID, "offer_created", offer)
	return offer, nil
}

// Accept moves a pending offer to accepted. Only the recipient may accept.
// Accepting holds every involved item, initializes the embedded meetup and
// posts a system message. If any item is no longer available the offer is
// left pending for the initiator to amend rather than auto-expired, so the
// initiator keeps both the information and the choice.
func (e *Engine) Accept(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := e.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}

	// Duplicate retry of an already-applied accept succeeds, re-applying
	// the item holds in case a crash landed the commit without them.
	if offer.Status == models.OfferAccepted {
		return offer, e.holdItems(ctx, offer)
	}
	if !offer.Status.CanTransitionTo(models.OfferAccepted) {
		return nil, fmt.Errorf("%w: cannot accept a %s offer", models.ErrInvalidTransition, offer.Status)
	}
	if actor != offer.ToUserID {
		return nil, fmt.Errorf("%w: only the offer recipient may accept", models.ErrNotAuthorized)
	}
	if offer.IsExpired(e.now()) {
		if _, err := e.Expire(ctx, offer.ID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: offer has expired", models.ErrInvalidTransition)
	}

	for _, itemID := range offer.ItemIDs() {
		item, err := e.loadItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if !item.IsAvailable {
			return nil, models.ErrItemsUnavailable
		}
	}

	prior := offer.Status
	now := e.now().UTC()
	offer.Status = models.OfferAccepted
	offer.UpdatedAt = now
	if offer.Meetup == nil {
		offer.Meetup = &models.Meetup{
			ID:             uuid.New(),
			OfferID:        offer.ID,
			ParticipantIDs: offer.Participants(),
			Status:         models.MeetupScheduled,
			Type:           models.MeetupPickup,
		}
	}

	if err := e.commitOffer(ctx, offer, prior); err != nil {
		current, rerr := e.resolveStale(ctx, offerID, models.OfferAccepted, err)
		if rerr != nil {
			return nil, rerr
		}
		return current, e.holdItems(ctx, current)
	}

	if err := e.holdItems(ctx, offer); err != nil {
		return nil, err
	}
	if err := e.postSystemMessage(ctx, offer, actor, models.MessageOffer,
		"Offer accepted. Schedule a meetup to complete the trade."); err != nil {
		return nil, err
	}

	e.push(offer.FromUserID, "offer_accepted", offer)
	return offer, nil
}

// Reject moves a pending offer to rejected. Only the recipient may reject.
func (e *Engine) Reject(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := e.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status == models.OfferRejected {
		return offer, e.releaseItems(ctx, offer)
	}
	if !offer.Status.CanTransitionTo(models.OfferRejected) {
		return nil, fmt.Errorf("%w: cannot reject a %s offer", models.ErrInvalidTransition, offer.Status)
	}
	if actor != offer.ToUserID {
		return nil, fmt.Errorf("%w: only the offer recipient may reject", models.ErrNotAuthorized)
	}

	return e.terminate(ctx, offer, actor, models.OfferRejected, "offer_rejected",
		"Offer declined.")
}

// Cancel withdraws an offer. A pending offer may only be cancelled by its
// initiator; an accepted offer may be cancelled by either party, but only
// until the meetup is underway.
func (e *Engine) Cancel(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := e.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status == models.OfferCancelled {
		return offer, e.releaseItems(ctx, offer)
	}
	if !offer.Status.CanTransitionTo(models.OfferCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s offer", models.ErrInvalidTransition, offer.Status)
	}

	switch offer.Status {
	case models.OfferPending:
		if actor != offer.FromUserID {
			return nil, fmt.Errorf("%w: only the initiator may cancel a pending offer", models.ErrNotAuthorized)
		}
	case models.OfferAccepted:
		if !offer.HasParticipant(actor) {
			return nil, fmt.Errorf("%w: only a participant may cancel", models.ErrNotAuthorized)
		}
		if m := offer.Meetup; m != nil && (m.Status == models.MeetupInProgress || m.Status == models.MeetupCompleted) {
			return nil, fmt.Errorf("%w: the meetup is already underway", models.ErrInvalidTransition)
		}
	}

	if m := offer.Meetup; m != nil && !m.Status.IsTerminal() {
		now := e.now().UTC()
		m.Status = models.MeetupCancelled
		m.CancelledAt = &now
		m.CancelledBy = &actor
		m.CancellationReason = "offer cancelled"
	}

	return e.terminate(ctx, offer, actor, models.OfferCancelled, "offer_cancelled",
		"Offer cancelled.")
}

// CounterRequest carries the terms of a counter-offer.
type CounterRequest struct {
	RequestedItemID uuid.UUID
	OfferedItemIDs  []uuid.UUID
	CashAmount      float64
	Message         string
	ExpiresAt       *time.Time
}

// Counter terminalizes a pending offer with the countered status and
// creates a fresh pending offer with reversed parties. The original offer
// is never mutated in place beyond its status.
func (e *Engine) Counter(ctx context.Context, actor uuid.UUID, offerID uuid.UUID, req CounterRequest) (*models.Offer, error) {
	offer, err := e.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.Status.CanTransitionTo(models.OfferCountered) {
		return nil, fmt.Errorf("%w: cannot counter a %s offer", models.ErrInvalidTransition, offer.Status)
	}
	if actor != offer.ToUserID {
		return nil, fmt.Errorf("%w: only the offer recipient may counter", models.ErrNotAuthorized)
	}

	// The replacement is validated before the original is terminalized, so
	// bad counter terms never leave the thread with no live offer.
	replacement, err := models.NewOffer(actor, offer.FromUserID, req.RequestedItemID,
		req.OfferedItemIDs, req.CashAmount, req.Message, req.ExpiresAt)
	if err != nil {
		return nil, err
	}
	requested, err := e.validateDraft(ctx, replacement)
	if err != nil {
		return nil, err
	}

	if _, err := e.terminate(ctx, offer, actor, models.OfferCountered, "offer_countered",
		"Offer countered with new terms."); err != nil {
		return nil, err
	}

	return e.publish(ctx, replacement, requested)
}

// Expire moves an offer past its deadline to expired. Time-based, so no
// actor is required.
func (e *Engine) Expire(ctx context.Context, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := e.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status == models.OfferExpired {
		return offer, e.releaseItems(ctx, offer)
	}
	if !offer.Status.CanTransitionTo(models.OfferExpired) {
		return nil, fmt.Errorf("%w: cannot expire a %s offer", models.ErrInvalidTransition, offer.Status)
	}

	if m := offer.Meetup; m != nil && !m.Status.IsTerminal() {
		now := e.now().UTC()
		m.Status = models.MeetupCancelled
		m.CancelledAt = &now
		m.CancellationReason = "offer expired"
	}

	return e.terminate(ctx, offer, uuid.Nil, models.OfferExpired, "offer_expired",
		"Offer expired.")
}

// SweepExpired expires every cached offer whose deadline has passed and
// returns how many were transitioned.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	offers, err := e.store.ListExpirableOffers(ctx, e.now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, offer := range offers {
		if _, err := e.Expire(ctx, offer.ID); err != nil {
			// A stale offer was already transitioned elsewhere; skip it.
			if err == models.ErrStaleState {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// terminate commits a transition into a terminal status, releases item
// holds, posts the system message and notifies the counterpart.
func (e *Engine) terminate(ctx context.Context, offer *models.Offer, actor uuid.UUID, target models.OfferStatus, event, message string) (*models.Offer, error) {
	prior := offer.Status
	offer.Status = target
	offer.UpdatedAt = e.now().UTC()

	if err := e.commitOffer(ctx, offer, prior); err != nil {
		current, rerr := e.resolveStale(ctx, offer.ID, target, err)
		if rerr != nil {
			return nil, rerr
		}
		return current, e.releaseItems(ctx, current)
	}

	if err := e.releaseItems(ctx, offer); err != nil {
		return nil, err
	}
	if err := e.postSystemMessage(ctx, offer, actor, models.MessageOffer, message); err != nil {
		return nil, err
	}

	counterpart := offer.ToUserID
	if actor == offer.ToUserID {
		counterpart = offer.FromUserID
	}
	e.push(counterpart, event, offer)
	return offer, nil
}

// resolveStale inspects a commit failure: if another device already landed
// the same transition the request is a duplicate and succeeds as a no-op,
// otherwise the stale-state condition propagates for the caller to refresh.
func (e *Engine) resolveStale(ctx context.Context, offerID uuid.UUID, target models.OfferStatus, commitErr error) (*models.Offer, error) {
	if commitErr != models.ErrStaleState {
		return nil, commitErr
	}
	current, err := e.loadOffer(ctx, offerID)
	if err != nil {
		return nil, commitErr
	}
	if current.Status == target {
		return current, nil
	}
	return nil, models.ErrStaleState
}
