package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/cache"
	"github.com/swapcycle/swapcycle-api/internal/lifecycle"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/remote"
	"github.com/swapcycle/swapcycle-api/internal/syncer"
)

// OfferRepo exposes offer reads and delegates every transition to the
// lifecycle engine.
type OfferRepo struct {
	store  *cache.Store
	offers *syncer.Coordinator[*models.Offer]
	engine *lifecycle.Engine
}

// NewOfferRepo creates an offer repository.
func NewOfferRepo(store *cache.Store, set *syncer.Set, engine *lifecycle.Engine) *OfferRepo {
	return &OfferRepo{store: store, offers: set.Offers, engine: engine}
}

// Get returns one offer the actor participates in.
func (r *OfferRepo) Get(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := r.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, fmt.Errorf("offer %s: %w", offerID, models.ErrNotFound)
	}
	if !offer.HasParticipant(actor) {
		return nil, fmt.Errorf("offer %s: %w", offerID, models.ErrNotAuthorized)
	}
	return offer, nil
}

// ListIncoming returns offers addressed to the actor, pulling newer remote
// copies into the cache first when the remote is reachable.
func (r *OfferRepo) ListIncoming(ctx context.Context, actor uuid.UUID) ([]*models.Offer, error) {
	return r.offers.ReadThrough(ctx, remote.Eq("to_user_id", actor.String()),
		func(ctx context.Context) ([]*models.Offer, error) {
			return r.listDirected(ctx, actor, true)
		})
}

// ListOutgoing returns offers the actor initiated.
func (r *OfferRepo) ListOutgoing(ctx context.Context, actor uuid.UUID) ([]*models.Offer, error) {
	return r.offers.ReadThrough(ctx, remote.Eq("from_user_id", actor.String()),
		func(ctx context.Context) ([]*models.Offer, error) {
			return r.listDirected(ctx, actor, false)
		})
}

func (r *OfferRepo) listDirected(ctx context.Context, actor uuid.UUID, incoming bool) ([]*models.Offer, error) {
	offers, err := r.store.ListOffersByUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	directed := offers[:0]
	for _, o := range offers {
		if incoming && o.ToUserID == actor {
			directed = append(directed, o)
		}
		if !incoming && o.FromUserID == actor {
			directed = append(directed, o)
		}
	}
	return directed, nil
}

// Create proposes a new offer.
func (r *OfferRepo) Create(ctx context.Context, actor uuid.UUID, req lifecycle.CreateRequest) (*models.Offer, error) {
	return r.engine.Create(ctx, actor, req)
}

// Accept accepts a pending offer.
func (r *OfferRepo) Accept(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	return r.engine.Accept(ctx, actor, offerID)
}

// Reject declines a pending offer.
func (r *OfferRepo) Reject(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	return r.engine.Reject(ctx, actor, offerID)
}

// Cancel withdraws an offer.
func (r *OfferRepo) Cancel(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	return r.engine.Cancel(ctx, actor, offerID)
}

// Counter replaces a pending offer with reversed terms.
func (r *OfferRepo) Counter(ctx context.Context, actor uuid.UUID, offerID uuid.UUID, req lifecycle.CounterRequest) (*models.Offer, error) {
	return r.engine.Counter(ctx, actor, offerID, req)
}

// ScheduleMeetup sets the exchange logistics on an accepted offer.
func (r *OfferRepo) ScheduleMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID, req lifecycle.ScheduleRequest) (*models.Offer, error) {
	return r.engine.ScheduleMeetup(ctx, actor, offerID, req)
}

// ConfirmMeetup confirms the scheduled exchange.
func (r *OfferRepo) ConfirmMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	return r.engine.ConfirmMeetup(ctx, actor, offerID)
}

// StartMeetup marks the exchange as underway.
func (r *OfferRepo) StartMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	return r.engine.StartMeetup(ctx, actor, offerID)
}

// CompleteMeetup closes the exchange and the offer.
func (r *OfferRepo) CompleteMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	return r.engine.CompleteMeetup(ctx, actor, offerID)
}

// CancelMeetup calls off the exchange while keeping the offer accepted.
func (r *OfferRepo) CancelMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID, reason string) (*models.Offer, error) {
	return r.engine.CancelMeetup(ctx, actor, offerID, reason)
}

// NoShowMeetup records a missed exchange.
func (r *OfferRepo) NoShowMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	return r.engine.NoShowMeetup(ctx, actor, offerID)
}
