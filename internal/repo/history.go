package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/accrual"
	"github.com/swapcycle/swapcycle-api/internal/cache"
	"github.com/swapcycle/swapcycle-api/internal/models"
)

// HistoryRepo reads trade history and records ratings.
type HistoryRepo struct {
	store   *cache.Store
	accruer *accrual.Accruer
}

// NewHistoryRepo creates a history repository.
func NewHistoryRepo(store *cache.Store, accruer *accrual.Accruer) *HistoryRepo {
	return &HistoryRepo{store: store, accruer: accruer}
}

// ListForUser returns the actor's completed trades, newest first.
func (r *HistoryRepo) ListForUser(ctx context.Context, actor uuid.UUID) ([]*models.TradeHistory, error) {
	return r.store.ListHistoryByUser(ctx, actor)
}

// GetByOffer returns the history record of a completed offer.
func (r *HistoryRepo) GetByOffer(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.TradeHistory, error) {
	history, err := r.store.GetHistoryByOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		return nil, fmt.Errorf("history for offer %s: %w", offerID, models.ErrNotFound)
	}
	if !history.HasParticipant(actor) {
		return nil, fmt.Errorf("history for offer %s: %w", offerID, models.ErrNotAuthorized)
	}
	return history, nil
}

// Rate attaches the actor's one-time rating to a completed trade.
func (r *HistoryRepo) Rate(ctx context.Context, actor uuid.UUID, offerID uuid.UUID, stars int, comment string) (*models.TradeHistory, error) {
	return r.accruer.AttachRating(ctx, actor, offerID, stars, comment)
}
