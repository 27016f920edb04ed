// Package accrual turns a completed offer into its permanent consequences:
// one immutable trade history record, and trade score / carbon savings
// increments on both participants.
package accrual

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/cache"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/syncer"
)

// Scorer computes the reputation earned by a completed trade. The exact
// formula is a product decision, so it stays pluggable.
type Scorer interface {
	Score(items []*models.Item) (carbonKg float64, points int)
}

// CategoryScorer is the default scorer: a flat per-item score plus a
// per-category carbon weight reflecting the footprint of buying new.
type CategoryScorer struct{}

var carbonByCategory = map[models.ItemCategory]float64{
	models.CategoryElectronics: 25.0,
	models.CategoryFurniture:   18.0,
	models.CategoryClothing:    8.0,
	models.CategorySports:      6.0,
	models.CategoryTools:       5.5,
	models.CategoryToys:        4.0,
	models.CategoryBooks:       2.5,
	models.CategoryOther:       3.0,
}

const pointsPerItem = 25

// Score returns the carbon saved and trade score for the traded items.
func (CategoryScorer) Score(items []*models.Item) (float64, int) {
	var carbon float64
	for _, item := range items {
		weight, ok := carbonByCategory[item.Category]
		if !ok {
			weight = carbonByCategory[models.CategoryOther]
		}
		carbon += weight
	}
	return carbon, pointsPerItem * len(items)
}

// Accruer creates trade history records and applies reputation increments.
type Accruer struct {
	store   *cache.Store
	history *syncer.Coordinator[*models.TradeHistory]
	users   *syncer.Coordinator[*models.User]
	items   *syncer.Coordinator[*models.Item]
	scorer  Scorer
	now     func() time.Time
}

// New creates an accruer. A nil scorer falls back to CategoryScorer.
func New(store *cache.Store, set *syncer.Set, scorer Scorer) *Accruer {
	if scorer == nil {
		scorer = CategoryScorer{}
	}
	return &Accruer{
		store:   store,
		history: set.History,
		users:   set.Users,
		items:   set.Items,
		scorer:  scorer,
		now:     time.Now,
	}
}

// Accrue records the completed trade exactly once. If a history record for
// the offer already exists the call is a no-op returning the existing
// record, so duplicate completion events never double-count.
func (a *Accruer) Accrue(ctx context.Context, offer *models.Offer) (*models.TradeHistory, error) {
	existing, err := a.store.GetHistoryByOffer(ctx, offer.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	// Snapshot the traded items by name and image now, so later edits or
	// deletions can't corrupt the record.
	var snapshots []models.TradedItem
	var items []*models.Item
	for _, itemID := range offer.ItemIDs() {
		item, err := a.store.GetItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			log.Printf("accrual: traded item %s missing from cache, snapshot limited to id", itemID)
			snapshots = append(snapshots, models.TradedItem{ItemID: itemID})
			continue
		}
		snapshot := models.TradedItem{ItemID: item.ID, UserID: item.OwnerID, ItemName: item.Name}
		if len(item.Images) > 0 {
			snapshot.ItemImage = item.Images[0]
		}
		snapshots = append(snapshots, snapshot)
		items = append(items, item)
	}

	carbon, points := a.scorer.Score(items)

	history := &models.TradeHistory{
		ID:               uuid.New(),
		OfferID:          offer.ID,
		ParticipantIDs:   offer.Participants(),
		ItemsTraded:      snapshots,
		CompletedAt:      a.now().UTC(),
		CarbonSaved:      carbon,
		TradeScoreEarned: points,
	}
	if offer.Meetup != nil {
		history.MeetupID = offer.Meetup.ID
	}

	if _, err := a.history.WriteThrough(ctx, history); err != nil {
		return nil, fmt.Errorf("recording trade history: %w", err)
	}

	for _, userID := range offer.Participants() {
		if err := a.reward(ctx, userID, points, carbon); err != nil {
			return nil, err
		}
	}

	for _, item := range items {
		item.PitchCount++
		item.UpdatedAt = a.now().UTC()
		if _, err := a.items.WriteThrough(ctx, item); err != nil {
			return nil, err
		}
	}

	return history, nil
}

// reward applies a single participant's increments. Scores only grow, and
// level is always recomputed from the new score.
func (a *Accruer) reward(ctx context.Context, userID uuid.UUID, points int, carbon float64) error {
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		log.Printf("accrual: participant %s missing from cache, skipping reward", userID)
		return nil
	}

	user.TradeScore += points
	user.CarbonSaved += carbon
	user.Level = models.LevelForScore(user.TradeScore)
	user.LastActive = a.now().UTC()

	if _, err := a.users.WriteThrough(ctx, user); err != nil {
		return fmt.Errorf("updating participant %s: %w", userID, err)
	}
	return nil
}

// AttachRating adds a participant's one-time rating to a completed trade.
func (a *Accruer) AttachRating(ctx context.Context, actor uuid.UUID, offerID uuid.UUID, stars int, comment string) (*models.TradeHistory, error) {
	if stars < 1 || stars > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5 stars")
	}

	history, err := a.store.GetHistoryByOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		return nil, models.ErrNotFound
	}
	if !history.HasParticipant(actor) {
		return nil, models.ErrNotAuthorized
	}
	if history.RatedBy(actor) {
		return nil, models.ErrAlreadyRated
	}

	history.Ratings = append(history.Ratings, models.Rating{
		RaterID: actor,
		Stars:   stars,
		Comment: comment,
		RatedAt: a.now().UTC(),
	})

	if _, err := a.history.WriteThrough(ctx, history); err != nil {
		return nil, fmt.Errorf("attaching rating: %w", err)
	}
	return history, nil
}
