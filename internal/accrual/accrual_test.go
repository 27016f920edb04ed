package accrual

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcycle/swapcycle-api/internal/cache"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/remote"
	"github.com/swapcycle/swapcycle-api/internal/syncer"
)

func newAccruer(t *testing.T) (*Accruer, *cache.Store) {
	t.Helper()
	store := cache.NewTestStore(t)
	set := syncer.NewSet(store, remote.NewMemoryStore())
	return New(store, set, nil), store
}

func seedUser(t *testing.T, store *cache.Store, score int) *models.User {
	t.Helper()
	user := &models.User{
		ID:         uuid.New(),
		Name:       "Trader",
		TradeScore: score,
		Level:      models.LevelForScore(score),
	}
	require.NoError(t, store.UpsertUser(context.Background(), user))
	return user
}

func seedItem(t *testing.T, store *cache.Store, owner uuid.UUID, category models.ItemCategory) *models.Item {
	t.Helper()
	item := &models.Item{
		ID:       uuid.New(),
		Name:     "Thing",
		Images:   []string{"https://cdn.example/thing.jpg"},
		Category: category,
		OwnerID:  owner,
	}
	require.NoError(t, store.UpsertItem(context.Background(), item))
	return item
}

func completedOffer(from, to *models.User, requested *models.Item, offered ...*models.Item) *models.Offer {
	offer := &models.Offer{
		ID:              uuid.New(),
		FromUserID:      from.ID,
		ToUserID:        to.ID,
		RequestedItemID: requested.ID,
		Status:          models.OfferCompleted,
		Meetup: &models.Meetup{
			ID:     uuid.New(),
			Status: models.MeetupCompleted,
		},
	}
	for _, item := range offered {
		offer.OfferedItemIDs = append(offer.OfferedItemIDs, item.ID)
	}
	return offer
}

func TestAccrueRewardsBothParticipants(t *testing.T) {
	a, store := newAccruer(t)
	ctx := context.Background()

	alice := seedUser(t, store, 0)
	bob := seedUser(t, store, 75)
	requested := seedItem(t, store, bob.ID, models.CategoryFurniture)
	offered := seedItem(t, store, alice.ID, models.CategoryClothing)

	offer := completedOffer(alice, bob, requested, offered)
	history, err := a.Accrue(ctx, offer)
	require.NoError(t, err)

	// Furniture plus clothing at the category carbon weights.
	assert.InDelta(t, 26.0, history.CarbonSaved, 1e-9)
	assert.Equal(t, 50, history.TradeScoreEarned)
	assert.Equal(t, offer.Meetup.ID, history.MeetupID)
	require.Len(t, history.ItemsTraded, 2)
	assert.Equal(t, requested.Name, history.ItemsTraded[0].ItemName)
	assert.Equal(t, requested.Images[0], history.ItemsTraded[0].ItemImage)

	aliceNow, err := store.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, aliceNow.TradeScore)
	assert.Equal(t, 1, aliceNow.Level)

	// Bob's reward pushes him over the first level threshold.
	bobNow, err := store.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 125, bobNow.TradeScore)
	assert.Equal(t, 2, bobNow.Level)
}

func TestAccrueIsExactlyOnce(t *testing.T) {
	a, store := newAccruer(t)
	ctx := context.Background()

	alice := seedUser(t, store, 0)
	bob := seedUser(t, store, 0)
	requested := seedItem(t, store, bob.ID, models.CategoryBooks)

	offer := completedOffer(alice, bob, requested)

	first, err := a.Accrue(ctx, offer)
	require.NoError(t, err)

	second, err := a.Accrue(ctx, offer)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	user, err := store.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, first.TradeScoreEarned, user.TradeScore)

	item, err := store.GetItem(ctx, requested.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, item.PitchCount)
}

func TestAccrueDegradesOnMissingItem(t *testing.T) {
	a, store := newAccruer(t)
	ctx := context.Background()

	alice := seedUser(t, store, 0)
	bob := seedUser(t, store, 0)
	requested := seedItem(t, store, bob.ID, models.CategoryTools)

	offer := completedOffer(alice, bob, requested)
	ghost := uuid.New()
	offer.OfferedItemIDs = []uuid.UUID{ghost}

	history, err := a.Accrue(ctx, offer)
	require.NoError(t, err)

	// The missing item is recorded by id only and earns nothing.
	require.Len(t, history.ItemsTraded, 2)
	assert.Equal(t, ghost, history.ItemsTraded[1].ItemID)
	assert.Empty(t, history.ItemsTraded[1].ItemName)
	assert.InDelta(t, 5.5, history.CarbonSaved, 1e-9)
	assert.Equal(t, 25, history.TradeScoreEarned)
}

func TestCategoryScorer(t *testing.T) {
	scorer := CategoryScorer{}

	carbon, points := scorer.Score([]*models.Item{
		{Category: models.CategoryElectronics},
		{Category: models.CategoryBooks},
	})
	assert.InDelta(t, 27.5, carbon, 1e-9)
	assert.Equal(t, 50, points)

	// Unknown categories fall back to the "other" weight.
	carbon, points = scorer.Score([]*models.Item{{Category: "vehicles"}})
	assert.InDelta(t, 3.0, carbon, 1e-9)
	assert.Equal(t, 25, points)

	carbon, points = scorer.Score(nil)
	assert.Zero(t, carbon)
	assert.Zero(t, points)
}

func TestAttachRating(t *testing.T) {
	a, store := newAccruer(t)
	ctx := context.Background()

	alice := seedUser(t, store, 0)
	bob := seedUser(t, store, 0)
	requested := seedItem(t, store, bob.ID, models.CategoryToys)

	offer := completedOffer(alice, bob, requested)
	_, err := a.Accrue(ctx, offer)
	require.NoError(t, err)

	_, err = a.AttachRating(ctx, alice.ID, offer.ID, 0, "")
	assert.Error(t, err)
	_, err = a.AttachRating(ctx, alice.ID, offer.ID, 6, "")
	assert.Error(t, err)

	_, err = a.AttachRating(ctx, uuid.New(), offer.ID, 4, "")
	assert.ErrorIs(t, err, models.ErrNotAuthorized)

	history, err := a.AttachRating(ctx, alice.ID, offer.ID, 5, "smooth trade")
	require.NoError(t, err)
	require.Len(t, history.Ratings, 1)
	assert.Equal(t, alice.ID, history.Ratings[0].RaterID)
	assert.Equal(t, 5, history.Ratings[0].Stars)

	// A second rating by the same participant is rejected.
	_, err = a.AttachRating(ctx, alice.ID, offer.ID, 3, "")
	assert.ErrorIs(t, err, models.ErrAlreadyRated)

	// The counterpart still gets their one rating.
	history, err = a.AttachRating(ctx, bob.ID, offer.ID, 4, "")
	require.NoError(t, err)
	assert.Len(t, history.Ratings, 2)
}

func TestAttachRatingRequiresHistory(t *testing.T) {
	a, _ := newAccruer(t)

	_, err := a.AttachRating(context.Background(), uuid.New(), uuid.New(), 4, "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
