package lifecycle

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcycle/swapcycle-api/internal/accrual"
	"github.com/swapcycle/swapcycle-api/internal/cache"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/remote"
	"github.com/swapcycle/swapcycle-api/internal/syncer"
)

type fixture struct {
	engine *Engine
	store  *cache.Store
	remote *remote.MemoryStore
	set    *syncer.Set

	alice *models.User
	bob   *models.User

	// bobsItem is what alice requests, alicesItem is what she offers.
	bobsItem   *models.Item
	alicesItem *models.Item
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := cache.NewTestStore(t)
	r := remote.NewMemoryStore()
	set := syncer.NewSet(store, r)
	engine := New(store, set, r, accrual.New(store, set, nil), nil)

	f := &fixture{
		engine: engine,
		store:  store,
		remote: r,
		set:    set,
		alice:  seedUser(t, store, "Alice"),
		bob:    seedUser(t, store, "Bob"),
	}
	f.bobsItem = seedItem(t, store, f.bob.ID, models.CategoryElectronics)
	f.alicesItem = seedItem(t, store, f.alice.ID, models.CategoryBooks)
	return f
}

func seedUser(t *testing.T, store *cache.Store, name string) *models.User {
	t.Helper()
	user := &models.User{
		ID:         uuid.New(),
		Name:       name,
		Level:      1,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		LastActive: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.UpsertUser(context.Background(), user))
	return user
}

func seedItem(t *testing.T, store *cache.Store, owner uuid.UUID, category models.ItemCategory) *models.Item {
	t.Helper()
	item := &models.Item{
		ID:          uuid.New(),
		Name:        "Listing " + uuid.NewString()[:8],
		Category:    category,
		Condition:   models.ConditionGood,
		OwnerID:     owner,
		IsAvailable: true,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		UpdatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.UpsertItem(context.Background(), item))
	return item
}

// createOffer proposes alice's item for bob's item.
func createOffer(t *testing.T, f *fixture) *models.Offer {
	t.Helper()
	offer, err := f.engine.Create(context.Background(), f.alice.ID, CreateRequest{
		ToUserID:        f.bob.ID,
		RequestedItemID: f.bobsItem.ID,
		OfferedItemIDs:  []uuid.UUID{f.alicesItem.ID},
		Message:         "trade?",
	})
	require.NoError(t, err)
	return offer
}

func itemAvailable(t *testing.T, f *fixture, id uuid.UUID) bool {
	t.Helper()
	item, err := f.store.GetItem(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, item)
	return item.IsAvailable
}

func offerStatus(t *testing.T, f *fixture, id uuid.UUID) models.OfferStatus {
	t.Helper()
	offer, err := f.store.GetOffer(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, offer)
	return offer.Status
}

// seedRemoteOffer plants a divergent copy of the offer on the remote, as if
// another device had transitioned it first.
func seedRemoteOffer(t *testing.T, f *fixture, offer *models.Offer, status models.OfferStatus) {
	t.Helper()
	divergent := *offer
	divergent.Status = status
	doc, err := json.Marshal(&divergent)
	require.NoError(t, err)
	require.NoError(t, f.remote.Set(context.Background(), syncer.CollectionOffers, offer.ID.String(), doc))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Create(ctx, uuid.Nil, CreateRequest{
		ToUserID:        f.bob.ID,
		RequestedItemID: f.bobsItem.ID,
		CashAmount:      10,
	})
	assert.ErrorIs(t, err, models.ErrNoActor)

	// No consideration at all.
	_, err = f.engine.Create(ctx, f.alice.ID, CreateRequest{
		ToUserID:        f.bob.ID,
		RequestedItemID: f.bobsItem.ID,
	})
	assert.ErrorIs(t, err, models.ErrInvalidOffer)

	// Requesting your own listing.
	_, err = f.engine.Create(ctx, f.bob.ID, CreateRequest{
		ToUserID:        f.bob.ID,
		RequestedItemID: f.bobsItem.ID,
		CashAmount:      10,
	})
	assert.ErrorIs(t, err, models.ErrInvalidOffer)

	// The requested item must belong to the recipient.
	_, err = f.engine.Create(ctx, f.alice.ID, CreateRequest{
		ToUserID:        f.bob.ID,
		RequestedItemID: f.alicesItem.ID,
		CashAmount:      10,
	})
	assert.ErrorIs(t, err, models.ErrInvalidOffer)

	// Offering someone else's item.
	carolsItem := seedItem(t, f.store, uuid.New(), models.CategoryToys)
	_, err = f.engine.Create(ctx, f.alice.ID, CreateRequest{
		ToUserID:        f.bob.ID,
		RequestedItemID: f.bobsItem.ID,
		OfferedItemIDs:  []uuid.UUID{carolsItem.ID},
	})
	assert.ErrorIs(t, err, models.ErrNotAuthorized)

	// Requesting an item already held by another trade.
	f.bobsItem.IsAvailable = false
	require.NoError(t, f.store.UpsertItem(ctx, f.bobsItem))
	_, err = f.engine.Create(ctx, f.alice.ID, CreateRequest{
		ToUserID:        f.bob.ID,
		RequestedItemID: f.bobsItem.ID,
		CashAmount:      10,
	})
	assert.ErrorIs(t, err, models.ErrItemsUnavailable)
}

func TestCreateOpensChatAndSyncsRemote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)
	assert.Equal(t, models.OfferPending, offer.Status)

	// A pending offer holds nothing.
	assert.True(t, itemAvailable(t, f, f.bobsItem.ID))
	assert.True(t, itemAvailable(t, f, f.alicesItem.ID))

	chat, err := f.store.GetChatByOffer(ctx, offer.ID)
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.ElementsMatch(t, offer.Participants(), chat.ParticipantIDs)

	messages, err := f.store.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.MessageOffer, messages[0].Type)

	assert.Equal(t, 1, f.remote.Len(syncer.CollectionOffers))
}

func TestTradeHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)

	offer, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, offer.Status)
	require.NotNil(t, offer.Meetup)
	assert.Equal(t, models.MeetupScheduled, offer.Meetup.Status)

	// Accepting holds every involved item.
	assert.False(t, itemAvailable(t, f, f.bobsItem.ID))
	assert.False(t, itemAvailable(t, f, f.alicesItem.ID))

	_, err = f.engine.ScheduleMeetup(ctx, f.alice.ID, offer.ID, ScheduleRequest{
		Location:    &models.Location{Name: "Central Station", Latitude: 52.52, Longitude: 13.40},
		ScheduledAt: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	_, err = f.engine.ConfirmMeetup(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)
	_, err = f.engine.StartMeetup(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)

	offer, err = f.engine.CompleteMeetup(ctx, f.alice.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferCompleted, offer.Status)
	assert.Equal(t, models.MeetupCompleted, offer.Meetup.Status)
	require.NotNil(t, offer.Meetup.CompletedAt)

	// Traded items stay off the market.
	assert.False(t, itemAvailable(t, f, f.bobsItem.ID))
	assert.False(t, itemAvailable(t, f, f.alicesItem.ID))

	history, err := f.store.GetHistoryByOffer(ctx, offer.ID)
	require.NoError(t, err)
	require.NotNil(t, history)
	assert.Len(t, history.ItemsTraded, 2)
	assert.Equal(t, offer.Meetup.ID, history.MeetupID)
	// Electronics plus books at the category carbon weights.
	assert.InDelta(t, 27.5, history.CarbonSaved, 1e-9)
	assert.Equal(t, 50, history.TradeScoreEarned)

	for _, id := range []uuid.UUID{f.alice.ID, f.bob.ID} {
		user, err := f.store.GetUser(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 50, user.TradeScore)
		assert.InDelta(t, 27.5, user.CarbonSaved, 1e-9)
		assert.Equal(t, models.LevelForScore(50), user.Level)
	}

	for _, id := range []uuid.UUID{f.bobsItem.ID, f.alicesItem.ID} {
		item, err := f.store.GetItem(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, item.PitchCount)
	}
}

func TestAcceptIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)

	first, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)

	second, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, second.Status)
	assert.Equal(t, first.Meetup.ID, second.Meetup.ID)
}

func TestAcceptAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)

	_, err := f.engine.Accept(ctx, f.alice.ID, offer.ID)
	assert.ErrorIs(t, err, models.ErrNotAuthorized)

	_, err = f.engine.Reject(ctx, f.alice.ID, offer.ID)
	assert.ErrorIs(t, err, models.ErrNotAuthorized)

	// Only the initiator may withdraw a pending offer.
	_, err = f.engine.Cancel(ctx, f.bob.ID, offer.ID)
	assert.ErrorIs(t, err, models.ErrNotAuthorized)

	assert.Equal(t, models.OfferPending, offerStatus(t, f, offer.ID))
}

func TestAcceptUnavailableItemLeavesOfferPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)

	// The offered item got traded away elsewhere in the meantime.
	f.alicesItem.IsAvailable = false
	require.NoError(t, f.store.UpsertItem(ctx, f.alicesItem))

	_, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	assert.ErrorIs(t, err, models.ErrItemsUnavailable)

	// The offer stays pending so the initiator can amend it.
	assert.Equal(t, models.OfferPending, offerStatus(t, f, offer.ID))
}

func TestAcceptExpiredOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	offer, err := f.engine.Create(ctx, f.alice.ID, CreateRequest{
		ToUserID:        f.bob.ID,
		RequestedItemID: f.bobsItem.ID,
		CashAmount:      15,
		ExpiresAt:       &past,
	})
	require.NoError(t, err)

	_, err = f.engine.Accept(ctx, f.bob.ID, offer.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, models.OfferExpired, offerStatus(t, f, offer.ID))
}

func TestAcceptAgainstForeignTransitionIsStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)

	// Another device already cancelled the offer on the remote.
	seedRemoteOffer(t, f, offer, models.OfferCancelled)

	_, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	assert.ErrorIs(t, err, models.ErrStaleState)

	// The guard failure refreshed the cache with the winning state.
	assert.Equal(t, models.OfferCancelled, offerStatus(t, f, offer.ID))
}

func TestAcceptDuplicateFromOtherDeviceIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)

	// Another device already accepted; this device retries the same intent.
	seedRemoteOffer(t, f, offer, models.OfferAccepted)

	got, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, got.Status)
}

func TestAcceptDuringRemoteOutage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)

	f.remote.FailAll(true)

	got, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, got.Status)

	// The transition landed locally and the divergence is journaled.
	ids, err := f.store.PendingIDs(ctx, syncer.CollectionOffers)
	require.NoError(t, err)
	assert.Contains(t, ids, offer.ID.String())

	f.remote.FailAll(false)
	flushed, err := f.set.FlushAll(ctx)
	require.NoError(t, err)
	assert.Positive(t, flushed)

	doc, err := f.remote.Get(ctx, syncer.CollectionOffers, offer.ID.String())
	require.NoError(t, err)
	var synced models.Offer
	require.NoError(t, json.Unmarshal(doc, &synced))
	assert.Equal(t, models.OfferAccepted, synced.Status)
}

func TestCancelAcceptedReleasesHolds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)
	_, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)
	require.False(t, itemAvailable(t, f, f.bobsItem.ID))

	got, err := f.engine.Cancel(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferCancelled, got.Status)
	require.NotNil(t, got.Meetup)
	assert.Equal(t, models.MeetupCancelled, got.Meetup.Status)

	assert.True(t, itemAvailable(t, f, f.bobsItem.ID))
	assert.True(t, itemAvailable(t, f, f.alicesItem.ID))
}

func TestReleaseSkipsItemsHeldByAnotherTrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)
	_, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)

	// A second accepted trade also holds bob's item.
	carol := seedUser(t, f.store, "Carol")
	rival, err := models.NewOffer(carol.ID, f.bob.ID, f.bobsItem.ID, nil, 30, "", nil)
	require.NoError(t, err)
	rival.Status = models.OfferAccepted
	require.NoError(t, f.store.UpsertOffer(ctx, rival))

	_, err = f.engine.Cancel(ctx, f.alice.ID, offer.ID)
	require.NoError(t, err)

	// Bob's item stays held by the rival trade, alice's is freed.
	assert.False(t, itemAvailable(t, f, f.bobsItem.ID))
	assert.True(t, itemAvailable(t, f, f.alicesItem.ID))
}

func TestCancelBlockedOnceMeetupUnderway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)
	_, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)
	_, err = f.engine.ScheduleMeetup(ctx, f.bob.ID, offer.ID, ScheduleRequest{
		ScheduledAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = f.engine.ConfirmMeetup(ctx, f.alice.ID, offer.ID)
	require.NoError(t, err)
	_, err = f.engine.StartMeetup(ctx, f.alice.ID, offer.ID)
	require.NoError(t, err)

	_, err = f.engine.Cancel(ctx, f.bob.ID, offer.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, models.OfferAccepted, offerStatus(t, f, offer.ID))
}

func TestCounterCreatesReversedOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)

	counter, err := f.engine.Counter(ctx, f.bob.ID, offer.ID, CounterRequest{
		RequestedItemID: f.alicesItem.ID,
		OfferedItemIDs:  []uuid.UUID{f.bobsItem.ID},
		Message:         "throw in the charger",
	})
	require.NoError(t, err)

	assert.Equal(t, models.OfferCountered, offerStatus(t, f, offer.ID))

	assert.Equal(t, models.OfferPending, counter.Status)
	assert.Equal(t, f.bob.ID, counter.FromUserID)
	assert.Equal(t, f.alice.ID, counter.ToUserID)
	assert.Equal(t, f.alicesItem.ID, counter.RequestedItemID)
	assert.NotEqual(t, offer.ID, counter.ID)

	// Counter-offers hold nothing until accepted.
	assert.True(t, itemAvailable(t, f, f.bobsItem.ID))
	assert.True(t, itemAvailable(t, f, f.alicesItem.ID))
}

func TestCounterOnlyByRecipient(t *testing.T) {
	f := newFixture(t)

	offer := createOffer(t, f)

	_, err := f.engine.Counter(context.Background(), f.alice.ID, offer.ID, CounterRequest{
		RequestedItemID: f.alicesItem.ID,
		CashAmount:      5,
	})
	assert.ErrorIs(t, err, models.ErrNotAuthorized)
}

func TestSweepExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t0 := time.Now().UTC()
	deadline := t0.Add(time.Hour)

	expiring, err := f.engine.Create(ctx, f.alice.ID, CreateRequest{
		ToUserID:        f.bob.ID,
		RequestedItemID: f.bobsItem.ID,
		CashAmount:      10,
		ExpiresAt:       &deadline,
	})
	require.NoError(t, err)

	open, err := f.engine.Create(ctx, f.alice.ID, CreateRequest{
		ToUserID:        f.bob.ID,
		RequestedItemID: f.bobsItem.ID,
		CashAmount:      20,
	})
	require.NoError(t, err)

	f.engine.SetClock(func() time.Time { return t0.Add(2 * time.Hour) })

	n, err := f.engine.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, models.OfferExpired, offerStatus(t, f, expiring.ID))
	assert.Equal(t, models.OfferPending, offerStatus(t, f, open.ID))
}

func TestMeetupRescheduleAfterNoShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)
	_, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)
	scheduled, err := f.engine.ScheduleMeetup(ctx, f.bob.ID, offer.ID, ScheduleRequest{
		ScheduledAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	firstMeetupID := scheduled.Meetup.ID

	got, err := f.engine.NoShowMeetup(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, got.Status)
	assert.Equal(t, models.MeetupNoShow, got.Meetup.Status)
	require.NotNil(t, got.Meetup.CancelledBy)
	assert.Equal(t, f.bob.ID, *got.Meetup.CancelledBy)

	// Rescheduling after a no-show starts a fresh meetup.
	rescheduled, err := f.engine.ScheduleMeetup(ctx, f.alice.ID, offer.ID, ScheduleRequest{
		ScheduledAt: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.MeetupScheduled, rescheduled.Meetup.Status)
	assert.NotEqual(t, firstMeetupID, rescheduled.Meetup.ID)
}

func TestMeetupRequiresParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)
	_, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)

	carol := seedUser(t, f.store, "Carol")
	_, err = f.engine.CompleteMeetup(ctx, carol.ID, offer.ID)
	assert.ErrorIs(t, err, models.ErrNotAuthorized)
}

func TestCompleteMeetupIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)
	_, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)
	_, err = f.engine.ConfirmMeetup(ctx, f.alice.ID, offer.ID)
	require.NoError(t, err)

	first, err := f.engine.CompleteMeetup(ctx, f.alice.ID, offer.ID)
	require.NoError(t, err)

	history, err := f.store.GetHistoryByOffer(ctx, offer.ID)
	require.NoError(t, err)
	require.NotNil(t, history)

	second, err := f.engine.CompleteMeetup(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)

	// Scores were applied exactly once.
	user, err := f.store.GetUser(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, history.TradeScoreEarned, user.TradeScore)

	again, err := f.store.GetHistoryByOffer(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, history.ID, again.ID)
}

func TestCompleteRetryHealsMissingAccrual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)
	offer, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)

	// A crash landed the completed commit but nothing after it: no trade
	// history, no scores.
	offer.Status = models.OfferCompleted
	offer.Meetup.Status = models.MeetupCompleted
	require.NoError(t, f.store.UpsertOffer(ctx, offer))
	seedRemoteOffer(t, f, offer, models.OfferCompleted)

	got, err := f.engine.CompleteMeetup(ctx, f.alice.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferCompleted, got.Status)

	history, err := f.store.GetHistoryByOffer(ctx, offer.ID)
	require.NoError(t, err)
	require.NotNil(t, history)

	user, err := f.store.GetUser(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, history.TradeScoreEarned, user.TradeScore)

	// The retry healed exactly once; a further retry changes nothing.
	_, err = f.engine.CompleteMeetup(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)
	user, err = f.store.GetUser(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, history.TradeScoreEarned, user.TradeScore)
}

func TestAcceptRetryHealsMissingHolds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)

	// A crash landed the accepted commit before the availability flips.
	offer.Status = models.OfferAccepted
	require.NoError(t, f.store.UpsertOffer(ctx, offer))
	seedRemoteOffer(t, f, offer, models.OfferAccepted)

	_, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)

	assert.False(t, itemAvailable(t, f, f.bobsItem.ID))
	assert.False(t, itemAvailable(t, f, f.alicesItem.ID))
}

func TestCounterInvalidTermsLeavesOriginalPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offer := createOffer(t, f)

	// Countering for an item the trade cannot deliver must not consume
	// the original offer.
	f.alicesItem.IsAvailable = false
	require.NoError(t, f.store.UpsertItem(ctx, f.alicesItem))

	_, err := f.engine.Counter(ctx, f.bob.ID, offer.ID, CounterRequest{
		RequestedItemID: f.alicesItem.ID,
		OfferedItemIDs:  []uuid.UUID{f.bobsItem.ID},
	})
	assert.ErrorIs(t, err, models.ErrItemsUnavailable)
	assert.Equal(t, models.OfferPending, offerStatus(t, f, offer.ID))

	// Same for terms offering an item the actor does not own.
	f.alicesItem.IsAvailable = true
	require.NoError(t, f.store.UpsertItem(ctx, f.alicesItem))
	carolsItem := seedItem(t, f.store, uuid.New(), models.CategoryTools)

	_, err = f.engine.Counter(ctx, f.bob.ID, offer.ID, CounterRequest{
		RequestedItemID: f.alicesItem.ID,
		OfferedItemIDs:  []uuid.UUID{carolsItem.ID},
	})
	assert.ErrorIs(t, err, models.ErrNotAuthorized)
	assert.Equal(t, models.OfferPending, offerStatus(t, f, offer.ID))
}

// recorder captures pushes for assertions.
type recorder struct {
	events []string
	users  []uuid.UUID
}

func (r *recorder) Push(userID uuid.UUID, event string, payload any) {
	r.events = append(r.events, event)
	r.users = append(r.users, userID)
}

func TestTransitionsNotifyCounterpart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := &recorder{}
	f.engine.notify = rec

	offer := createOffer(t, f)
	_, err := f.engine.Accept(ctx, f.bob.ID, offer.ID)
	require.NoError(t, err)

	require.Len(t, rec.events, 2)
	assert.Equal(t, "offer_created", rec.events[0])
	assert.Equal(t, f.bob.ID, rec.users[0])
	assert.Equal(t, "offer_accepted", rec.events[1])
	assert.Equal(t, f.alice.ID, rec.users[1])
}
