package syncer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcycle/swapcycle-api/internal/cache"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/remote"
)

func newTestSet(t *testing.T) (*Set, *cache.Store, *remote.MemoryStore) {
	store := cache.NewTestStore(t)
	r := remote.NewMemoryStore()
	return NewSet(store, r), store, r
}

func testItem(owner uuid.UUID) *models.Item {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Item{
		ID:          uuid.New(),
		Name:        "Tent",
		Category:    models.CategorySports,
		Condition:   models.ConditionGood,
		OwnerID:     owner,
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestWriteThroughSynced(t *testing.T) {
	set, store, r := newTestSet(t)
	ctx := context.Background()

	item := testItem(uuid.New())
	outcome, err := set.Items.WriteThrough(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, outcome)

	got, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	assert.Equal(t, 1, r.Len(CollectionItems))

	pending, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestWriteThroughRemoteFailureJournals(t *testing.T) {
	set, store, r := newTestSet(t)
	ctx := context.Background()

	r.FailAll(true)

	item := testItem(uuid.New())
	outcome, err := set.Items.WriteThrough(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, OutcomePendingRemote, outcome)

	// The write is visible locally even though the remote never saw it.
	got, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Zero(t, r.Len(CollectionItems))

	ids, err := store.PendingIDs(ctx, CollectionItems)
	require.NoError(t, err)
	assert.Equal(t, []string{item.ID.String()}, ids)
}

func TestFlushReplaysJournal(t *testing.T) {
	set, store, r := newTestSet(t)
	ctx := context.Background()

	r.FailAll(true)
	item := testItem(uuid.New())
	_, err := set.Items.WriteThrough(ctx, item)
	require.NoError(t, err)

	// Still unreachable: the entry stays journaled.
	flushed, err := set.Items.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, flushed)

	r.FailAll(false)
	flushed, err = set.Items.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, flushed)
	assert.Equal(t, 1, r.Len(CollectionItems))

	pending, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestDeleteThroughRemovesRemoteCopy(t *testing.T) {
	set, store, r := newTestSet(t)
	ctx := context.Background()

	item := testItem(uuid.New())
	_, err := set.Items.WriteThrough(ctx, item)
	require.NoError(t, err)

	outcome, err := set.Items.DeleteThrough(ctx, item.ID.String())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, outcome)
	assert.Zero(t, r.Len(CollectionItems))

	// A full pass has nothing left to pull the listing back from.
	_, err = set.Items.FullSync(ctx)
	require.NoError(t, err)

	got, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteThroughDuringOutage(t *testing.T) {
	set, store, r := newTestSet(t)
	ctx := context.Background()

	item := testItem(uuid.New())
	_, err := set.Items.WriteThrough(ctx, item)
	require.NoError(t, err)

	r.FailAll(true)
	outcome, err := set.Items.DeleteThrough(ctx, item.ID.String())
	require.NoError(t, err)
	assert.Equal(t, OutcomePendingRemote, outcome)

	ids, err := store.PendingIDs(ctx, CollectionItems)
	require.NoError(t, err)
	assert.Equal(t, []string{item.ID.String()}, ids)

	// The remote recovers before the flush; the journaled deletion keeps
	// the stale remote document from resurrecting the listing.
	r.FailAll(false)
	_, err = set.Items.FullSync(ctx)
	require.NoError(t, err)
	got, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	flushed, err := set.Items.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, flushed)
	assert.Zero(t, r.Len(CollectionItems))

	pending, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestCleanupAllRemovesOrphanedDocuments(t *testing.T) {
	set, _, r := newTestSet(t)
	ctx := context.Background()

	offerID := uuid.New()
	require.NoError(t, r.Set(ctx, CollectionOffers, offerID.String(), []byte(`{"status":"pending"}`)))

	linked := &models.Chat{ID: uuid.New(), OfferID: &offerID, IsActive: true}
	goneOffer := uuid.New()
	orphan := &models.Chat{ID: uuid.New(), OfferID: &goneOffer, IsActive: true}
	unlinked := &models.Chat{ID: uuid.New(), IsActive: true}

	for _, chat := range []*models.Chat{linked, orphan, unlinked} {
		doc, err := json.Marshal(chat)
		require.NoError(t, err)
		require.NoError(t, r.Set(ctx, CollectionChats, chat.ID.String(), doc))
	}

	removed, err := set.CleanupAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, r.Len(CollectionChats))

	_, err = r.Get(ctx, CollectionChats, orphan.ID.String())
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestReadThroughServesCacheOnRemoteFailure(t *testing.T) {
	set, store, r := newTestSet(t)
	ctx := context.Background()

	item := testItem(uuid.New())
	require.NoError(t, store.UpsertItem(ctx, item))

	r.FailAll(true)

	items, err := set.Items.ReadThrough(ctx, remote.All(), store.ListItems)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
}

func TestReadThroughRefreshesCache(t *testing.T) {
	set, store, r := newTestSet(t)
	ctx := context.Background()

	item := testItem(uuid.New())
	doc, err := json.Marshal(item)
	require.NoError(t, err)
	require.NoError(t, r.Set(ctx, CollectionItems, item.ID.String(), doc))

	items, err := set.Items.ReadThrough(ctx, remote.All(), store.ListItems)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)

	// The pulled copy is now cached.
	got, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestFullSyncPullsAndPushes(t *testing.T) {
	set, store, r := newTestSet(t)
	ctx := context.Background()

	remoteOnly := testItem(uuid.New())
	doc, err := json.Marshal(remoteOnly)
	require.NoError(t, err)
	require.NoError(t, r.Set(ctx, CollectionItems, remoteOnly.ID.String(), doc))

	localOnly := testItem(uuid.New())
	require.NoError(t, store.UpsertItem(ctx, localOnly))

	report, err := set.Items.FullSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pulled)
	// Both the pulled and the local entity are pushed back out.
	assert.Equal(t, 2, report.Pushed)
	assert.Zero(t, report.Failed)

	assert.Equal(t, 2, r.Len(CollectionItems))

	got, err := store.GetItem(ctx, remoteOnly.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestFullSyncReportsFailures(t *testing.T) {
	set, store, r := newTestSet(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertItem(ctx, testItem(uuid.New())))

	// The pull succeeds on the empty collection, every push fails.
	r.FailNext(0)
	r.FailAll(false)
	report, err := set.Items.FullSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pushed)

	require.NoError(t, store.UpsertItem(ctx, testItem(uuid.New())))
	r.FailNext(3)
	_, err = set.Items.FullSync(ctx)
	assert.Error(t, err)
}

func TestSyncAllCoversEveryCollection(t *testing.T) {
	set, store, _ := newTestSet(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertItem(ctx, testItem(uuid.New())))

	reports, err := set.SyncAll(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 6)
	assert.Equal(t, 1, reports[CollectionItems].Pushed)
}

func TestIsGuardFailure(t *testing.T) {
	assert.True(t, IsGuardFailure(remote.ErrGuardFailed))
	assert.False(t, IsGuardFailure(remote.ErrNotFound))
	assert.False(t, IsGuardFailure(nil))
}
