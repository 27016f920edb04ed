package syncer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/cache"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/remote"
)

// Collection names shared by the remote store and the pending-write journal.
const (
	CollectionItems    = "items"
	CollectionOffers   = "offers"
	CollectionChats    = "chats"
	CollectionMessages = "messages"
	CollectionHistory  = "trade_history"
	CollectionUsers    = "users"
)

// Set bundles one coordinator per entity collection.
type Set struct {
	Items    *Coordinator[*models.Item]
	Offers   *Coordinator[*models.Offer]
	Chats    *Coordinator[*models.Chat]
	Messages *Coordinator[*models.ChatMessage]
	History  *Coordinator[*models.TradeHistory]
	Users    *Coordinator[*models.User]

	r remote.Store
}

// NewSet wires coordinators for every collection over the same cache and
// remote store.
func NewSet(store *cache.Store, r remote.Store) *Set {
	return &Set{
		r: r,
		Items: New(CollectionItems, r, store, Funcs[*models.Item]{
			Key:    func(i *models.Item) string { return i.ID.String() },
			Encode: marshal[*models.Item],
			Decode: unmarshal[models.Item],
			SaveLocal: func(ctx context.Context, i *models.Item) error {
				return store.UpsertItem(ctx, i)
			},
			LoadLocal: loadByID(store.GetItem),
			ListLocal: store.ListItems,
			DeleteLocal: func(ctx context.Context, id string) error {
				parsed, err := uuid.Parse(id)
				if err != nil {
					return err
				}
				return store.DeleteItem(ctx, parsed)
			},
		}),
		Offers: New(CollectionOffers, r, store, Funcs[*models.Offer]{
			Key:    func(o *models.Offer) string { return o.ID.String() },
			Encode: marshal[*models.Offer],
			Decode: unmarshal[models.Offer],
			SaveLocal: func(ctx context.Context, o *models.Offer) error {
				return store.UpsertOffer(ctx, o)
			},
			LoadLocal: loadByID(store.GetOffer),
			ListLocal: store.ListOffers,
		}),
		Chats: New(CollectionChats, r, store, Funcs[*models.Chat]{
			Key:    func(c *models.Chat) string { return c.ID.String() },
			Encode: marshal[*models.Chat],
			Decode: unmarshal[models.Chat],
			SaveLocal: func(ctx context.Context, c *models.Chat) error {
				return store.UpsertChat(ctx, c)
			},
			LoadLocal: loadByID(store.GetChat),
			ListLocal: store.ListChats,
		}),
		Messages: New(CollectionMessages, r, store, Funcs[*models.ChatMessage]{
			Key:    func(m *models.ChatMessage) string { return m.ID.String() },
			Encode: marshal[*models.ChatMessage],
			Decode: unmarshal[models.ChatMessage],
			SaveLocal: func(ctx context.Context, m *models.ChatMessage) error {
				return store.InsertMessage(ctx, m)
			},
			LoadLocal: loadByID(store.GetMessage),
			ListLocal: store.ListAllMessages,
		}),
		History: New(CollectionHistory, r, store, Funcs[*models.TradeHistory]{
			Key:    func(h *models.TradeHistory) string { return h.ID.String() },
			Encode: marshal[*models.TradeHistory],
			Decode: unmarshal[models.TradeHistory],
			SaveLocal: func(ctx context.Context, h *models.TradeHistory) error {
				return store.UpsertHistory(ctx, h)
			},
			LoadLocal: loadByID(store.GetHistory),
			ListLocal: store.ListAllHistory,
		}),
		Users: New(CollectionUsers, r, store, Funcs[*models.User]{
			Key:    func(u *models.User) string { return u.ID.String() },
			Encode: marshal[*models.User],
			Decode: unmarshal[models.User],
			SaveLocal: func(ctx context.Context, u *models.User) error {
				return store.UpsertUser(ctx, u)
			},
			LoadLocal: loadByID(store.GetUser),
			ListLocal: store.ListUsers,
		}),
	}
}

// SyncAll runs a full reconciliation pass over every collection and
// returns a per-collection report. The first error stops the pass.
func (s *Set) SyncAll(ctx context.Context) (map[string]Report, error) {
	reports := make(map[string]Report)

	run := func(name string, sync func(context.Context) (Report, error)) error {
		report, err := sync(ctx)
		reports[name] = report
		return err
	}

	if err := run(CollectionUsers, s.Users.FullSync); err != nil {
		return reports, err
	}
	if err := run(CollectionItems, s.Items.FullSync); err != nil {
		return reports, err
	}
	if err := run(CollectionOffers, s.Offers.FullSync); err != nil {
		return reports, err
	}
	if err := run(CollectionChats, s.Chats.FullSync); err != nil {
		return reports, err
	}
	if err := run(CollectionMessages, s.Messages.FullSync); err != nil {
		return reports, err
	}
	if err := run(CollectionHistory, s.History.FullSync); err != nil {
		return reports, err
	}
	return reports, nil
}

// CleanupAll removes remote documents whose owning parent document no
// longer exists: items of a vanished user, chats of a vanished offer,
// messages of a vanished chat. The local cache is untouched.
func (s *Set) CleanupAll(ctx context.Context) (int, error) {
	exists := func(collection string) func(context.Context, string) (bool, error) {
		return func(ctx context.Context, id string) (bool, error) {
			// Documents without a parent link are kept.
			if id == "" {
				return true, nil
			}
			_, err := s.r.Get(ctx, collection, id)
			if errors.Is(err, remote.ErrNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			return true, nil
		}
	}

	total := 0
	n, err := s.Items.CleanupOrphans(ctx, func(i *models.Item) string {
		return i.OwnerID.String()
	}, exists(CollectionUsers))
	total += n
	if err != nil {
		return total, err
	}

	n, err = s.Chats.CleanupOrphans(ctx, func(c *models.Chat) string {
		if c.OfferID == nil {
			return ""
		}
		return c.OfferID.String()
	}, exists(CollectionOffers))
	total += n
	if err != nil {
		return total, err
	}

	n, err = s.Messages.CleanupOrphans(ctx, func(m *models.ChatMessage) string {
		return m.ChatID.String()
	}, exists(CollectionChats))
	total += n
	return total, err
}

// FlushAll replays every journaled pending write and returns the total
// number flushed.
func (s *Set) FlushAll(ctx context.Context) (int, error) {
	total := 0
	flushers := []func(context.Context) (int, error){
		s.Users.Flush,
		s.Items.Flush,
		s.Offers.Flush,
		s.Chats.Flush,
		s.Messages.Flush,
		s.History.Flush,
	}
	for _, flush := range flushers {
		n, err := flush(ctx)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func marshal[T any](entity T) ([]byte, error) {
	return json.Marshal(entity)
}

func unmarshal[T any](doc []byte) (*T, error) {
	var entity T
	if err := json.Unmarshal(doc, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// loadByID adapts a cache getter (nil result for absence) to the
// coordinator's LoadLocal shape.
func loadByID[T any](get func(context.Context, uuid.UUID) (*T, error)) func(context.Context, string) (*T, bool, error) {
	return func(ctx context.Context, id string) (*T, bool, error) {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, false, err
		}
		entity, err := get(ctx, parsed)
		if err != nil {
			return nil, false, err
		}
		return entity, entity != nil, nil
	}
}
