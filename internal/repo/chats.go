package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/cache"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/syncer"
)

// ChatRepo manages conversations and messages.
type ChatRepo struct {
	store    *cache.Store
	chats    *syncer.Coordinator[*models.Chat]
	messages *syncer.Coordinator[*models.ChatMessage]
	notify   Notifier
	now      func() time.Time
}

// Notifier mirrors the lifecycle notifier so new-message events reach
// online devices.
type Notifier interface {
	Push(userID uuid.UUID, event string, payload any)
}

type noopNotifier struct{}

func (noopNotifier) Push(uuid.UUID, string, any) {}

// NewChatRepo creates a chat repository. A nil notifier disables pushes.
func NewChatRepo(store *cache.Store, set *syncer.Set, notifier Notifier) *ChatRepo {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ChatRepo{
		store:    store,
		chats:    set.Chats,
		messages: set.Messages,
		notify:   notifier,
		now:      time.Now,
	}
}

// ListForUser returns the actor's conversations, most recent first.
func (r *ChatRepo) ListForUser(ctx context.Context, actor uuid.UUID) ([]*models.Chat, error) {
	return r.store.ListChatsByUser(ctx, actor)
}

// Messages returns a conversation's messages in timestamp order.
func (r *ChatRepo) Messages(ctx context.Context, actor uuid.UUID, chatID uuid.UUID) ([]*models.ChatMessage, error) {
	chat, err := r.getParticipantChat(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}
	return r.store.ListMessages(ctx, chat.ID)
}

// Send appends a message to a conversation the actor belongs to.
func (r *ChatRepo) Send(ctx context.Context, actor uuid.UUID, chatID uuid.UUID, content string, msgType models.MessageType) (*models.ChatMessage, error) {
	if content == "" {
		return nil, fmt.Errorf("message content is required")
	}
	if msgType == "" {
		msgType = models.MessageText
	}

	chat, err := r.getParticipantChat(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}

	receiver := chat.OtherParticipant(actor)
	now := r.now().UTC()
	msg := &models.ChatMessage{
		ID:         uuid.New(),
		ChatID:     chat.ID,
		SenderID:   actor,
		ReceiverID: receiver,
		Content:    content,
		Timestamp:  now,
		Type:       msgType,
	}
	if _, err := r.messages.WriteThrough(ctx, msg); err != nil {
		return nil, err
	}

	chat.LastMessage = content
	lastAt := now
	chat.LastMessageAt = &lastAt
	if chat.UnreadCounts == nil {
		chat.UnreadCounts = make(map[string]int)
	}
	if receiver != uuid.Nil {
		chat.UnreadCounts[receiver.String()]++
	}
	if _, err := r.chats.WriteThrough(ctx, chat); err != nil {
		return nil, err
	}

	r.notify.Push(receiver, "new_message", map[string]any{
		"chat_id":    chat.ID.String(),
		"message_id": msg.ID.String(),
		"sender_id":  actor.String(),
	})
	return msg, nil
}

// MarkRead clears the actor's unread counter and flags their received
// messages as read. Returns how many messages were flipped.
func (r *ChatRepo) MarkRead(ctx context.Context, actor uuid.UUID, chatID uuid.UUID) (int, error) {
	chat, err := r.getParticipantChat(ctx, actor, chatID)
	if err != nil {
		return 0, err
	}

	count, err := r.store.MarkMessagesRead(ctx, chat.ID, actor)
	if err != nil {
		return 0, err
	}

	if chat.UnreadCounts[actor.String()] != 0 {
		chat.UnreadCounts[actor.String()] = 0
		if _, err := r.chats.WriteThrough(ctx, chat); err != nil {
			return count, err
		}
	}

	sender := chat.OtherParticipant(actor)
	if count > 0 && sender != uuid.Nil {
		r.notify.Push(sender, "message_read", map[string]any{
			"chat_id": chat.ID.String(),
			"count":   count,
		})
	}
	return count, nil
}

func (r *ChatRepo) getParticipantChat(ctx context.Context, actor uuid.UUID, chatID uuid.UUID) (*models.Chat, error) {
	chat, err := r.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, fmt.Errorf("chat %s: %w", chatID, models.ErrNotFound)
	}
	if !chat.HasParticipant(actor) {
		return nil, fmt.Errorf("chat %s: %w", chatID, models.ErrNotAuthorized)
	}
	return chat, nil
}
