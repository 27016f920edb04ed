package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/models"
)

// ensureChat returns the conversation linked to the offer, creating it on
// first use.
func (e *Engine) ensureChat(ctx context.Context, offer *models.Offer) (*models.Chat, error) {
	chat, err := e.store.GetChatByOffer(ctx, offer.ID)
	if err != nil {
		return nil, err
	}
	if chat != nil {
		return chat, nil
	}

	offerID := offer.ID
	itemID := offer.RequestedItemID
	chat = &models.Chat{
		ID:             uuid.New(),
		ParticipantIDs: offer.Participants(),
		OfferID:        &offerID,
		ItemID:         &itemID,
		CreatedAt:      e.now().UTC(),
		IsActive:       true,
		UnreadCounts:   make(map[string]int),
	}
	if _, err := e.set.Chats.WriteThrough(ctx, chat); err != nil {
		return nil, fmt.Errorf("creating offer chat: %w", err)
	}
	return chat, nil
}

// postSystemMessage appends a human-readable system message summarizing a
// transition to the offer's chat and bumps the counterpart's unread count.
// The sender defaults to the offer initiator for actor-less transitions.
func (e *Engine) postSystemMessage(ctx context.Context, offer *models.Offer, actor uuid.UUID, msgType models.MessageType, text string) error {
	if actor == uuid.Nil {
		actor = offer.FromUserID
	}

	chat, err := e.ensureChat(ctx, offer)
	if err != nil {
		return err
	}

	receiver := chat.OtherParticipant(actor)
	now := e.now().UTC()

	msg := &models.ChatMessage{
		ID:         uuid.New(),
		ChatID:     chat.ID,
		SenderID:   actor,
		ReceiverID: receiver,
		Content:    text,
		Timestamp:  now,
		Type:       msgType,
	}
	if _, err := e.set.Messages.WriteThrough(ctx, msg); err != nil {
		return fmt.Errorf("posting system message: %w", err)
	}

	chat.LastMessage = text
	lastAt := now
	chat.LastMessageAt = &lastAt
	if chat.UnreadCounts == nil {
		chat.UnreadCounts = make(map[string]int)
	}
	if receiver != uuid.Nil {
		chat.UnreadCounts[receiver.String()]++
	}
	if _, err := e.set.Chats.WriteThrough(ctx, chat); err != nil {
		return fmt.Errorf("updating offer chat: %w", err)
	}
	return nil
}

// push requests a notification for the counterpart after a transition.
func (e *Engine) push(userID uuid.UUID, event string, offer *models.Offer) {
	if userID == uuid.Nil {
		return
	}
	e.notify.Push(userID, event, map[string]any{
		"offer_id": offer.ID.String(),
		"status":   string(offer.Status),
		"at":       e.now().UTC().Format(time.RFC3339),
	})
}
