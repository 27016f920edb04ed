package codec

import (
	"time"

	"github.com/swapcycle/swapcycle-api/internal/models"
)

// ChatRow is the flat persisted shape of a chat. The per-participant unread
// counter map is carried as a JSON document column; the joined OtherUser is
// display-only and not stored.
type ChatRow struct {
	ID             string
	ParticipantIDs string
	OfferID        string
	ItemID         string
	LastMessage    string
	LastMessageAt  *time.Time
	CreatedAt      time.Time
	IsActive       bool
	UnreadDoc      string
}

// EncodeChat flattens a chat into its row shape.
func EncodeChat(chat *models.Chat) ChatRow {
	unread := ""
	if len(chat.UnreadCounts) > 0 {
		unread = encodeDoc(chat.UnreadCounts)
	}
	return ChatRow{
		ID:             chat.ID.String(),
		ParticipantIDs: joinIDs(chat.ParticipantIDs),
		OfferID:        optionalID(chat.OfferID),
		ItemID:         optionalID(chat.ItemID),
		LastMessage:    chat.LastMessage,
		LastMessageAt:  chat.LastMessageAt,
		CreatedAt:      chat.CreatedAt,
		IsActive:       chat.IsActive,
		UnreadDoc:      unread,
	}
}

// DecodeChat rebuilds a chat from its row shape.
func DecodeChat(row ChatRow) (*models.Chat, error) {
	id, err := parseID(row.ID, "chat id")
	if err != nil {
		return nil, err
	}

	var unread map[string]int
	if m := decodeDoc[map[string]int](row.UnreadDoc, "chat unread counts"); m != nil {
		unread = *m
	}

	return &models.Chat{
		ID:             id,
		ParticipantIDs: splitIDs(row.ParticipantIDs),
		OfferID:        parseOptionalID(row.OfferID),
		ItemID:         parseOptionalID(row.ItemID),
		LastMessage:    row.LastMessage,
		LastMessageAt:  row.LastMessageAt,
		CreatedAt:      row.CreatedAt,
		IsActive:       row.IsActive,
		UnreadCounts:   unread,
	}, nil
}

// MessageRow is the flat persisted shape of a chat message.
type MessageRow struct {
	ID         string
	ChatID     string
	SenderID   string
	ReceiverID string
	Content    string
	Timestamp  time.Time
	IsRead     bool
	Type       string
}

// EncodeMessage flattens a message into its row shape.
func EncodeMessage(msg *models.ChatMessage) MessageRow {
	return MessageRow{
		ID:         msg.ID.String(),
		ChatID:     msg.ChatID.String(),
		SenderID:   msg.SenderID.String(),
		ReceiverID: msg.ReceiverID.String(),
		Content:    msg.Content,
		Timestamp:  msg.Timestamp,
		IsRead:     msg.IsRead,
		Type:       string(msg.Type),
	}
}

// DecodeMessage rebuilds a message from its row shape.
func DecodeMessage(row MessageRow) (*models.ChatMessage, error) {
	id, err := parseID(row.ID, "message id")
	if err != nil {
		return nil, err
	}
	chatID, err := parseID(row.ChatID, "message chat id")
	if err != nil {
		return nil, err
	}
	senderID, err := parseID(row.SenderID, "message sender id")
	if err != nil {
		return nil, err
	}
	receiverID, err := parseID(row.ReceiverID, "message receiver id")
	if err != nil {
		return nil, err
	}

	return &models.ChatMessage{
		ID:         id,
		ChatID:     chatID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    row.Content,
		Timestamp:  row.Timestamp,
		IsRead:     row.IsRead,
		Type:       models.MessageType(row.Type),
	}, nil
}
