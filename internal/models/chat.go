package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageType distinguishes user messages from system-generated ones.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageOffer  MessageType = "offer"
	MessageMeetup MessageType = "meetup"
)

// Chat is a two-party conversation, optionally linked to an offer and/or
// an item.
type Chat struct {
	ID             uuid.UUID   `json:"id"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
	OfferID        *uuid.UUID  `json:"offer_id,omitempty"`
	ItemID         *uuid.UUID  `json:"item_id,omitempty"`
	LastMessage    string      `json:"last_message,omitempty"`
	LastMessageAt  *time.Time  `json:"last_message_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	IsActive       bool        `json:"is_active"`

	// UnreadCounts maps participant id (string form) to unread messages.
	UnreadCounts map[string]int `json:"unread_counts,omitempty"`

	// OtherUser is joined at read time for API responses, not stored.
	OtherUser *User `json:"other_user,omitempty"`
}

// HasParticipant reports whether the user belongs to the chat.
func (c *Chat) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.ParticipantIDs {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterpart of the given user, or uuid.Nil.
func (c *Chat) OtherParticipant(userID uuid.UUID) uuid.UUID {
	for _, p := range c.ParticipantIDs {
		if p != userID {
			return p
		}
	}
	return uuid.Nil
}

// ChatMessage is a single message. Messages are never mutated except for
// the read flag, and never deleted individually.
type ChatMessage struct {
	ID         uuid.UUID   `json:"id"`
	ChatID     uuid.UUID   `json:"chat_id"`
	SenderID   uuid.UUID   `json:"sender_id"`
	ReceiverID uuid.UUID   `json:"receiver_id"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	IsRead     bool        `json:"is_read"`
	Type       MessageType `json:"type"`
}
