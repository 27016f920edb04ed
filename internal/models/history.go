package models

import (
	"time"

	"github.com/google/uuid"
)

// TradedItem is a point-in-time snapshot of an item at trade completion.
// Snapshots are frozen so later item edits or deletions don't corrupt
// history, and are never written back.
type TradedItem struct {
	ItemID    uuid.UUID `json:"item_id"`
	UserID    uuid.UUID `json:"user_id"`
	ItemName  string    `json:"item_name"`
	ItemImage string    `json:"item_image,omitempty"`
}

// Rating is a participant's one-time rating of a completed trade.
type Rating struct {
	RaterID uuid.UUID `json:"rater_id"`
	Stars   int       `json:"stars"`
	Comment string    `json:"comment,omitempty"`
	RatedAt time.Time `json:"rated_at"`
}

// TradeHistory is the immutable record of a completed trade, created
// exactly once per offer. The only permitted update is attaching a rating,
// once per participant.
type TradeHistory struct {
	ID               uuid.UUID    `json:"id"`
	OfferID          uuid.UUID    `json:"offer_id"`
	ParticipantIDs   []uuid.UUID  `json:"participant_ids"`
	ItemsTraded      []TradedItem `json:"items_traded"`
	CompletedAt      time.Time    `json:"completed_at"`
	MeetupID         uuid.UUID    `json:"meetup_id"`
	Ratings          []Rating     `json:"ratings,omitempty"`
	CarbonSaved      float64      `json:"carbon_saved"`
	TradeScoreEarned int          `json:"trade_score_earned"`
}

// RatedBy reports whether the user already rated this trade.
func (h *TradeHistory) RatedBy(userID uuid.UUID) bool {
	for _, r := range h.Ratings {
		if r.RaterID == userID {
			return true
		}
	}
	return false
}

// HasParticipant reports whether the user took part in the trade.
func (h *TradeHistory) HasParticipant(userID uuid.UUID) bool {
	for _, p := range h.ParticipantIDs {
		if p == userID {
			return true
		}
	}
	return false
}
