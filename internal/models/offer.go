package models

import (
	"time"

	"github.com/google/uuid"
)

// OfferStatus is the lifecycle status of a trade offer.
type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferCountered OfferStatus = "countered"
	OfferRejected  OfferStatus = "rejected"
	OfferCancelled OfferStatus = "cancelled"
	OfferExpired   OfferStatus = "expired"
	OfferCompleted OfferStatus = "completed"
)

// offerTransitions is the allowed transition table. A counter-offer
// terminalizes the original offer; the counter itself is a new entity.
var offerTransitions = map[OfferStatus][]OfferStatus{
	OfferPending:  {OfferAccepted, OfferCountered, OfferRejected, OfferCancelled, OfferExpired},
	OfferAccepted: {OfferCompleted, OfferCancelled, OfferExpired},
}

// IsTerminal reports whether no transitions leave this status.
func (s OfferStatus) IsTerminal() bool {
	return len(offerTransitions[s]) == 0
}

// CanTransitionTo reports whether the transition table allows moving to next.
func (s OfferStatus) CanTransitionTo(next OfferStatus) bool {
	for _, allowed := range offerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Offer is a proposal to trade: one requested item against offered items
// and/or cash. Offers are never deleted, only transitioned to a terminal
// status.
type Offer struct {
	ID              uuid.UUID   `json:"id"`
	FromUserID      uuid.UUID   `json:"from_user_id"`
	ToUserID        uuid.UUID   `json:"to_user_id"`
	RequestedItemID uuid.UUID   `json:"requested_item_id"`
	OfferedItemIDs  []uuid.UUID `json:"offered_item_ids"`
	Status          OfferStatus `json:"status"`
	Message         string      `json:"message,omitempty"`
	CashAmount      float64     `json:"cash_amount,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	ExpiresAt       *time.Time  `json:"expires_at,omitempty"`
	Meetup          *Meetup     `json:"meetup,omitempty"`
}

// NewOffer validates and builds a pending offer. An offer must carry at
// least one offered item or a positive cash amount, and cannot target the
// sender's own listing.
func NewOffer(from, to, requestedItem uuid.UUID, offeredItems []uuid.UUID, cash float64, message string, expiresAt *time.Time) (*Offer, error) {
	if len(offeredItems) == 0 && cash <= 0 {
		return nil, ErrInvalidOffer
	}
	if cash < 0 {
		return nil, ErrInvalidOffer
	}
	if from == uuid.Nil || to == uuid.Nil || requestedItem == uuid.Nil || from == to {
		return nil, ErrInvalidOffer
	}

	now := time.Now().UTC()
	return &Offer{
		ID:              uuid.New(),
		FromUserID:      from,
		ToUserID:        to,
		RequestedItemID: requestedItem,
		OfferedItemIDs:  offeredItems,
		Status:          OfferPending,
		Message:         message,
		CashAmount:      cash,
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiresAt:       expiresAt,
	}, nil
}

// Participants returns both parties of the offer.
func (o *Offer) Participants() []uuid.UUID {
	return []uuid.UUID{o.FromUserID, o.ToUserID}
}

// HasParticipant reports whether the user is one of the offer's parties.
func (o *Offer) HasParticipant(userID uuid.UUID) bool {
	return userID == o.FromUserID || userID == o.ToUserID
}

// OtherParticipant returns the counterpart of the given party.
func (o *Offer) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if userID == o.FromUserID {
		return o.ToUserID
	}
	return o.FromUserID
}

// ItemIDs returns the requested item followed by all offered items.
func (o *Offer) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.OfferedItemIDs)+1)
	ids = append(ids, o.RequestedItemID)
	ids = append(ids, o.OfferedItemIDs...)
	return ids
}

// IsExpired reports whether the offer's deadline has passed.
func (o *Offer) IsExpired(now time.Time) bool {
	return o.ExpiresAt != nil && now.After(*o.ExpiresAt)
}
