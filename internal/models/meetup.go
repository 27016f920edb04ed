package models

import (
	"time"

	"github.com/google/uuid"
)

// MeetupStatus is the sub-state machine of a scheduled exchange.
type MeetupStatus string

const (
	MeetupScheduled  MeetupStatus = "scheduled"
	MeetupConfirmed  MeetupStatus = "confirmed"
	MeetupInProgress MeetupStatus = "in_progress"
	MeetupCompleted  MeetupStatus = "completed"
	MeetupCancelled  MeetupStatus = "cancelled"
	MeetupNoShow     MeetupStatus = "no_show"
)

// MeetupType distinguishes an in-person pickup from a delivery handoff.
type MeetupType string

const (
	MeetupPickup   MeetupType = "pickup"
	MeetupDelivery MeetupType = "delivery"
)

// meetupTransitions is the forward chain plus cancellation/no-show exits.
// Completing from confirmed is allowed so a meetup that was never explicitly
// started can still be closed out by a participant.
var meetupTransitions = map[MeetupStatus][]MeetupStatus{
	MeetupScheduled:  {MeetupConfirmed, MeetupCancelled, MeetupNoShow},
	MeetupConfirmed:  {MeetupInProgress, MeetupCompleted, MeetupCancelled, MeetupNoShow},
	MeetupInProgress: {MeetupCompleted, MeetupCancelled, MeetupNoShow},
}

// IsTerminal reports whether no transitions leave this status.
func (s MeetupStatus) IsTerminal() bool {
	return len(meetupTransitions[s]) == 0
}

// CanTransitionTo reports whether the transition table allows moving to next.
func (s MeetupStatus) CanTransitionTo(next MeetupStatus) bool {
	for _, allowed := range meetupTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Meetup is the real-world exchange event embedded in an accepted offer.
// Its completion is the single trigger for the offer's own completion and
// for trade history creation.
type Meetup struct {
	ID                 uuid.UUID    `json:"id"`
	OfferID            uuid.UUID    `json:"offer_id"`
	ParticipantIDs     []uuid.UUID  `json:"participant_ids"`
	Location           *Location    `json:"location,omitempty"`
	ScheduledAt        time.Time    `json:"scheduled_at"`
	Type               MeetupType   `json:"meetup_type"`
	Status             MeetupStatus `json:"status"`
	Notes              string       `json:"notes,omitempty"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty"`
	CancelledAt        *time.Time   `json:"cancelled_at,omitempty"`
	CancelledBy        *uuid.UUID   `json:"cancelled_by,omitempty"`
	CancellationReason string       `json:"cancellation_reason,omitempty"`
}
