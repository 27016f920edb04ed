package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/models"
)

// ScheduleRequest carries the logistics of a proposed exchange.
type ScheduleRequest struct {
	Location    *models.Location
	ScheduledAt time.Time
	Type        models.MeetupType
	Notes       string
}

// ScheduleMeetup sets or replaces the exchange logistics on an accepted
// offer. Rescheduling after a cancelled or no-show meetup creates a fresh
// scheduled one.
func (e *Engine) ScheduleMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID, req ScheduleRequest) (*models.Offer, error) {
	offer, err := e.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status != models.OfferAccepted {
		return nil, fmt.Errorf("%w: a meetup requires an accepted offer", models.ErrInvalidTransition)
	}
	if !offer.HasParticipant(actor) {
		return nil, fmt.Errorf("%w: only a participant may schedule the meetup", models.ErrNotAuthorized)
	}

	m := offer.Meetup
	if m == nil || m.Status.IsTerminal() {
		m = &models.Meetup{
			ID:             uuid.New(),
			OfferID:        offer.ID,
			ParticipantIDs: offer.Participants(),
			Status:         models.MeetupScheduled,
		}
		offer.Meetup = m
	}
	if m.Status != models.MeetupScheduled {
		return nil, fmt.Errorf("%w: meetup is already %s", models.ErrInvalidTransition, m.Status)
	}

	m.Location = req.Location
	m.ScheduledAt = req.ScheduledAt
	m.Type = req.Type
	if m.Type == "" {
		m.Type = models.MeetupPickup
	}
	m.Notes = req.Notes
	offer.UpdatedAt = e.now().UTC()

	if err := e.commitOffer(ctx, offer, models.OfferAccepted); err != nil {
		return nil, err
	}

	text := fmt.Sprintf("Meetup scheduled for %s.", req.ScheduledAt.Format("Jan 2 at 15:04"))
	if err := e.postSystemMessage(ctx, offer, actor, models.MessageMeetup, text); err != nil {
		return nil, err
	}
	e.push(offer.OtherParticipant(actor), "meetup_scheduled", offer)
	return offer, nil
}

// ConfirmMeetup records the counterpart's agreement to the scheduled time.
func (e *Engine) ConfirmMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	return e.advanceMeetup(ctx, actor, offerID, models.MeetupConfirmed, "meetup_confirmed",
		"Meetup confirmed.")
}

// StartMeetup marks the exchange as underway.
func (e *Engine) StartMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	return e.advanceMeetup(ctx, actor, offerID, models.MeetupInProgress, "meetup_started",
		"Meetup in progress.")
}

// CompleteMeetup closes the exchange. Completion cascades: the meetup and
// the offer both become completed in the same commit, and the trade is
// accrued exactly once. A duplicate completion is a no-op.
func (e *Engine) CompleteMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := e.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	// A retry of an already-completed trade still ensures the accrual
	// landed; the history-existence guard keeps it exactly-once.
	if offer.Status == models.OfferCompleted {
		if _, err := e.accrue.Accrue(ctx, offer); err != nil {
			return nil, err
		}
		return offer, nil
	}
	if offer.Status != models.OfferAccepted {
		return nil, fmt.Errorf("%w: cannot complete a %s offer", models.ErrInvalidTransition, offer.Status)
	}
	if !offer.HasParticipant(actor) {
		return nil, fmt.Errorf("%w: only a participant may complete the meetup", models.ErrNotAuthorized)
	}

	m := offer.Meetup
	if m == nil {
		return nil, fmt.Errorf("%w: no meetup to complete", models.ErrInvalidTransition)
	}
	if !m.Status.CanTransitionTo(models.MeetupCompleted) {
		return nil, fmt.Errorf("%w: cannot complete a %s meetup", models.ErrInvalidTransition, m.Status)
	}

	now := e.now().UTC()
	m.Status = models.MeetupCompleted
	m.CompletedAt = &now
	offer.Status = models.OfferCompleted
	offer.UpdatedAt = now

	if err := e.commitOffer(ctx, offer, models.OfferAccepted); err != nil {
		current, rerr := e.resolveStale(ctx, offerID, models.OfferCompleted, err)
		if rerr != nil {
			return nil, rerr
		}
		if _, err := e.accrue.Accrue(ctx, current); err != nil {
			return nil, err
		}
		return current, nil
	}

	if _, err := e.accrue.Accrue(ctx, offer); err != nil {
		return nil, err
	}

	if err := e.postSystemMessage(ctx, offer, actor, models.MessageMeetup,
		"Trade completed. Don't forget to rate your trade partner."); err != nil {
		return nil, err
	}

	e.push(offer.FromUserID, "trade_completed", offer)
	e.push(offer.ToUserID, "trade_completed", offer)
	return offer, nil
}

// CancelMeetup calls off the scheduled exchange while keeping the offer
// accepted, so the parties can reschedule.
func (e *Engine) CancelMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID, reason string) (*models.Offer, error) {
	return e.abortMeetup(ctx, actor, offerID, models.MeetupCancelled, "meetup_cancelled", reason,
		"Meetup cancelled.")
}

// NoShowMeetup records that the counterpart never turned up. The offer
// stays accepted so the parties can reschedule or cancel.
func (e *Engine) NoShowMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, error) {
	return e.abortMeetup(ctx, actor, offerID, models.MeetupNoShow, "meetup_no_show", "no show",
		"Meetup marked as a no-show.")
}

// advanceMeetup applies a forward-chain meetup transition that leaves the
// offer itself accepted.
func (e *Engine) advanceMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID, target models.MeetupStatus, event, message string) (*models.Offer, error) {
	offer, m, err := e.loadMeetup(ctx, actor, offerID)
	if err != nil {
		return nil, err
	}
	if m.Status == target {
		return offer, nil
	}
	if !m.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: cannot move a %s meetup to %s", models.ErrInvalidTransition, m.Status, target)
	}

	m.Status = target
	offer.UpdatedAt = e.now().UTC()

	// The guard serializes offer-level transitions only; the offer stays
	// accepted here, so two devices racing on the meetup sub-state resolve
	// last-writer-wins.
	if err := e.commitOffer(ctx, offer, models.OfferAccepted); err != nil {
		return nil, err
	}
	if err := e.postSystemMessage(ctx, offer, actor, models.MessageMeetup, message); err != nil {
		return nil, err
	}
	e.push(offer.OtherParticipant(actor), event, offer)
	return offer, nil
}

// abortMeetup terminalizes the meetup with cancellation metadata while the
// offer stays accepted. Like advanceMeetup, the commit guard does not
// serialize against concurrent meetup updates.
func (e *Engine) abortMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID, target models.MeetupStatus, event, reason, message string) (*models.Offer, error) {
	offer, m, err := e.loadMeetup(ctx, actor, offerID)
	if err != nil {
		return nil, err
	}
	if m.Status == target {
		return offer, nil
	}
	if !m.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: cannot move a %s meetup to %s", models.ErrInvalidTransition, m.Status, target)
	}

	now := e.now().UTC()
	m.Status = target
	m.CancelledAt = &now
	m.CancelledBy = &actor
	m.CancellationReason = reason
	offer.UpdatedAt = now

	if err := e.commitOffer(ctx, offer, models.OfferAccepted); err != nil {
		return nil, err
	}
	if err := e.postSystemMessage(ctx, offer, actor, models.MessageMeetup, message); err != nil {
		return nil, err
	}
	e.push(offer.OtherParticipant(actor), event, offer)
	return offer, nil
}

// loadMeetup fetches the offer and validates that the actor may act on its
// live meetup.
func (e *Engine) loadMeetup(ctx context.Context, actor uuid.UUID, offerID uuid.UUID) (*models.Offer, *models.Meetup, error) {
	offer, err := e.loadOffer(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}
	if offer.Status != models.OfferAccepted {
		return nil, nil, fmt.Errorf("%w: the offer is %s", models.ErrInvalidTransition, offer.Status)
	}
	if !offer.HasParticipant(actor) {
		return nil, nil, fmt.Errorf("%w: only a participant may act on the meetup", models.ErrNotAuthorized)
	}
	if offer.Meetup == nil {
		return nil, nil, fmt.Errorf("%w: no meetup scheduled", models.ErrInvalidTransition)
	}
	return offer, offer.Meetup, nil
}
