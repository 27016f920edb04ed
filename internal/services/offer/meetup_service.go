package offer

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/swapcycle/swapcycle-api/internal/lifecycle"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/services/respond"
)

// ScheduleMeetup handles POST /api/offers/:id/meetup.
func (s *OfferService) ScheduleMeetup(c fiber.Ctx) error {
	actor, offerID, ok := actorAndOffer(c)
	if !ok {
		return badIdentifiers(c)
	}

	var requestData struct {
		Location    *models.Location `json:"location"`
		ScheduledAt string           `json:"scheduled_at"`
		Type        string           `json:"meetup_type"`
		Notes       string           `json:"notes"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Error decoding request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	scheduledAt, err := time.Parse(time.RFC3339, requestData.ScheduledAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid scheduled_at, expected RFC3339"})
	}

	ctx, cancel := respond.Context()
	defer cancel()

	offer, err := s.offers.ScheduleMeetup(ctx, actor, offerID, lifecycle.ScheduleRequest{
		Location:    requestData.Location,
		ScheduledAt: scheduledAt,
		Type:        models.MeetupType(requestData.Type),
		Notes:       requestData.Notes,
	})
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Meetup scheduled",
		"offer":   offer,
	})
}

// ConfirmMeetup handles POST /api/offers/:id/meetup/confirm.
func (s *OfferService) ConfirmMeetup(c fiber.Ctx) error {
	return s.transition(c, s.offers.ConfirmMeetup, "Meetup confirmed")
}

// StartMeetup handles POST /api/offers/:id/meetup/start.
func (s *OfferService) StartMeetup(c fiber.Ctx) error {
	return s.transition(c, s.offers.StartMeetup, "Meetup started")
}

// CompleteMeetup handles POST /api/offers/:id/meetup/complete.
func (s *OfferService) CompleteMeetup(c fiber.Ctx) error {
	return s.transition(c, s.offers.CompleteMeetup, "Trade completed")
}

// CancelMeetup handles POST /api/offers/:id/meetup/cancel.
func (s *OfferService) CancelMeetup(c fiber.Ctx) error {
	actor, offerID, ok := actorAndOffer(c)
	if !ok {
		return badIdentifiers(c)
	}

	var requestData struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Error decoding request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	ctx, cancel := respond.Context()
	defer cancel()

	offer, err := s.offers.CancelMeetup(ctx, actor, offerID, requestData.Reason)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Meetup cancelled",
		"offer":   offer,
	})
}

// NoShowMeetup handles POST /api/offers/:id/meetup/no-show.
func (s *OfferService) NoShowMeetup(c fiber.Ctx) error {
	return s.transition(c, s.offers.NoShowMeetup, "Meetup marked as no-show")
}
