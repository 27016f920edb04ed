package offer

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/config"
	"github.com/swapcycle/swapcycle-api/internal/lifecycle"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/repo"
	"github.com/swapcycle/swapcycle-api/internal/services/respond"
	"github.com/swapcycle/swapcycle-api/internal/utils"
)

// OfferService exposes the offer lifecycle over HTTP.
type OfferService struct {
	cfg        *config.Config
	offers     *repo.OfferRepo
	jwtService *utils.JWTService
}

// NewOfferService creates an OfferService.
func NewOfferService(cfg *config.Config, offers *repo.OfferRepo) *OfferService {
	return &OfferService{
		cfg:        cfg,
		offers:     offers,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// CreateOffer handles POST /api/offers.
func (s *OfferService) CreateOffer(c fiber.Ctx) error {
	actor, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User is not authenticated"})
	}

	var requestData struct {
		ToUserID        string   `json:"to_user_id"`
		RequestedItemID string   `json:"requested_item_id"`
		OfferedItemIDs  []string `json:"offered_item_ids"`
		CashAmount      float64  `json:"cash_amount"`
		Message         string   `json:"message"`
		ExpiresAt       *string  `json:"expires_at"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Error decoding request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	toUserID, err := uuid.Parse(requestData.ToUserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid to_user_id"})
	}
	requestedItemID, err := uuid.Parse(requestData.RequestedItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid requested_item_id"})
	}
	offeredItemIDs, err := parseIDList(requestData.OfferedItemIDs)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid offered item id"})
	}

	var expiresAt *time.Time
	if requestData.ExpiresAt != nil && *requestData.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, *requestData.ExpiresAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid expires_at, expected RFC3339"})
		}
		expiresAt = &parsed
	}

	ctx, cancel := respond.Context()
	defer cancel()

	offer, err := s.offers.Create(ctx, actor, lifecycle.CreateRequest{
		ToUserID:        toUserID,
		RequestedItemID: requestedItemID,
		OfferedItemIDs:  offeredItemIDs,
		CashAmount:      requestData.CashAmount,
		Message:         requestData.Message,
		ExpiresAt:       expiresAt,
	})
	if err != nil {
		return respond.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"offer":   offer,
	})
}

// GetMyOffers handles GET /api/offers?type=incoming|outgoing.
func (s *OfferService) GetMyOffers(c fiber.Ctx) error {
	actor, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User is not authenticated"})
	}

	offerType := c.Query("type", "incoming")

	ctx, cancel := respond.Context()
	defer cancel()

	var offers []*models.Offer
	var err error
	switch offerType {
	case "incoming":
		offers, err = s.offers.ListIncoming(ctx, actor)
	case "outgoing":
		offers, err = s.offers.ListOutgoing(ctx, actor)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type must be incoming or outgoing"})
	}
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"offers": offers,
		"count":  len(offers),
	})
}

// GetOffer handles GET /api/offers/:id.
func (s *OfferService) GetOffer(c fiber.Ctx) error {
	actor, offerID, ok := actorAndOffer(c)
	if !ok {
		return badIdentifiers(c)
	}

	ctx, cancel := respond.Context()
	defer cancel()

	offer, err := s.offers.Get(ctx, actor, offerID)
	if err != nil {
		return respond.Error(c, err)
	}
	return c.JSON(fiber.Map{"offer": offer})
}

// AcceptOffer handles POST /api/offers/:id/accept.
func (s *OfferService) AcceptOffer(c fiber.Ctx) error {
	return s.transition(c, s.offers.Accept, "Offer accepted")
}

// RejectOffer handles POST /api/offers/:id/reject.
func (s *OfferService) RejectOffer(c fiber.Ctx) error {
	return s.transition(c, s.offers.Reject, "Offer rejected")
}

// CancelOffer handles POST /api/offers/:id/cancel.
func (s *OfferService) CancelOffer(c fiber.Ctx) error {
	return s.transition(c, s.offers.Cancel, "Offer cancelled")
}

// CounterOffer handles POST /api/offers/:id/counter.
func (s *OfferService) CounterOffer(c fiber.Ctx) error {
	actor, offerID, ok := actorAndOffer(c)
	if !ok {
		return badIdentifiers(c)
	}

	var requestData struct {
		RequestedItemID string   `json:"requested_item_id"`
		OfferedItemIDs  []string `json:"offered_item_ids"`
		CashAmount      float64  `json:"cash_amount"`
		Message         string   `json:"message"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Error decoding request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	requestedItemID, err := uuid.Parse(requestData.RequestedItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid requested_item_id"})
	}
	offeredItemIDs, err := parseIDList(requestData.OfferedItemIDs)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid offered item id"})
	}

	ctx, cancel := respond.Context()
	defer cancel()

	offer, err := s.offers.Counter(ctx, actor, offerID, lifecycle.CounterRequest{
		RequestedItemID: requestedItemID,
		OfferedItemIDs:  offeredItemIDs,
		CashAmount:      requestData.CashAmount,
		Message:         requestData.Message,
	})
	if err != nil {
		return respond.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Counter-offer created",
		"offer":   offer,
	})
}

// transition runs a parameterless lifecycle transition and reports the
// resulting offer.
func (s *OfferService) transition(c fiber.Ctx, fn func(context.Context, uuid.UUID, uuid.UUID) (*models.Offer, error), message string) error {
	actor, offerID, ok := actorAndOffer(c)
	if !ok {
		return badIdentifiers(c)
	}

	ctx, cancel := respond.Context()
	defer cancel()

	offer, err := fn(ctx, actor, offerID)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
		"offer":   offer,
	})
}

func parseIDList(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func actorID(c fiber.Ctx) (uuid.UUID, bool) {
	raw, ok := respond.Actor(c)
	if !ok {
		return uuid.Nil, false
	}
	actor, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return actor, true
}

func actorAndOffer(c fiber.Ctx) (uuid.UUID, uuid.UUID, bool) {
	actor, ok := actorID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	offerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return actor, offerID, true
}

func badIdentifiers(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user or offer id"})
}
