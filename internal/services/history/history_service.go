package history

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/config"
	"github.com/swapcycle/swapcycle-api/internal/repo"
	"github.com/swapcycle/swapcycle-api/internal/services/respond"
	"github.com/swapcycle/swapcycle-api/internal/utils"
)

// HistoryService exposes completed trades and ratings over HTTP.
type HistoryService struct {
	cfg        *config.Config
	history    *repo.HistoryRepo
	jwtService *utils.JWTService
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(cfg *config.Config, history *repo.HistoryRepo) *HistoryService {
	return &HistoryService{
		cfg:        cfg,
		history:    history,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetMyHistory handles GET /api/history.
func (s *HistoryService) GetMyHistory(c fiber.Ctx) error {
	actor, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User is not authenticated"})
	}

	ctx, cancel := respond.Context()
	defer cancel()

	records, err := s.history.ListForUser(ctx, actor)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"history": records,
		"count":   len(records),
	})
}

// GetByOffer handles GET /api/history/offer/:id.
func (s *HistoryService) GetByOffer(c fiber.Ctx) error {
	actor, offerID, ok := actorAndOffer(c)
	if !ok {
		return badIdentifiers(c)
	}

	ctx, cancel := respond.Context()
	defer cancel()

	record, err := s.history.GetByOffer(ctx, actor, offerID)
	if err != nil {
		return respond.Error(c, err)
	}
	return c.JSON(fiber.Map{"history": record})
}

// RateTrade handles POST /api/history/offer/:id/rate.
func (s *HistoryService) RateTrade(c fiber.Ctx) error {
	actor, offerID, ok := actorAndOffer(c)
	if !ok {
		return badIdentifiers(c)
	}

	var requestData struct {
		Stars   int    `json:"stars"`
		Comment string `json:"comment"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Error decoding request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if requestData.Stars < 1 || requestData.Stars > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Stars must be between 1 and 5"})
	}

	ctx, cancel := respond.Context()
	defer cancel()

	record, err := s.history.Rate(ctx, actor, offerID, requestData.Stars, requestData.Comment)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"history": record,
	})
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
