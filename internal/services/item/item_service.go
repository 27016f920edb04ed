package item

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/config"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/repo"
	"github.com/swapcycle/swapcycle-api/internal/services/respond"
	"github.com/swapcycle/swapcycle-api/internal/utils"
)

// ItemService exposes item listings over HTTP.
type ItemService struct {
	cfg        *config.Config
	items      *repo.ItemRepo
	jwtService *utils.JWTService
}

// NewItemService creates an ItemService.
func NewItemService(cfg *config.Config, items *repo.ItemRepo) *ItemService {
	return &ItemService{
		cfg:        cfg,
		items:      items,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

type itemPayload struct {
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Condition     string           `json:"condition"`
	Images        []string         `json:"images"`
	Location      *models.Location `json:"location"`
	DesiredTrades string           `json:"desired_trades"`
}

// CreateItem handles POST /api/items.
func (s *ItemService) CreateItem(c fiber.Ctx) error {
	actor, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User is not authenticated"})
	}

	var requestData itemPayload
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Error decoding request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if requestData.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Item name is required"})
	}

	ctx, cancel := respond.Context()
	defer cancel()

	item, err := s.items.Create(ctx, actor, repo.CreateItemRequest{
		Name:          requestData.Name,
		Description:   requestData.Description,
		Category:      models.ItemCategory(requestData.Category),
		Condition:     models.ItemCondition(requestData.Condition),
		Images:        requestData.Images,
		Location:      requestData.Location,
		DesiredTrades: requestData.DesiredTrades,
	})
	if err != nil {
		return respond.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"item":    item,
	})
}

// GetItems handles GET /api/items with optional category, location and
// limit filters.
func (s *ItemService) GetItems(c fiber.Ctx) error {
	query := repo.ListQuery{
		Category: models.ItemCategory(c.Query("category")),
	}

	if latRaw, lngRaw := c.Query("lat"), c.Query("lng"); latRaw != "" && lngRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lng, lngErr := strconv.ParseFloat(lngRaw, 64)
		if latErr != nil || lngErr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lat/lng"})
		}
		query.Viewer = &models.Location{Latitude: lat, Longitude: lng}
	}

	if limitRaw := c.Query("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil || limit < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit"})
		}
		query.Limit = limit
	}

	ctx, cancel := respond.Context()
	defer cancel()

	items, err := s.items.List(ctx, query)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}

// GetItem handles GET /api/items/:id.
func (s *ItemService) GetItem(c fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	ctx, cancel := respond.Context()
	defer cancel()

	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return respond.Error(c, err)
	}
	return c.JSON(fiber.Map{"item": item})
}

// GetMyItems handles GET /api/items/mine.
func (s *ItemService) GetMyItems(c fiber.Ctx) error {
	actor, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User is not authenticated"})
	}

	ctx, cancel := respond.Context()
	defer cancel()

	items, err := s.items.ListByOwner(ctx, actor)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}

// UpdateItem handles PUT /api/items/:id.
func (s *ItemService) UpdateItem(c fiber.Ctx) error {
	actor, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User is not authenticated"})
	}
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	var requestData struct {
		Name          *string          `json:"name"`
		Description   *string          `json:"description"`
		Category      *string          `json:"category"`
		Condition     *string          `json:"condition"`
		Images        []string         `json:"images"`
		Location      *models.Location `json:"location"`
		DesiredTrades *string          `json:"desired_trades"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Error decoding request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	update := repo.UpdateItemRequest{
		Name:          requestData.Name,
		Description:   requestData.Description,
		Images:        requestData.Images,
		Location:      requestData.Location,
		DesiredTrades: requestData.DesiredTrades,
	}
	if requestData.Category != nil {
		category := models.ItemCategory(*requestData.Category)
		update.Category = &category
	}
	if requestData.Condition != nil {
		condition := models.ItemCondition(*requestData.Condition)
		update.Condition = &condition
	}

	ctx, cancel := respond.Context()
	defer cancel()

	item, err := s.items.Update(ctx, actor, itemID, update)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"item":    item,
	})
}

// DeleteItem handles DELETE /api/items/:id.
func (s *ItemService) DeleteItem(c fiber.Ctx) error {
	actor, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User is not authenticated"})
	}
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	ctx, cancel := respond.Context()
	defer cancel()

	if err := s.items.Delete(ctx, actor, itemID); err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item deleted",
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
