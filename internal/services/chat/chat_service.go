package chat

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/config"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/repo"
	"github.com/swapcycle/swapcycle-api/internal/services/respond"
	"github.com/swapcycle/swapcycle-api/internal/utils"
)

// ChatService exposes conversations over HTTP.
type ChatService struct {
	cfg        *config.Config
	chats      *repo.ChatRepo
	jwtService *utils.JWTService
}

// NewChatService creates a ChatService.
func NewChatService(cfg *config.Config, chats *repo.ChatRepo) *ChatService {
	return &ChatService{
		cfg:        cfg,
		chats:      chats,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetMyChats handles GET /api/chats.
func (s *ChatService) GetMyChats(c fiber.Ctx) error {
	actor, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User is not authenticated"})
	}

	ctx, cancel := respond.Context()
	defer cancel()

	chats, err := s.chats.ListForUser(ctx, actor)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"chats": chats,
		"count": len(chats),
	})
}

// GetMessages handles GET /api/chats/:id/messages.
func (s *ChatService) GetMessages(c fiber.Ctx) error {
	actor, chatID, ok := actorAndChat(c)
	if !ok {
		return badIdentifiers(c)
	}

	ctx, cancel := respond.Context()
	defer cancel()

	messages, err := s.chats.Messages(ctx, actor, chatID)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// SendMessage handles POST /api/chats/:id/messages.
func (s *ChatService) SendMessage(c fiber.Ctx) error {
	actor, chatID, ok := actorAndChat(c)
	if !ok {
		return badIdentifiers(c)
	}

	var requestData struct {
		Content string `json:"content"`
		Type    string `json:"type"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Error decoding request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if requestData.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message content is required"})
	}

	ctx, cancel := respond.Context()
	defer cancel()

	msg, err := s.chats.Send(ctx, actor, chatID, requestData.Content, models.MessageType(requestData.Type))
	if err != nil {
		return respond.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": msg,
	})
}

// MarkRead handles POST /api/chats/:id/read.
func (s *ChatService) MarkRead(c fiber.Ctx) error {
	actor, chatID, ok := actorAndChat(c)
	if !ok {
		return badIdentifiers(c)
	}

	ctx, cancel := respond.Context()
	defer cancel()

	count, err := s.chats.MarkRead(ctx, actor, chatID)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   count,
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

func actorAndChat(c fiber.Ctx) (uuid.UUID, uuid.UUID, bool) {
	actor, ok := actorID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	chatID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return actor, chatID, true
}

func badIdentifiers(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user or chat id"})
}
