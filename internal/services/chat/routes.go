package chat

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapcycle/swapcycle-api/internal/middleware"
)

// SetupRoutes registers the chat API routes.
func (s *ChatService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/chats")

	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetMyChats)
	api.Get("/:id/messages", s.GetMessages)
	api.Post("/:id/messages", s.SendMessage)
	api.Post("/:id/read", s.MarkRead)
}
