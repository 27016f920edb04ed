package history

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapcycle/swapcycle-api/internal/middleware"
)

// SetupRoutes registers the trade history API routes.
func (s *HistoryService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/history")

	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetMyHistory)
	api.Get("/offer/:id", s.GetByOffer)
	api.Post("/offer/:id/rate", s.RateTrade)
}
