package syncadmin

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapcycle/swapcycle-api/internal/middleware"
)

// SetupRoutes registers the synchronization API routes.
func (s *SyncAdminService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/sync")

	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/full", s.FullSync)
	api.Post("/flush", s.Flush)
	api.Post("/cleanup", s.Cleanup)
	api.Get("/pending", s.Pending)
}
