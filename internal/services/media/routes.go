package media

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapcycle/swapcycle-api/internal/middleware"
)

// SetupRoutes registers the media API routes.
func (s *MediaService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/media")

	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/upload/params", s.GenerateUploadParams)
	api.Delete("/:publicId", s.DeleteAsset)
}
