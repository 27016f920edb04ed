package item

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapcycle/swapcycle-api/internal/middleware"
)

// SetupRoutes registers the item API routes.
func (s *ItemService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/items")

	// Browsing is public, everything else requires authentication.
	api.Get("/", s.GetItems)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	protected.Post("/", s.CreateItem)
	protected.Get("/mine", s.GetMyItems)
	protected.Get("/:id", s.GetItem)
	protected.Put("/:id", s.UpdateItem)
	protected.Delete("/:id", s.DeleteItem)
}
