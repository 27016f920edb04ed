package offer

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapcycle/swapcycle-api/internal/middleware"
)

// SetupRoutes registers the offer and meetup API routes.
func (s *OfferService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/offers")

	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.CreateOffer)
	api.Get("/", s.GetMyOffers)
	api.Get("/:id", s.GetOffer)

	api.Post("/:id/accept", s.AcceptOffer)
	api.Post("/:id/reject", s.RejectOffer)
	api.Post("/:id/cancel", s.CancelOffer)
	api.Post("/:id/counter", s.CounterOffer)

	api.Post("/:id/meetup", s.ScheduleMeetup)
	api.Post("/:id/meetup/confirm", s.ConfirmMeetup)
	api.Post("/:id/meetup/start", s.StartMeetup)
	api.Post("/:id/meetup/complete", s.CompleteMeetup)
	api.Post("/:id/meetup/cancel", s.CancelMeetup)
	api.Post("/:id/meetup/no-show", s.NoShowMeetup)
}
