package user

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

// UserService exposes participant profiles over HTTP.
type UserService struct {
	cfg        *config.Config
	users      *repo.UserRepo
	jwtService *utils.JWTService
}

// NewUserService creates a UserService.
func NewUserService(cfg *config.Config, users *repo.UserRepo) *UserService {
	return &UserService{
		cfg:        cfg,
		users:      users,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetMe handles GET /api/users/me.
func (s *UserService) GetMe(c fiber.Ctx) error {
	actor, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User is not authenticated"})
	}
	return s.profile(c, actor)
}

// GetUser handles GET /api/users/:id.
func (s *UserService) GetUser(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}
	return s.profile(c, userID)
}

func (s *UserService) profile(c fiber.Ctx, userID uuid.UUID) error {
	ctx, cancel := respond.Context()
	defer cancel()

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return respond.Error(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// UpdateMe handles PUT /api/users/me.
func (s *UserService) UpdateMe(c fiber.Ctx) error {
	actor, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User is not authenticated"})
	}

	var requestData struct {
		Name            *string          `json:"name"`
		Email           *string          `json:"email"`
		ProfileImageURL *string          `json:"profile_image_url"`
		Location        *models.Location `json:"location"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Error decoding request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	ctx, cancel := respond.Context()
	defer cancel()

	user, err := s.users.UpdateProfile(ctx, actor, repo.UpdateProfileRequest{
		Name:            requestData.Name,
		Email:           requestData.Email,
		ProfileImageURL: requestData.ProfileImageURL,
		Location:        requestData.Location,
	})
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
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
