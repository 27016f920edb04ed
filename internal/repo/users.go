package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/cache"
	"github.com/swapcycle/swapcycle-api/internal/models"
	"github.com/swapcycle/swapcycle-api/internal/syncer"
)

// UserRepo manages user profiles.
type UserRepo struct {
	store *cache.Store
	users *syncer.Coordinator[*models.User]
	now   func() time.Time
}

// NewUserRepo creates a user repository.
func NewUserRepo(store *cache.Store, set *syncer.Set) *UserRepo {
	return &UserRepo{store: store, users: set.Users, now: time.Now}
}

// Get returns a profile by id.
func (r *UserRepo) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	return user, nil
}

// UpdateProfileRequest carries the self-editable profile fields.
type UpdateProfileRequest struct {
	Name            *string
	Email           *string
	ProfileImageURL *string
	Location        *models.Location
}

// UpdateProfile edits the actor's own profile. Reputation fields are only
// ever changed by trade accrual.
func (r *UserRepo) UpdateProfile(ctx context.Context, actor uuid.UUID, req UpdateProfileRequest) (*models.User, error) {
	user, err := r.Get(ctx, actor)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.ProfileImageURL != nil {
		user.ProfileImageURL = *req.ProfileImageURL
	}
	if req.Location != nil {
		user.Location = req.Location
	}
	user.LastActive = r.now().UTC()

	if _, err := r.users.WriteThrough(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
