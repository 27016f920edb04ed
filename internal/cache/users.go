package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/codec"
	"github.com/swapcycle/swapcycle-api/internal/models"
)

const userColumns = `id, name, email, profile_image_url, location, trade_score,
	level, carbon_saved, is_verified, created_at, last_active`

// UpsertUser replaces the cached row for a user.
func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	row := codec.EncodeUser(user)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Name, row.Email, row.ProfileImageURL, row.LocationDoc,
		row.TradeScore, row.Level, row.CarbonSaved, row.IsVerified,
		row.CreatedAt, row.LastActive,
	)
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	s.hub.notify("users")
	return nil
}

// GetUser returns a cached user, or nil if absent.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var row codec.UserRow
	err := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id.String(),
	).Scan(&row.ID, &row.Name, &row.Email, &row.ProfileImageURL, &row.LocationDoc,
		&row.TradeScore, &row.Level, &row.CarbonSaved, &row.IsVerified,
		&row.CreatedAt, &row.LastActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return codec.DecodeUser(row)
}

// ListUsers returns every cached user.
func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var row codec.UserRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Email, &row.ProfileImageURL,
			&row.LocationDoc, &row.TradeScore, &row.Level, &row.CarbonSaved,
			&row.IsVerified, &row.CreatedAt, &row.LastActive); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		user, err := codec.DecodeUser(row)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
