package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/codec"
	"github.com/swapcycle/swapcycle-api/internal/models"
)

const itemColumns = `id, name, description, category, condition, images, owner_id,
	location, desired_trades, is_available, created_at, updated_at, view_count, pitch_count`

// UpsertItem replaces the cached row for an item.
func (s *Store) UpsertItem(ctx context.Context, item *models.Item) error {
	row := codec.EncodeItem(item)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Name, row.Description, row.Category, row.Condition, row.Images,
		row.OwnerID, row.LocationDoc, row.DesiredTrades, row.IsAvailable,
		row.CreatedAt, row.UpdatedAt, row.ViewCount, row.PitchCount,
	)
	if err != nil {
		return fmt.Errorf("upserting item: %w", err)
	}
	s.hub.notify("items")
	return nil
}

// GetItem returns a cached item, or nil if it isn't cached.
func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var row codec.ItemRow
	err := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id.String(),
	).Scan(&row.ID, &row.Name, &row.Description, &row.Category, &row.Condition,
		&row.Images, &row.OwnerID, &row.LocationDoc, &row.DesiredTrades,
		&row.IsAvailable, &row.CreatedAt, &row.UpdatedAt, &row.ViewCount, &row.PitchCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return codec.DecodeItem(row)
}

// ListItems returns all cached items.
func (s *Store) ListItems(ctx context.Context) ([]*models.Item, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at DESC`)
}

// ListItemsByOwner returns all cached items owned by a user.
func (s *Store) ListItemsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Item, error) {
	return s.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? ORDER BY created_at DESC`,
		ownerID.String())
}

// ListAvailableItems returns all cached items open for offers.
func (s *Store) ListAvailableItems(ctx context.Context) ([]*models.Item, error) {
	return s.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items WHERE is_available = 1 ORDER BY created_at DESC`)
}

// DeleteItem removes an item from the cache.
func (s *Store) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	s.hub.notify("items")
	return nil
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		var row codec.ItemRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Description, &row.Category,
			&row.Condition, &row.Images, &row.OwnerID, &row.LocationDoc,
			&row.DesiredTrades, &row.IsAvailable, &row.CreatedAt, &row.UpdatedAt,
			&row.ViewCount, &row.PitchCount); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item, err := codec.DecodeItem(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
