package cache

import (
	"context"
	"fmt"
)

// EnqueuePending journals a local write whose remote counterpart failed, so
// a later flush can replay it. Re-queuing the same entity is a no-op.
func (s *Store) EnqueuePending(ctx context.Context, collection, entityID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO pending_writes (collection, entity_id) VALUES (?, ?)`,
		collection, entityID)
	if err != nil {
		return fmt.Errorf("journaling pending write: %w", err)
	}
	return nil
}

// PendingIDs returns the journaled entity ids for a collection, oldest first.
func (s *Store) PendingIDs(ctx context.Context, collection string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id FROM pending_writes WHERE collection = ? ORDER BY queued_at ASC`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("listing pending writes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning pending write: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ClearPending drops a journal entry after a successful remote replay.
func (s *Store) ClearPending(ctx context.Context, collection, entityID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_writes WHERE collection = ? AND entity_id = ?`,
		collection, entityID)
	if err != nil {
		return fmt.Errorf("clearing pending write: %w", err)
	}
	return nil
}

// PendingCount returns the number of journaled writes across all collections.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_writes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pending writes: %w", err)
	}
	return n, nil
}
