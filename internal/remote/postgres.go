package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    doc        JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_status
    ON documents (collection, (doc->>'status'));
`

// PostgresStore is the production remote store: one JSONB document per
// (collection, id) row behind a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the remote database and ensures the
// documents table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing remote database URL: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating remote connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging remote database: %w", err)
	}

	if _, err := pool.Exec(connectCtx, documentsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring documents schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Get returns the document, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// Query returns all documents in the collection matching the filter.
func (s *PostgresStore) Query(ctx context.Context, collection string, filter Filter) ([][]byte, error) {
	var rows pgx.Rows
	var err error

	if filter.Field == "" {
		rows, err = s.pool.Query(ctx,
			`SELECT doc FROM documents WHERE collection = $1`, collection)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT doc FROM documents WHERE collection = $1 AND doc->>$2 = $3`,
			collection, filter.Field, filter.Value)
	}
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", collection, err)
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Set writes the document, creating or replacing it.
func (s *PostgresStore) Set(ctx context.Context, collection, id string, doc []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, doc, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (collection, id) DO UPDATE SET doc = $3, updated_at = NOW()`,
		collection, id, doc)
	if err != nil {
		return fmt.Errorf("setting document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes the document.
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("deleting document %s/%s: %w", collection, id, err)
	}
	return nil
}

// CompareAndSet writes the document only if the stored copy's status field
// still matches, or inserts it if no copy exists. The guard runs inside a
// single UPDATE so two devices cannot both apply the same transition.
func (s *PostgresStore) CompareAndSet(ctx context.Context, collection, id string, doc []byte, expectedStatus string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET doc = $3, updated_at = NOW()
		 WHERE collection = $1 AND id = $2 AND doc->>'status' = $4`,
		collection, id, doc, expectedStatus)
	if err != nil {
		return fmt.Errorf("guarded update of %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Either the document is missing (first write wins) or the guard failed.
	tag, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, doc, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (collection, id) DO NOTHING`,
		collection, id, doc)
	if err != nil {
		return fmt.Errorf("guarded insert of %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGuardFailed
	}
	return nil
}
