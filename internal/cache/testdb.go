package cache

import "testing"

// NewTestStore creates a fresh in-memory cache with the schema applied.
func NewTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test cache: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating test cache schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return New(db)
}
