package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareAndSetGuard(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// A first write needs no prior status to match.
	err := s.CompareAndSet(ctx, "offers", "a", []byte(`{"status":"pending"}`), "pending")
	require.NoError(t, err)

	err = s.CompareAndSet(ctx, "offers", "a", []byte(`{"status":"accepted"}`), "pending")
	require.NoError(t, err)

	// The stored status is now accepted, so a pending-guarded write loses.
	err = s.CompareAndSet(ctx, "offers", "a", []byte(`{"status":"cancelled"}`), "pending")
	assert.ErrorIs(t, err, ErrGuardFailed)

	doc, err := s.Get(ctx, "offers", "a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"accepted"}`, string(doc))
}

func TestFailureInjection(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.FailNext(1)
	assert.Error(t, s.Set(ctx, "items", "x", []byte(`{}`)))
	assert.NoError(t, s.Set(ctx, "items", "x", []byte(`{}`)))

	s.FailAll(true)
	_, err := s.Get(ctx, "items", "x")
	assert.Error(t, err)

	s.FailAll(false)
	_, err = s.Get(ctx, "items", "x")
	assert.NoError(t, err)

	assert.Equal(t, 5, s.Calls())
}

func TestQueryFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "offers", "a", []byte(`{"status":"pending"}`)))
	require.NoError(t, s.Set(ctx, "offers", "b", []byte(`{"status":"accepted"}`)))

	docs, err := s.Query(ctx, "offers", Eq("status", "pending"))
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = s.Query(ctx, "offers", All())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestGetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "offers", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
