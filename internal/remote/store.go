// Package remote defines the contract with the authoritative document
// store. All calls are fallible and potentially slow; callers treat every
// error as transient and degrade to cached data rather than surfacing it.
package remote

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get for a missing document.
	ErrNotFound = errors.New("remote: document not found")

	// ErrGuardFailed is returned by CompareAndSet when the stored document's
	// status no longer matches the expected prior status. It is the
	// cross-device guard against double-applying a transition.
	ErrGuardFailed = errors.New("remote: status guard failed")
)

// Filter is a single field-equality selector for Query. The zero Filter
// matches every document in the collection.
type Filter struct {
	Field string
	Value string
}

// All matches every document in a collection.
func All() Filter { return Filter{} }

// Eq matches documents whose top-level field equals value.
func Eq(field, value string) Filter { return Filter{Field: field, Value: value} }

// Store is the remote document database: JSON documents addressed by
// collection and id. No cross-document transactions are assumed.
type Store interface {
	// Get returns the document, or ErrNotFound.
	Get(ctx context.Context, collection, id string) ([]byte, error)

	// Query returns all documents in the collection matching the filter.
	Query(ctx context.Context, collection string, filter Filter) ([][]byte, error)

	// Set writes the document, creating or replacing it.
	Set(ctx context.Context, collection, id string, doc []byte) error

	// Delete removes the document. Deleting a missing document is not an
	// error.
	Delete(ctx context.Context, collection, id string) error

	// CompareAndSet writes the document only if the stored copy's "status"
	// field still equals expectedStatus, or if no stored copy exists yet.
	// A mismatch returns ErrGuardFailed.
	CompareAndSet(ctx context.Context, collection, id string, doc []byte, expectedStatus string) error
}
