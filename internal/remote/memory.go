package remote

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// MemoryStore is an in-memory Store used by tests. Failures can be injected
// per call or globally to simulate an unreachable remote.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]map[string][]byte
	failAll  bool
	failNext int
	failErr  error
	calls    int
}

// NewMemoryStore creates an empty in-memory remote store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:    make(map[string]map[string][]byte),
		failErr: errors.New("remote: injected failure"),
	}
}

// FailAll makes every subsequent call fail (or succeed again when off).
func (s *MemoryStore) FailAll(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = on
}

// FailNext makes the next n calls fail.
func (s *MemoryStore) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// Calls returns how many operations were attempted, failures included.
func (s *MemoryStore) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

func (s *MemoryStore) shouldFail() bool {
	s.calls++
	if s.failAll {
		return true
	}
	if s.failNext > 0 {
		s.failNext--
		return true
	}
	return false
}

// Get returns the document, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail() {
		return nil, s.failErr
	}
	doc, ok := s.docs[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), doc...), nil
}

// Query returns all documents in the collection matching the filter.
func (s *MemoryStore) Query(ctx context.Context, collection string, filter Filter) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail() {
		return nil, s.failErr
	}

	var docs [][]byte
	for _, doc := range s.docs[collection] {
		if filter.Field != "" && fieldValue(doc, filter.Field) != filter.Value {
			continue
		}
		docs = append(docs, append([]byte(nil), doc...))
	}
	return docs, nil
}

// Set writes the document, creating or replacing it.
func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail() {
		return s.failErr
	}
	s.put(collection, id, doc)
	return nil
}

// Delete removes the document.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail() {
		return s.failErr
	}
	delete(s.docs[collection], id)
	return nil
}

// CompareAndSet mirrors the production guard semantics.
func (s *MemoryStore) CompareAndSet(ctx context.Context, collection, id string, doc []byte, expectedStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail() {
		return s.failErr
	}

	stored, ok := s.docs[collection][id]
	if ok && fieldValue(stored, "status") != expectedStatus {
		return ErrGuardFailed
	}
	s.put(collection, id, doc)
	return nil
}

// Len returns the number of documents in a collection.
func (s *MemoryStore) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs[collection])
}

func (s *MemoryStore) put(collection, id string, doc []byte) {
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string][]byte)
	}
	s.docs[collection][id] = append([]byte(nil), doc...)
}

// fieldValue extracts a top-level string field from a JSON document.
func fieldValue(doc []byte, field string) string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(doc, &m); err != nil {
		return ""
	}
	var v string
	if err := json.Unmarshal(m[field], &v); err != nil {
		return ""
	}
	return v
}
