// Package codec maps the in-memory entity shapes onto the flat row shapes
// the local cache persists. Encoding is deterministic; decoding is lossy but
// safe for nested fields (malformed input degrades to nil, never an error),
// while a missing or malformed id is a hard error.
package codec

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
)

// listSep joins scalar list tokens inside a single text column.
const listSep = "|"

func joinStrings(values []string) string {
	return strings.Join(values, listSep)
}

func splitStrings(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSep)
}

func joinIDs(ids []uuid.UUID) string {
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = id.String()
	}
	return strings.Join(tokens, listSep)
}

// splitIDs parses a pipe-joined id list. Malformed tokens are dropped with a
// log line rather than failing the whole row.
func splitIDs(s string) []uuid.UUID {
	if s == "" {
		return nil
	}
	var ids []uuid.UUID
	for _, token := range strings.Split(s, listSep) {
		id, err := uuid.Parse(token)
		if err != nil {
			log.Printf("codec: dropping malformed id token %q: %v", token, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// encodeDoc serializes a nested object into its text column. Marshal failures
// cannot occur for the entity shapes used here; an empty document is encoded
// as the empty string.
func encodeDoc(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("codec: encoding nested document: %v", err)
		return ""
	}
	return string(data)
}

// decodeDoc parses a nested object from its text column. Blank input yields
// nil; malformed input yields nil with a log line.
func decodeDoc[T any](s, field string) *T {
	if s == "" || s == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		log.Printf("codec: dropping malformed %s document: %v", field, err)
		return nil
	}
	return &v
}

// parseID parses a required id column. Absence or corruption is a hard
// decode error.
func parseID(s, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("decoding %s: %w", field, err)
	}
	return id, nil
}

// parseOptionalID parses a nullable id column stored as the empty string.
func parseOptionalID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		log.Printf("codec: dropping malformed optional id %q: %v", s, err)
		return nil
	}
	return &id
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
