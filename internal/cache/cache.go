// Package cache is the on-device mirror of the remote store: a sqlite
// database holding the last-known copy of every entity, durable across
// restarts and the single source for instant reads. All writes are
// whole-row replacements, so a cancelled operation either fully lands or
// not at all.
package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens the cache database and configures pragmas.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return db, nil
}

// schema is the full cache schema. Composite fields are flat text columns
// written and read through the codec package.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    category       TEXT NOT NULL DEFAULT 'other',
    condition      TEXT NOT NULL DEFAULT 'good',
    images         TEXT NOT NULL DEFAULT '',
    owner_id       TEXT NOT NULL,
    location       TEXT NOT NULL DEFAULT '',
    desired_trades TEXT NOT NULL DEFAULT '',
    is_available   INTEGER NOT NULL DEFAULT 1,
    created_at     DATETIME NOT NULL,
    updated_at     DATETIME NOT NULL,
    view_count     INTEGER NOT NULL DEFAULT 0,
    pitch_count    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id);

CREATE TABLE IF NOT EXISTS offers (
    id                TEXT PRIMARY KEY,
    from_user_id      TEXT NOT NULL,
    to_user_id        TEXT NOT NULL,
    requested_item_id TEXT NOT NULL,
    offered_item_ids  TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL DEFAULT 'pending',
    message           TEXT NOT NULL DEFAULT '',
    cash_amount       REAL NOT NULL DEFAULT 0,
    created_at        DATETIME NOT NULL,
    updated_at        DATETIME NOT NULL,
    expires_at        DATETIME,
    meetup            TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_offers_from ON offers(from_user_id);
CREATE INDEX IF NOT EXISTS idx_offers_to ON offers(to_user_id);
CREATE INDEX IF NOT EXISTS idx_offers_status ON offers(status);

CREATE TABLE IF NOT EXISTS chats (
    id              TEXT PRIMARY KEY,
    participant_ids TEXT NOT NULL,
    offer_id        TEXT NOT NULL DEFAULT '',
    item_id         TEXT NOT NULL DEFAULT '',
    last_message    TEXT NOT NULL DEFAULT '',
    last_message_at DATETIME,
    created_at      DATETIME NOT NULL,
    is_active       INTEGER NOT NULL DEFAULT 1,
    unread_counts   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_chats_offer ON chats(offer_id);

CREATE TABLE IF NOT EXISTS messages (
    id          TEXT PRIMARY KEY,
    chat_id     TEXT NOT NULL,
    sender_id   TEXT NOT NULL,
    receiver_id TEXT NOT NULL,
    content     TEXT NOT NULL DEFAULT '',
    timestamp   DATETIME NOT NULL,
    is_read     INTEGER NOT NULL DEFAULT 0,
    type        TEXT NOT NULL DEFAULT 'text'
);

CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, timestamp);

CREATE TABLE IF NOT EXISTS trade_history (
    id                 TEXT PRIMARY KEY,
    offer_id           TEXT NOT NULL UNIQUE,
    participant_ids    TEXT NOT NULL,
    items_traded       TEXT NOT NULL DEFAULT '',
    completed_at       DATETIME NOT NULL,
    meetup_id          TEXT NOT NULL DEFAULT '',
    ratings            TEXT NOT NULL DEFAULT '',
    carbon_saved       REAL NOT NULL DEFAULT 0,
    trade_score_earned INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS users (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL DEFAULT '',
    email             TEXT NOT NULL DEFAULT '',
    profile_image_url TEXT NOT NULL DEFAULT '',
    location          TEXT NOT NULL DEFAULT '',
    trade_score       INTEGER NOT NULL DEFAULT 0,
    level             INTEGER NOT NULL DEFAULT 1,
    carbon_saved      REAL NOT NULL DEFAULT 0,
    is_verified       INTEGER NOT NULL DEFAULT 0,
    created_at        DATETIME NOT NULL,
    last_active       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS pending_writes (
    collection TEXT NOT NULL,
    entity_id  TEXT NOT NULL,
    queued_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (collection, entity_id)
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating cache schema: %w", err)
	}
	return nil
}

// Store wraps the cache database with typed per-entity accessors and a
// change-notification hub backing the stream variants of reads.
type Store struct {
	db  *sql.DB
	hub *hub
}

// New wraps an opened cache database.
func New(db *sql.DB) *Store {
	return &Store{db: db, hub: newHub()}
}

// Watch returns a channel that receives a signal after any committed write
// to the given table. The channel is buffered; slow consumers coalesce
// signals instead of blocking writers.
func (s *Store) Watch(table string) <-chan struct{} {
	return s.hub.watch(table)
}

// Unwatch removes a watcher previously returned by Watch.
func (s *Store) Unwatch(table string, ch <-chan struct{}) {
	s.hub.unwatch(table, ch)
}
