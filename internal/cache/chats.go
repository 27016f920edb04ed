package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/codec"
	"github.com/swapcycle/swapcycle-api/internal/models"
)

const chatColumns = `id, participant_ids, offer_id, item_id, last_message,
	last_message_at, created_at, is_active, unread_counts`

const messageColumns = `id, chat_id, sender_id, receiver_id, content, timestamp, is_read, type`

// UpsertChat replaces the cached row for a chat.
func (s *Store) UpsertChat(ctx context.Context, chat *models.Chat) error {
	row := codec.EncodeChat(chat)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO chats (`+chatColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.ParticipantIDs, row.OfferID, row.ItemID, row.LastMessage,
		nullableTime(row.LastMessageAt), row.CreatedAt, row.IsActive, row.UnreadDoc,
	)
	if err != nil {
		return fmt.Errorf("upserting chat: %w", err)
	}
	s.hub.notify("chats")
	return nil
}

// GetChat returns a cached chat, or nil if it isn't cached.
func (s *Store) GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE id = ?`, id.String())
	chat, err := scanChat(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return chat, err
}

// GetChatByOffer returns the chat linked to an offer, or nil if none exists.
func (s *Store) GetChatByOffer(ctx context.Context, offerID uuid.UUID) (*models.Chat, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE offer_id = ? LIMIT 1`, offerID.String())
	chat, err := scanChat(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return chat, err
}

// ListChatsByUser returns all cached chats the user participates in, most
// recently active first.
func (s *Store) ListChatsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chatColumns+` FROM chats
		 WHERE participant_ids LIKE '%' || ? || '%'
		 ORDER BY last_message_at DESC, created_at DESC`,
		userID.String())
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	defer rows.Close()

	var chats []*models.Chat
	for rows.Next() {
		chat, err := scanChat(rows.Scan)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// ListChats returns every cached chat.
func (s *Store) ListChats(ctx context.Context) ([]*models.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+chatColumns+` FROM chats`)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	defer rows.Close()

	var chats []*models.Chat
	for rows.Next() {
		chat, err := scanChat(rows.Scan)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

func scanChat(scan func(...any) error) (*models.Chat, error) {
	var row codec.ChatRow
	var lastMessageAt sql.NullTime
	err := scan(&row.ID, &row.ParticipantIDs, &row.OfferID, &row.ItemID,
		&row.LastMessage, &lastMessageAt, &row.CreatedAt, &row.IsActive, &row.UnreadDoc)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning chat: %w", err)
	}
	if lastMessageAt.Valid {
		t := lastMessageAt.Time
		row.LastMessageAt = &t
	}
	return codec.DecodeChat(row)
}

// InsertMessage appends a message to the cache.
func (s *Store) InsertMessage(ctx context.Context, msg *models.ChatMessage) error {
	row := codec.EncodeMessage(msg)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO messages (`+messageColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.ChatID, row.SenderID, row.ReceiverID, row.Content,
		row.Timestamp, row.IsRead, row.Type,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	s.hub.notify("messages")
	return nil
}

// GetMessage returns a cached message, or nil if it isn't cached.
func (s *Store) GetMessage(ctx context.Context, id uuid.UUID) (*models.ChatMessage, error) {
	var row codec.MessageRow
	err := s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id.String(),
	).Scan(&row.ID, &row.ChatID, &row.SenderID, &row.ReceiverID, &row.Content,
		&row.Timestamp, &row.IsRead, &row.Type)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting message: %w", err)
	}
	return codec.DecodeMessage(row)
}

// ListMessages returns a chat's messages ordered by timestamp, insertion
// order breaking ties.
func (s *Store) ListMessages(ctx context.Context, chatID uuid.UUID) ([]*models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE chat_id = ? ORDER BY timestamp ASC, rowid ASC`,
		chatID.String())
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		var row codec.MessageRow
		if err := rows.Scan(&row.ID, &row.ChatID, &row.SenderID, &row.ReceiverID,
			&row.Content, &row.Timestamp, &row.IsRead, &row.Type); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg, err := codec.DecodeMessage(row)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ListAllMessages returns every cached message.
func (s *Store) ListAllMessages(ctx context.Context) ([]*models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages ORDER BY timestamp ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		var row codec.MessageRow
		if err := rows.Scan(&row.ID, &row.ChatID, &row.SenderID, &row.ReceiverID,
			&row.Content, &row.Timestamp, &row.IsRead, &row.Type); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg, err := codec.DecodeMessage(row)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// MarkMessagesRead flags all of a user's received messages in a chat as
// read and returns how many changed.
func (s *Store) MarkMessagesRead(ctx context.Context, chatID, readerID uuid.UUID) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE messages SET is_read = 1
		 WHERE chat_id = ? AND receiver_id = ? AND is_read = 0`,
		chatID.String(), readerID.String())
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		s.hub.notify("messages")
	}
	return int(n), nil
}
