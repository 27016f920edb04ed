package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/codec"
	"github.com/swapcycle/swapcycle-api/internal/models"
)

const historyColumns = `id, offer_id, participant_ids, items_traded, completed_at,
	meetup_id, ratings, carbon_saved, trade_score_earned`

// UpsertHistory replaces the cached row for a trade history record.
func (s *Store) UpsertHistory(ctx context.Context, h *models.TradeHistory) error {
	row := codec.EncodeHistory(h)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO trade_history (`+historyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.OfferID, row.ParticipantIDs, row.ItemsDoc, row.CompletedAt,
		row.MeetupID, row.RatingsDoc, row.CarbonSaved, row.TradeScoreEarned,
	)
	if err != nil {
		return fmt.Errorf("upserting trade history: %w", err)
	}
	s.hub.notify("trade_history")
	return nil
}

// GetHistory returns a cached trade history record, or nil if absent.
func (s *Store) GetHistory(ctx context.Context, id uuid.UUID) (*models.TradeHistory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM trade_history WHERE id = ?`, id.String())
	h, err := scanHistory(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return h, err
}

// GetHistoryByOffer returns the trade history for an offer, or nil if the
// offer never completed. This is the exactly-once accrual guard.
func (s *Store) GetHistoryByOffer(ctx context.Context, offerID uuid.UUID) (*models.TradeHistory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM trade_history WHERE offer_id = ?`, offerID.String())
	h, err := scanHistory(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return h, err
}

// ListHistoryByUser returns all trade history the user participated in,
// most recent first.
func (s *Store) ListHistoryByUser(ctx context.Context, userID uuid.UUID) ([]*models.TradeHistory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM trade_history
		 WHERE participant_ids LIKE '%' || ? || '%'
		 ORDER BY completed_at DESC`,
		userID.String())
	if err != nil {
		return nil, fmt.Errorf("listing trade history: %w", err)
	}
	defer rows.Close()

	var records []*models.TradeHistory
	for rows.Next() {
		h, err := scanHistory(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, h)
	}
	return records, rows.Err()
}

// ListAllHistory returns every cached trade history record.
func (s *Store) ListAllHistory(ctx context.Context) ([]*models.TradeHistory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+historyColumns+` FROM trade_history`)
	if err != nil {
		return nil, fmt.Errorf("listing trade history: %w", err)
	}
	defer rows.Close()

	var records []*models.TradeHistory
	for rows.Next() {
		h, err := scanHistory(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, h)
	}
	return records, rows.Err()
}

func scanHistory(scan func(...any) error) (*models.TradeHistory, error) {
	var row codec.HistoryRow
	err := scan(&row.ID, &row.OfferID, &row.ParticipantIDs, &row.ItemsDoc,
		&row.CompletedAt, &row.MeetupID, &row.RatingsDoc, &row.CarbonSaved,
		&row.TradeScoreEarned)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning trade history: %w", err)
	}
	return codec.DecodeHistory(row)
}
