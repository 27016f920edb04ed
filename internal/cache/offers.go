package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/swapcycle/swapcycle-api/internal/codec"
	"github.com/swapcycle/swapcycle-api/internal/models"
)

const offerColumns = `id, from_user_id, to_user_id, requested_item_id, offered_item_ids,
	status, message, cash_amount, created_at, updated_at, expires_at, meetup`

// UpsertOffer replaces the cached row for an offer.
func (s *Store) UpsertOffer(ctx context.Context, offer *models.Offer) error {
	row := codec.EncodeOffer(offer)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO offers (`+offerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.FromUserID, row.ToUserID, row.RequestedItemID, row.OfferedItemIDs,
		row.Status, row.Message, row.CashAmount, row.CreatedAt, row.UpdatedAt,
		nullableTime(row.ExpiresAt), row.MeetupDoc,
	)
	if err != nil {
		return fmt.Errorf("upserting offer: %w", err)
	}
	s.hub.notify("offers")
	return nil
}

// GetOffer returns a cached offer, or nil if it isn't cached.
func (s *Store) GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE id = ?`, id.String())
	offer, err := scanOffer(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return offer, err
}

// ListOffersByUser returns all cached offers the user is a party to.
func (s *Store) ListOffersByUser(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error) {
	return s.queryOffers(ctx,
		`SELECT `+offerColumns+` FROM offers
		 WHERE from_user_id = ? OR to_user_id = ?
		 ORDER BY created_at DESC`,
		userID.String(), userID.String())
}

// ListOffersReferencingItem returns all cached offers that request or offer
// the given item.
func (s *Store) ListOffersReferencingItem(ctx context.Context, itemID uuid.UUID) ([]*models.Offer, error) {
	id := itemID.String()
	return s.queryOffers(ctx,
		`SELECT `+offerColumns+` FROM offers
		 WHERE requested_item_id = ? OR offered_item_ids LIKE '%' || ? || '%'`,
		id, id)
}

// ListExpirableOffers returns cached non-terminal offers whose deadline has
// passed as of now.
func (s *Store) ListExpirableOffers(ctx context.Context, now time.Time) ([]*models.Offer, error) {
	return s.queryOffers(ctx,
		`SELECT `+offerColumns+` FROM offers
		 WHERE status IN ('pending', 'accepted') AND expires_at IS NOT NULL AND expires_at < ?`,
		now)
}

// ListOffers returns every cached offer.
func (s *Store) ListOffers(ctx context.Context) ([]*models.Offer, error) {
	return s.queryOffers(ctx, `SELECT `+offerColumns+` FROM offers ORDER BY created_at DESC`)
}

func (s *Store) queryOffers(ctx context.Context, query string, args ...any) ([]*models.Offer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing offers: %w", err)
	}
	defer rows.Close()

	var offers []*models.Offer
	for rows.Next() {
		offer, err := scanOffer(rows.Scan)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

func scanOffer(scan func(...any) error) (*models.Offer, error) {
	var row codec.OfferRow
	var expiresAt sql.NullTime
	err := scan(&row.ID, &row.FromUserID, &row.ToUserID, &row.RequestedItemID,
		&row.OfferedItemIDs, &row.Status, &row.Message, &row.CashAmount,
		&row.CreatedAt, &row.UpdatedAt, &expiresAt, &row.MeetupDoc)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning offer: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		row.ExpiresAt = &t
	}
	return codec.DecodeOffer(row)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
