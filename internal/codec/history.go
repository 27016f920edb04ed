package codec

import (
	"time"

	"github.com/swapcycle/swapcycle-api/internal/models"
)

// HistoryRow is the flat persisted shape of a trade history record. Item
// snapshots and ratings are carried as JSON document columns.
type HistoryRow struct {
	ID               string
	OfferID          string
	ParticipantIDs   string
	ItemsDoc         string
	CompletedAt      time.Time
	MeetupID         string
	RatingsDoc       string
	CarbonSaved      float64
	TradeScoreEarned int
}

// EncodeHistory flattens a trade history record into its row shape.
func EncodeHistory(h *models.TradeHistory) HistoryRow {
	items := ""
	if len(h.ItemsTraded) > 0 {
		items = encodeDoc(h.ItemsTraded)
	}
	ratings := ""
	if len(h.Ratings) > 0 {
		ratings = encodeDoc(h.Ratings)
	}
	return HistoryRow{
		ID:               h.ID.String(),
		OfferID:          h.OfferID.String(),
		ParticipantIDs:   joinIDs(h.ParticipantIDs),
		ItemsDoc:         items,
		CompletedAt:      h.CompletedAt,
		MeetupID:         h.MeetupID.String(),
		RatingsDoc:       ratings,
		CarbonSaved:      h.CarbonSaved,
		TradeScoreEarned: h.TradeScoreEarned,
	}
}

// DecodeHistory rebuilds a trade history record from its row shape.
func DecodeHistory(row HistoryRow) (*models.TradeHistory, error) {
	id, err := parseID(row.ID, "history id")
	if err != nil {
		return nil, err
	}
	offerID, err := parseID(row.OfferID, "history offer id")
	if err != nil {
		return nil, err
	}

	meetupID := parseOptionalID(row.MeetupID)
	h := &models.TradeHistory{
		ID:               id,
		OfferID:          offerID,
		ParticipantIDs:   splitIDs(row.ParticipantIDs),
		CompletedAt:      row.CompletedAt,
		CarbonSaved:      row.CarbonSaved,
		TradeScoreEarned: row.TradeScoreEarned,
	}
	if meetupID != nil {
		h.MeetupID = *meetupID
	}
	if items := decodeDoc[[]models.TradedItem](row.ItemsDoc, "history item snapshots"); items != nil {
		h.ItemsTraded = *items
	}
	if ratings := decodeDoc[[]models.Rating](row.RatingsDoc, "history ratings"); ratings != nil {
		h.Ratings = *ratings
	}
	return h, nil
}
