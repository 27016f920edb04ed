package codec

import (
	"time"

	"github.com/swapcycle/swapcycle-api/internal/models"
)

// OfferRow is the flat persisted shape of an offer. The embedded meetup is
// carried as a JSON document column.
type OfferRow struct {
	ID              string
	FromUserID      string
	ToUserID        string
	RequestedItemID string
	OfferedItemIDs  string
	Status          string
	Message         string
	CashAmount      float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       *time.Time
	MeetupDoc       string
}

// EncodeOffer flattens an offer into its row shape.
func EncodeOffer(offer *models.Offer) OfferRow {
	return OfferRow{
		ID:              offer.ID.String(),
		FromUserID:      offer.FromUserID.String(),
		ToUserID:        offer.ToUserID.String(),
		RequestedItemID: offer.RequestedItemID.String(),
		OfferedItemIDs:  joinIDs(offer.OfferedItemIDs),
		Status:          string(offer.Status),
		Message:         offer.Message,
		CashAmount:      offer.CashAmount,
		CreatedAt:       offer.CreatedAt,
		UpdatedAt:       offer.UpdatedAt,
		ExpiresAt:       offer.ExpiresAt,
		MeetupDoc:       encodeDoc(offer.Meetup),
	}
}

// DecodeOffer rebuilds an offer from its row shape. A malformed meetup
// document degrades to no meetup; malformed party ids are hard errors.
func DecodeOffer(row OfferRow) (*models.Offer, error) {
	id, err := parseID(row.ID, "offer id")
	if err != nil {
		return nil, err
	}
	fromID, err := parseID(row.FromUserID, "offer sender id")
	if err != nil {
		return nil, err
	}
	toID, err := parseID(row.ToUserID, "offer receiver id")
	if err != nil {
		return nil, err
	}
	requestedID, err := parseID(row.RequestedItemID, "offer requested item id")
	if err != nil {
		return nil, err
	}

	return &models.Offer{
		ID:              id,
		FromUserID:      fromID,
		ToUserID:        toID,
		RequestedItemID: requestedID,
		OfferedItemIDs:  splitIDs(row.OfferedItemIDs),
		Status:          models.OfferStatus(row.Status),
		Message:         row.Message,
		CashAmount:      row.CashAmount,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		ExpiresAt:       row.ExpiresAt,
		Meetup:          decodeDoc[models.Meetup](row.MeetupDoc, "offer meetup"),
	}, nil
}
