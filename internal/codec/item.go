package codec

import (
	"time"

	"github.com/swapcycle/swapcycle-api/internal/models"
)

// ItemRow is the flat persisted shape of an item. Display-only fields
// (Distance, Owner) are excluded and reconstructed at read time.
type ItemRow struct {
	ID            string
	Name          string
	Description   string
	Category      string
	Condition     string
	Images        string
	OwnerID       string
	LocationDoc   string
	DesiredTrades string
	IsAvailable   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ViewCount     int
	PitchCount    int
}

// EncodeItem flattens an item into its row shape.
func EncodeItem(item *models.Item) ItemRow {
	return ItemRow{
		ID:            item.ID.String(),
		Name:          item.Name,
		Description:   item.Description,
		Category:      string(item.Category),
		Condition:     string(item.Condition),
		Images:        joinStrings(item.Images),
		OwnerID:       item.OwnerID.String(),
		LocationDoc:   encodeDoc(item.Location),
		DesiredTrades: item.DesiredTrades,
		IsAvailable:   item.IsAvailable,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
		ViewCount:     item.ViewCount,
		PitchCount:    item.PitchCount,
	}
}

// DecodeItem rebuilds an item from its row shape.
func DecodeItem(row ItemRow) (*models.Item, error) {
	id, err := parseID(row.ID, "item id")
	if err != nil {
		return nil, err
	}
	ownerID, err := parseID(row.OwnerID, "item owner id")
	if err != nil {
		return nil, err
	}

	return &models.Item{
		ID:            id,
		Name:          row.Name,
		Description:   row.Description,
		Category:      models.ItemCategory(row.Category),
		Condition:     models.ItemCondition(row.Condition),
		Images:        splitStrings(row.Images),
		OwnerID:       ownerID,
		Location:      decodeDoc[models.Location](row.LocationDoc, "item location"),
		DesiredTrades: row.DesiredTrades,
		IsAvailable:   row.IsAvailable,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		ViewCount:     row.ViewCount,
		PitchCount:    row.PitchCount,
	}, nil
}
