package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemCategory classifies a tradeable item.
type ItemCategory string

const (
	CategoryElectronics ItemCategory = "electronics"
	CategoryClothing    ItemCategory = "clothing"
	CategoryBooks       ItemCategory = "books"
	CategoryFurniture   ItemCategory = "furniture"
	CategoryToys        ItemCategory = "toys"
	CategorySports      ItemCategory = "sports"
	CategoryTools       ItemCategory = "tools"
	CategoryOther       ItemCategory = "other"
)

// ItemCondition describes the wear state of an item.
type ItemCondition string

const (
	ConditionNew     ItemCondition = "new"
	ConditionLikeNew ItemCondition = "like_new"
	ConditionGood    ItemCondition = "good"
	ConditionFair    ItemCondition = "fair"
	ConditionPoor    ItemCondition = "poor"
)

// Location is a named coordinate with an optional address.
type Location struct {
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Item is a tradeable listing owned by a user.
type Item struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Category      ItemCategory  `json:"category"`
	Condition     ItemCondition `json:"condition"`
	Images        []string      `json:"images"`
	OwnerID       uuid.UUID     `json:"owner_id"`
	Location      *Location     `json:"location,omitempty"`
	DesiredTrades string        `json:"desired_trades,omitempty"`
	IsAvailable   bool          `json:"is_available"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	ViewCount     int           `json:"view_count"`
	PitchCount    int           `json:"pitch_count"`

	// Distance is recomputed per viewer and never persisted.
	Distance float64 `json:"distance,omitempty"`

	// Owner is joined at read time for API responses, not stored.
	Owner *User `json:"owner,omitempty"`
}
