package models

import (
	"time"

	"github.com/google/uuid"
)

// levelThresholds maps the minimum trade score required for each level,
// in ascending order. Level is always derived, never stored independently
// of the score.
var levelThresholds = []int{0, 100, 250, 500, 1000, 2000, 5000}

// LevelForScore returns the level for a trade score. Levels start at 1 and
// are monotonic in the score.
func LevelForScore(score int) int {
	level := 1
	for i, threshold := range levelThresholds {
		if score >= threshold {
			level = i + 1
		}
	}
	return level
}

// User is a participant profile. TradeScore and CarbonSaved only ever grow,
// through trade history accrual.
type User struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	Location        *Location `json:"location,omitempty"`
	TradeScore      int       `json:"trade_score"`
	Level           int       `json:"level"`
	CarbonSaved     float64   `json:"carbon_saved"`
	IsVerified      bool      `json:"is_verified"`
	CreatedAt       time.Time `json:"created_at"`
	LastActive      time.Time `json:"last_active"`
}
