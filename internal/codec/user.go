package codec

import (
	"time"

	"github.com/swapcycle/swapcycle-api/internal/models"
)

// UserRow is the flat persisted shape of a user profile.
type UserRow struct {
	ID              string
	Name            string
	Email           string
	ProfileImageURL string
	LocationDoc     string
	TradeScore      int
	Level           int
	CarbonSaved     float64
	IsVerified      bool
	CreatedAt       time.Time
	LastActive      time.Time
}

// EncodeUser flattens a user into its row shape.
func EncodeUser(user *models.User) UserRow {
	return UserRow{
		ID:              user.ID.String(),
		Name:            user.Name,
		Email:           user.Email,
		ProfileImageURL: user.ProfileImageURL,
		LocationDoc:     encodeDoc(user.Location),
		TradeScore:      user.TradeScore,
		Level:           user.Level,
		CarbonSaved:     user.CarbonSaved,
		IsVerified:      user.IsVerified,
		CreatedAt:       user.CreatedAt,
		LastActive:      user.LastActive,
	}
}

// DecodeUser rebuilds a user from its row shape.
func DecodeUser(row UserRow) (*models.User, error) {
	id, err := parseID(row.ID, "user id")
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:              id,
		Name:            row.Name,
		Email:           row.Email,
		ProfileImageURL: row.ProfileImageURL,
		Location:        decodeDoc[models.Location](row.LocationDoc, "user location"),
		TradeScore:      row.TradeScore,
		Level:           row.Level,
		CarbonSaved:     row.CarbonSaved,
		IsVerified:      row.IsVerified,
		CreatedAt:       row.CreatedAt,
		LastActive:      row.LastActive,
	}, nil
}
