package codec

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcycle/swapcycle-api/internal/models"
)

func TestOfferRoundTrip(t *testing.T) {
	expires := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	offer := &models.Offer{
		ID:              uuid.New(),
		FromUserID:      uuid.New(),
		ToUserID:        uuid.New(),
		RequestedItemID: uuid.New(),
		OfferedItemIDs:  []uuid.UUID{uuid.New(), uuid.New()},
		Status:          models.OfferAccepted,
		Message:         "would love to swap",
		CashAmount:      12.50,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
		UpdatedAt:       time.Now().UTC().Truncate(time.Second),
		ExpiresAt:       &expires,
		Meetup: &models.Meetup{
			ID:             uuid.New(),
			ParticipantIDs: []uuid.UUID{uuid.New(), uuid.New()},
			Status:         models.MeetupScheduled,
			Type:           models.MeetupPickup,
			ScheduledAt:    time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second),
		},
	}
	offer.Meetup.OfferID = offer.ID

	decoded, err := DecodeOffer(EncodeOffer(offer))
	require.NoError(t, err)
	assert.Equal(t, offer, decoded)
}

func TestOfferRoundTripMinimal(t *testing.T) {
	offer := &models.Offer{
		ID:              uuid.New(),
		FromUserID:      uuid.New(),
		ToUserID:        uuid.New(),
		RequestedItemID: uuid.New(),
		Status:          models.OfferPending,
		CashAmount:      20,
	}

	decoded, err := DecodeOffer(EncodeOffer(offer))
	require.NoError(t, err)
	assert.Nil(t, decoded.Meetup)
	assert.Nil(t, decoded.ExpiresAt)
	assert.Empty(t, decoded.OfferedItemIDs)
	assert.Equal(t, offer.ID, decoded.ID)
}

func TestDecodeOfferMalformedMeetupDegrades(t *testing.T) {
	row := EncodeOffer(&models.Offer{
		ID:              uuid.New(),
		FromUserID:      uuid.New(),
		ToUserID:        uuid.New(),
		RequestedItemID: uuid.New(),
		Status:          models.OfferPending,
	})
	row.MeetupDoc = "{not json"

	decoded, err := DecodeOffer(row)
	require.NoError(t, err)
	assert.Nil(t, decoded.Meetup)
}

func TestDecodeOfferBadIDFails(t *testing.T) {
	row := EncodeOffer(&models.Offer{
		ID:              uuid.New(),
		FromUserID:      uuid.New(),
		ToUserID:        uuid.New(),
		RequestedItemID: uuid.New(),
	})
	row.FromUserID = "nope"

	_, err := DecodeOffer(row)
	assert.Error(t, err)
}

func TestDecodeOfferDropsMalformedListTokens(t *testing.T) {
	good := uuid.New()
	row := EncodeOffer(&models.Offer{
		ID:              uuid.New(),
		FromUserID:      uuid.New(),
		ToUserID:        uuid.New(),
		RequestedItemID: uuid.New(),
	})
	row.OfferedItemIDs = good.String() + "|garbage|"

	decoded, err := DecodeOffer(row)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{good}, decoded.OfferedItemIDs)
}

func TestItemRoundTrip(t *testing.T) {
	item := &models.Item{
		ID:          uuid.New(),
		Name:        "Mountain bike",
		Description: "hardly used",
		Category:    models.CategorySports,
		Condition:   models.ConditionGood,
		Images:      []string{"https://cdn.example/a.jpg", "https://cdn.example/b.jpg"},
		OwnerID:     uuid.New(),
		Location: &models.Location{
			Name:      "Mitte",
			Latitude:  52.52,
			Longitude: 13.40,
		},
		DesiredTrades: "camping gear",
		IsAvailable:   true,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
		UpdatedAt:     time.Now().UTC().Truncate(time.Second),
		ViewCount:     7,
		PitchCount:    2,
	}

	decoded, err := DecodeItem(EncodeItem(item))
	require.NoError(t, err)
	assert.Equal(t, item, decoded)
}

func TestItemRoundTripExcludesDisplayFields(t *testing.T) {
	item := &models.Item{
		ID:       uuid.New(),
		Name:     "Lamp",
		OwnerID:  uuid.New(),
		Distance: 3.2,
		Owner:    &models.User{ID: uuid.New(), Name: "Sam"},
	}

	decoded, err := DecodeItem(EncodeItem(item))
	require.NoError(t, err)
	assert.Zero(t, decoded.Distance)
	assert.Nil(t, decoded.Owner)
}

func TestChatRoundTrip(t *testing.T) {
	offerID := uuid.New()
	itemID := uuid.New()
	lastAt := time.Now().UTC().Truncate(time.Second)
	chat := &models.Chat{
		ID:             uuid.New(),
		ParticipantIDs: []uuid.UUID{uuid.New(), uuid.New()},
		OfferID:        &offerID,
		ItemID:         &itemID,
		LastMessage:    "see you at 5",
		LastMessageAt:  &lastAt,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
		IsActive:       true,
		UnreadCounts:   map[string]int{uuid.New().String(): 3},
	}

	decoded, err := DecodeChat(EncodeChat(chat))
	require.NoError(t, err)
	assert.Equal(t, chat, decoded)
}

func TestHistoryRoundTrip(t *testing.T) {
	h := &models.TradeHistory{
		ID:             uuid.New(),
		OfferID:        uuid.New(),
		ParticipantIDs: []uuid.UUID{uuid.New(), uuid.New()},
		ItemsTraded: []models.TradedItem{
			{ItemID: uuid.New(), UserID: uuid.New(), ItemName: "Kettle", ItemImage: "https://cdn.example/k.jpg"},
		},
		CompletedAt:      time.Now().UTC().Truncate(time.Second),
		MeetupID:         uuid.New(),
		CarbonSaved:      8.0,
		TradeScoreEarned: 50,
		Ratings: []models.Rating{
			{RaterID: uuid.New(), Stars: 5, Comment: "great trade", RatedAt: time.Now().UTC().Truncate(time.Second)},
		},
	}

	decoded, err := DecodeHistory(EncodeHistory(h))
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
}

func TestUserRoundTrip(t *testing.T) {
	user := &models.User{
		ID:              uuid.New(),
		Name:            "Riley",
		Email:           "riley@example.com",
		ProfileImageURL: "https://cdn.example/r.jpg",
		Location:        &models.Location{Latitude: 59.33, Longitude: 18.07},
		TradeScore:      275,
		Level:           models.LevelForScore(275),
		CarbonSaved:     41.5,
		IsVerified:      true,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
		LastActive:      time.Now().UTC().Truncate(time.Second),
	}

	decoded, err := DecodeUser(EncodeUser(user))
	require.NoError(t, err)
	assert.Equal(t, user, decoded)
}
