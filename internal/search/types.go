package search

import (
	"github.com/Data-Cubed-CE/carter-api-integration/internal/match"
)

// UnifiedOffer is one provider rate after normalization: canonical hotel,
// canonical room type and canonical meal category attached.
type UnifiedOffer struct {
	OfferID               string         `json:"offer_id"`
	Provider              string         `json:"provider"`
	SupplierHotelID       string         `json:"supplier_hotel_id,omitempty"`
	RoomDescription       string         `json:"room_description"`
	RoomConfidence        float64        `json:"room_confidence"`
	MealPlan              match.MealPlan `json:"meal_plan"`
	Price                 float64        `json:"price"`
	Currency              string         `json:"currency"`
	FreeCancellationUntil string         `json:"free_cancellation_until,omitempty"`
}

// RoomGroup collects offers classified into the same canonical room type,
// sorted by ascending price. CurrencyMismatch marks a group whose offers are
// not all quoted in one currency, so the price ordering is advisory there.
type RoomGroup struct {
	RoomType         match.CanonicalRoomType `json:"room_type"`
	CurrencyMismatch bool                    `json:"currency_mismatch,omitempty"`
	Offers           []UnifiedOffer          `json:"offers"`
}

// HotelGroup is one canonical hotel with its room groups.
type HotelGroup struct {
	Hotel    match.CanonicalHotel `json:"hotel"`
	MinPrice float64              `json:"min_price"`
	Currency string               `json:"currency"`
	Rooms    []RoomGroup          `json:"rooms"`
}

// ProviderStatus reports how one provider fared in the dispatch.
type ProviderStatus struct {
	Provider   string `json:"provider"`
	Outcome    string `json:"outcome"`
	ErrorKind  string `json:"error_kind,omitempty"`
	LatencyMs  int64  `json:"latency_ms"`
	OfferCount int    `json:"offer_count"`
}

type Stats struct {
	ProvidersTotal     int    `json:"providers_total"`
	ProvidersSucceeded int    `json:"providers_succeeded"`
	ProvidersFailed    int    `json:"providers_failed"`
	ProvidersSkipped   int    `json:"providers_skipped"`
	Cache              string `json:"cache"`
	DurationMs         int64  `json:"duration_ms"`
}

// SearchResponse is the full API payload for one search.
type SearchResponse struct {
	RequestID string           `json:"request_id"`
	Stats     Stats            `json:"stats"`
	Providers []ProviderStatus `json:"providers"`
	Hotels    []HotelGroup     `json:"hotels"`
}
