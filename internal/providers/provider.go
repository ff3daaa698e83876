package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/models"
)

// ErrorKind classifies a provider failure. Every adapter maps its wire-level
// failures onto this taxonomy so the orchestrator never branches on provider
// identity.
type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"
	KindAuth        ErrorKind = "auth"
	KindParse       ErrorKind = "parse"
	KindRateLimited ErrorKind = "rate_limited"
	KindTimeout     ErrorKind = "timeout"
)

// Error is the uniform failure type returned by adapters.
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(provider string, kind ErrorKind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}

// KindOf extracts the error kind, defaulting to transport for plain errors.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindTransport
}

// RawOffer is one rate as reported by a single provider, before any
// normalization. Owned by its originating adapter and read-only afterwards.
type RawOffer struct {
	ID                    string   `json:"id"`
	Provider              string   `json:"provider"`
	SupplierHotelID       string   `json:"supplier_hotel_id"`
	HotelName             string   `json:"hotel_name"`
	RoomName              string   `json:"room_name"`
	MealPlan              string   `json:"meal_plan"`
	Price                 float64  `json:"total_price"`
	Currency              string   `json:"currency"`
	FreeCancellationUntil string   `json:"free_cancellation_until,omitempty"`
	RoomFeatures          []string `json:"room_features,omitempty"`
}

// Adapter is the capability contract every provider integration satisfies.
// Search issues exactly one outbound call per invocation; retries belong to
// the orchestration layer so failure accounting stays centralized.
type Adapter interface {
	Name() string
	Search(ctx context.Context, criteria *models.SearchCriteria) ([]RawOffer, error)
}
