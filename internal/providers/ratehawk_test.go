package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/models"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/secrets"
)

func testCreds() secrets.StaticSource {
	return secrets.StaticSource{
		"rate_hawk": {Username: "key-id", Password: "api-key"},
		"goglobal":  {Username: "user", Password: "pass", AgencyID: "9001"},
		"tbo":       {Username: "user", Password: "pass"},
	}
}

func searchCriteria() *models.SearchCriteria {
	return &models.SearchCriteria{
		Destination: "965847972",
		CheckIn:     time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2026, 9, 17, 0, 0, 0, 0, time.UTC),
		Rooms:       []models.RoomOccupancy{{Adults: 2, ChildrenAges: []int{7}}},
		Nationality: "PL",
		Currency:    "EUR",
	}
}

func TestRateHawkSearchParsesOffers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key-id" || pass != "api-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req rateHawkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.CheckIn != "2026-09-10" || req.Residency != "PL" {
			t.Errorf("unexpected request payload: %+v", req)
		}
		w.Write([]byte(`{
			"data": {"hotels": [{
				"id": "baros_maldives",
				"name": "Baros Maldives",
				"rates": [{
					"room_name": "Deluxe Villa",
					"meal": "breakfast",
					"payment_options": {"payment_types": [{
						"amount": "1234.50",
						"currency_code": "EUR",
						"cancellation_penalties": {"free_cancellation_before": "2026-09-01T00:00:00"}
					}]}
				}]
			}]}
		}`))
	}))
	defer srv.Close()

	p := NewRateHawk(srv.URL, testCreds(), 2*time.Second)
	offers, err := p.Search(context.Background(), searchCriteria())
	if err != nil {
		t.Fatal(err)
	}

	if len(offers) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(offers))
	}
	o := offers[0]
	if o.Provider != "rate_hawk" || o.SupplierHotelID != "baros_maldives" {
		t.Fatalf("unexpected offer identity: %+v", o)
	}
	if o.Price != 1234.50 || o.Currency != "EUR" {
		t.Fatalf("unexpected price: %+v", o)
	}
	if o.MealPlan != "breakfast" || o.FreeCancellationUntil == "" {
		t.Fatalf("unexpected offer details: %+v", o)
	}
}

func TestRateHawkSearchStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ErrorKind
	}{
		{"Unauthorized", http.StatusUnauthorized, KindAuth},
		{"PaymentRequired", http.StatusPaymentRequired, KindAuth},
		{"Throttled", http.StatusTooManyRequests, KindRateLimited},
		{"ServerError", http.StatusInternalServerError, KindTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			p := NewRateHawk(srv.URL, testCreds(), 2*time.Second)
			_, err := p.Search(context.Background(), searchCriteria())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != tt.want {
				t.Fatalf("status %d mapped to %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestRateHawkSearchMalformedBodyIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [broken`))
	}))
	defer srv.Close()

	p := NewRateHawk(srv.URL, testCreds(), 2*time.Second)
	_, err := p.Search(context.Background(), searchCriteria())
	if KindOf(err) != KindParse {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestRateHawkSearchInBodyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "invalid_params", "debug": {"validation_error": "region required"}}`))
	}))
	defer srv.Close()

	p := NewRateHawk(srv.URL, testCreds(), 2*time.Second)
	_, err := p.Search(context.Background(), searchCriteria())
	if KindOf(err) != KindParse {
		t.Fatalf("expected parse error for validation failure, got %v", err)
	}
}

func TestRateHawkMissingCredentialIsAuthError(t *testing.T) {
	p := NewRateHawk("http://unused", secrets.StaticSource{}, time.Second)
	_, err := p.Search(context.Background(), searchCriteria())
	if KindOf(err) != KindAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
}
