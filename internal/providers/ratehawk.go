package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/models"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/secrets"
)

// RateHawk speaks the ETG JSON API with HTTP Basic auth.
type RateHawk struct {
	name    string
	baseURL string
	creds   secrets.Source
	client  *http.Client
}

func NewRateHawk(baseURL string, creds secrets.Source, timeout time.Duration) *RateHawk {
	return &RateHawk{
		name:    "rate_hawk",
		baseURL: baseURL,
		creds:   creds,
		client:  newPooledClient(timeout),
	}
}

func (p *RateHawk) Name() string { return p.name }

type rateHawkGuests struct {
	Adults   int   `json:"adults"`
	Children []int `json:"children"`
}

type rateHawkRequest struct {
	CheckIn   string           `json:"checkin"`
	CheckOut  string           `json:"checkout"`
	Residency string           `json:"residency"`
	Guests    []rateHawkGuests `json:"guests"`
	Region    string           `json:"region,omitempty"`
	Currency  string           `json:"currency"`
}

type rateHawkResponse struct {
	Data struct {
		Hotels []struct {
			ID    string `json:"id"`
			HID   int64  `json:"hid"`
			Name  string `json:"name"`
			Rates []struct {
				RoomName       string   `json:"room_name"`
				Meal           string   `json:"meal"`
				Amenities      []string `json:"amenities_data"`
				PaymentOptions struct {
					PaymentTypes []struct {
						Amount       string `json:"amount"`
						CurrencyCode string `json:"currency_code"`
						CancellationPenalties struct {
							FreeCancellationBefore string `json:"free_cancellation_before"`
						} `json:"cancellation_penalties"`
					} `json:"payment_types"`
				} `json:"payment_options"`
			} `json:"rates"`
		} `json:"hotels"`
	} `json:"data"`
	Error string `json:"error"`
	Debug struct {
		ValidationError string `json:"validation_error"`
	} `json:"debug"`
}

func (p *RateHawk) Search(ctx context.Context, criteria *models.SearchCriteria) ([]RawOffer, error) {
	cred, err := p.creds.Credential(p.name)
	if err != nil {
		return nil, NewError(p.name, KindAuth, err)
	}

	guests := make([]rateHawkGuests, 0, len(criteria.Rooms))
	for _, room := range criteria.Rooms {
		children := room.ChildrenAges
		if children == nil {
			children = []int{}
		}
		guests = append(guests, rateHawkGuests{Adults: room.Adults, Children: children})
	}

	payload := rateHawkRequest{
		CheckIn:   criteria.CheckIn.Format("2006-01-02"),
		CheckOut:  criteria.CheckOut.Format("2006-01-02"),
		Residency: criteria.Nationality,
		Guests:    guests,
		Region:    criteria.Destination,
		Currency:  criteria.Currency,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewError(p.name, KindParse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, NewError(p.name, KindTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(cred.Username, cred.Password)

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, NewError(p.name, KindTimeout, err)
		}
		return nil, NewError(p.name, KindTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusPaymentRequired:
		return nil, NewError(p.name, KindAuth, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewError(p.name, KindRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	default:
		return nil, NewError(p.name, KindTransport, fmt.Errorf("status %d", resp.StatusCode))
	}

	var decoded rateHawkResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, NewError(p.name, KindParse, err)
	}
	if decoded.Error != "" {
		if decoded.Debug.ValidationError != "" {
			return nil, NewError(p.name, KindParse, fmt.Errorf("%s: %s", decoded.Error, decoded.Debug.ValidationError))
		}
		return nil, NewError(p.name, KindTransport, fmt.Errorf("api error: %s", decoded.Error))
	}

	var offers []RawOffer
	for _, hotel := range decoded.Data.Hotels {
		hotelID := hotel.ID
		if hotelID == "" && hotel.HID != 0 {
			hotelID = fmt.Sprintf("%d", hotel.HID)
		}
		for _, rate := range hotel.Rates {
			if rate.RoomName == "" || len(rate.PaymentOptions.PaymentTypes) == 0 {
				continue
			}
			pay := rate.PaymentOptions.PaymentTypes[0]
			var price float64
			if _, err := fmt.Sscanf(pay.Amount, "%f", &price); err != nil || price <= 0 {
				continue
			}
			offers = append(offers, RawOffer{
				ID:                    uuid.NewString(),
				Provider:              p.name,
				SupplierHotelID:       hotelID,
				HotelName:             hotel.Name,
				RoomName:              rate.RoomName,
				MealPlan:              rate.Meal,
				Price:                 price,
				Currency:              pay.CurrencyCode,
				FreeCancellationUntil: pay.CancellationPenalties.FreeCancellationBefore,
				RoomFeatures:          rate.Amenities,
			})
		}
	}
	return offers, nil
}
