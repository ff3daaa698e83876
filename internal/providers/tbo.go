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

// TBO speaks a Basic-auth JSON API with contractual request quotas, so the
// adapter throttles its own outbound calls before touching the wire.
type TBO struct {
	name    string
	baseURL string
	creds   secrets.Source
	client  *http.Client
	bucket  *callBucket
}

func NewTBO(baseURL string, creds secrets.Source, timeout time.Duration, callsPerMinute int) *TBO {
	if callsPerMinute <= 0 {
		callsPerMinute = 30
	}
	return &TBO{
		name:    "tbo",
		baseURL: baseURL,
		creds:   creds,
		client:  newPooledClient(timeout),
		bucket:  newCallBucket(callsPerMinute, time.Minute),
	}
}

func (p *TBO) Name() string { return p.name }

type tboPaxRoom struct {
	Adults       int   `json:"Adults"`
	Children     int   `json:"Children"`
	ChildrenAges []int `json:"ChildrenAges,omitempty"`
}

type tboRequest struct {
	CheckIn            string       `json:"CheckIn"`
	CheckOut           string       `json:"CheckOut"`
	CityCode           string       `json:"CityCode"`
	GuestNationality   string       `json:"GuestNationality"`
	PaxRooms           []tboPaxRoom `json:"PaxRooms"`
	ResponseTime       float64      `json:"ResponseTime"`
	IsDetailedResponse bool         `json:"IsDetailedResponse"`
}

type tboResponse struct {
	Status struct {
		Code        int    `json:"Code"`
		Description string `json:"Description"`
	} `json:"Status"`
	HotelResult []struct {
		HotelCode string `json:"HotelCode"`
		HotelName string `json:"HotelName"`
		Currency  string `json:"Currency"`
		Rooms     []struct {
			Name           []string `json:"Name"`
			MealType       string   `json:"MealType"`
			TotalFare      float64  `json:"TotalFare"`
			Inclusion      string   `json:"Inclusion"`
			CancelPolicies []struct {
				FromDate           string  `json:"FromDate"`
				ChargeType         string  `json:"ChargeType"`
				CancellationCharge float64 `json:"CancellationCharge"`
			} `json:"CancelPolicies"`
		} `json:"Rooms"`
	} `json:"HotelResult"`
}

func (p *TBO) Search(ctx context.Context, criteria *models.SearchCriteria) ([]RawOffer, error) {
	if !p.bucket.Allow() {
		return nil, NewError(p.name, KindRateLimited, errors.New("client-side quota exhausted"))
	}

	cred, err := p.creds.Credential(p.name)
	if err != nil {
		return nil, NewError(p.name, KindAuth, err)
	}

	rooms := make([]tboPaxRoom, 0, len(criteria.Rooms))
	for _, room := range criteria.Rooms {
		rooms = append(rooms, tboPaxRoom{
			Adults:       room.Adults,
			Children:     len(room.ChildrenAges),
			ChildrenAges: room.ChildrenAges,
		})
	}

	payload := tboRequest{
		CheckIn:            criteria.CheckIn.Format("2006-01-02"),
		CheckOut:           criteria.CheckOut.Format("2006-01-02"),
		CityCode:           criteria.Destination,
		GuestNationality:   criteria.Nationality,
		PaxRooms:           rooms,
		ResponseTime:       23.0,
		IsDetailedResponse: true,
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
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewError(p.name, KindAuth, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewError(p.name, KindRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	default:
		return nil, NewError(p.name, KindTransport, fmt.Errorf("status %d", resp.StatusCode))
	}

	var decoded tboResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, NewError(p.name, KindParse, err)
	}
	// TBO signals auth and throttling inside the Status block.
	switch decoded.Status.Code {
	case 200:
	case 401:
		return nil, NewError(p.name, KindAuth, errors.New(decoded.Status.Description))
	case 429:
		return nil, NewError(p.name, KindRateLimited, errors.New(decoded.Status.Description))
	default:
		return nil, NewError(p.name, KindTransport, fmt.Errorf("status %d: %s", decoded.Status.Code, decoded.Status.Description))
	}

	var offers []RawOffer
	for _, hotel := range decoded.HotelResult {
		for _, room := range hotel.Rooms {
			if len(room.Name) == 0 || room.TotalFare <= 0 {
				continue
			}
			var freeUntil string
			for _, policy := range room.CancelPolicies {
				if policy.ChargeType == "Fixed" && policy.CancellationCharge == 0 {
					freeUntil = policy.FromDate
					break
				}
			}
			offers = append(offers, RawOffer{
				ID:                    uuid.NewString(),
				Provider:              p.name,
				SupplierHotelID:       hotel.HotelCode,
				HotelName:             hotel.HotelName,
				RoomName:              room.Name[0],
				MealPlan:              room.MealType,
				Price:                 room.TotalFare,
				Currency:              hotel.Currency,
				FreeCancellationUntil: freeUntil,
			})
		}
	}
	return offers, nil
}
