package providers

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/models"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/secrets"
)

// GoGlobal speaks a SOAP 1.2 endpoint that carries an agency-authenticated
// XML request and returns JSON wrapped inside the SOAP result element.
type GoGlobal struct {
	name    string
	baseURL string
	creds   secrets.Source
	client  *http.Client
}

func NewGoGlobal(baseURL string, creds secrets.Source, timeout time.Duration) *GoGlobal {
	return &GoGlobal{
		name:    "goglobal",
		baseURL: baseURL,
		creds:   creds,
		client:  newPooledClient(timeout),
	}
}

func (p *GoGlobal) Name() string { return p.name }

type goGlobalEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		MakeRequestResponse struct {
			MakeRequestResult string `xml:"MakeRequestResult"`
		} `xml:"MakeRequestResponse"`
	} `xml:"Body"`
}

type goGlobalResult struct {
	Hotels []struct {
		HotelCode string `json:"HotelCode"`
		HotelName string `json:"HotelName"`
		Offers    []struct {
			RoomName    string  `json:"Rooms"`
			RoomBasis   string  `json:"RoomBasis"`
			TotalPrice  float64 `json:"TotalPrice"`
			Currency    string  `json:"Currency"`
			CxlDeadline string  `json:"CxlDeadLine"`
		} `json:"Offers"`
	} `json:"Hotels"`
	Error string `json:"Error"`
}

// The supplier filters by board basis inside the request itself, so meal
// preferences translate to native codes here instead of post-filtering.
var goGlobalMealCodes = map[string]string{
	"room_only":     "RO",
	"breakfast":     "BB",
	"half_board":    "HB",
	"full_board":    "FB",
	"all_inclusive": "AI",
}

func (p *GoGlobal) buildRequestXML(cred secrets.Credential, criteria *models.SearchCriteria) string {
	var children strings.Builder
	for _, age := range criteria.ChildrenAges() {
		fmt.Fprintf(&children, "<ChildAge>%d</ChildAge>", age)
	}

	var basisFilter string
	if len(criteria.MealPlans) > 0 {
		var codes strings.Builder
		for _, plan := range criteria.MealPlans {
			if code, ok := goGlobalMealCodes[strings.ToLower(strings.TrimSpace(plan))]; ok {
				fmt.Fprintf(&codes, "<FilterRoomBasis>%s</FilterRoomBasis>", code)
			}
		}
		if codes.Len() > 0 {
			basisFilter = "<FilterRoomBasises>" + codes.String() + "</FilterRoomBasises>"
		}
	}

	adults := 0
	if len(criteria.Rooms) > 0 {
		adults = criteria.Rooms[0].Adults
	}

	return fmt.Sprintf(`<Root>
<Header>
<Agency>%s</Agency>
<User>%s</User>
<Password>%s</Password>
<Operation>HOTEL_SEARCH_REQUEST</Operation>
<OperationType>Request</OperationType>
</Header>
<Main Version="2.3" ResponseFormat="JSON" Currency="%s">
<City>%s</City>
<ArrivalDate>%s</ArrivalDate>
<Nights>%d</Nights>
<Rooms>
<Room Adults="%d" RoomCount="%d" ChildCount="%d">%s</Room>
</Rooms>%s
</Main>
</Root>`,
		cred.AgencyID, cred.Username, cred.Password,
		criteria.Currency,
		criteria.Destination,
		criteria.CheckIn.Format("2006-01-02"),
		criteria.Nights(),
		adults, len(criteria.Rooms), len(criteria.ChildrenAges()), children.String(),
		basisFilter)
}

func soapEnvelope(inner string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
<soap12:Body>
<MakeRequest xmlns="http://www.goglobal.travel/">
<requestType>11</requestType>
<xmlRequest><![CDATA[` + inner + `]]></xmlRequest>
</MakeRequest>
</soap12:Body>
</soap12:Envelope>`
}

func (p *GoGlobal) Search(ctx context.Context, criteria *models.SearchCriteria) ([]RawOffer, error) {
	cred, err := p.creds.Credential(p.name)
	if err != nil {
		return nil, NewError(p.name, KindAuth, err)
	}

	body := soapEnvelope(p.buildRequestXML(cred, criteria))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, strings.NewReader(body))
	if err != nil {
		return nil, NewError(p.name, KindTransport, err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("API-Operation", "HOTEL_SEARCH_REQUEST")
	req.Header.Set("API-AgencyID", cred.AgencyID)

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
	default:
		return nil, NewError(p.name, KindTransport, fmt.Errorf("status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(p.name, KindTransport, err)
	}

	var envelope goGlobalEnvelope
	if err := xml.Unmarshal(raw, &envelope); err != nil {
		return nil, NewError(p.name, KindParse, err)
	}
	inner := envelope.Body.MakeRequestResponse.MakeRequestResult
	if strings.TrimSpace(inner) == "" {
		return nil, NewError(p.name, KindParse, errors.New("empty MakeRequestResult"))
	}

	var result goGlobalResult
	if err := json.Unmarshal([]byte(inner), &result); err != nil {
		return nil, NewError(p.name, KindParse, err)
	}
	if result.Error != "" {
		msg := strings.ToLower(result.Error)
		if strings.Contains(msg, "password") || strings.Contains(msg, "agency") {
			return nil, NewError(p.name, KindAuth, errors.New(result.Error))
		}
		return nil, NewError(p.name, KindTransport, errors.New(result.Error))
	}

	var offers []RawOffer
	for _, hotel := range result.Hotels {
		for _, offer := range hotel.Offers {
			if offer.TotalPrice <= 0 {
				continue
			}
			offers = append(offers, RawOffer{
				ID:                    uuid.NewString(),
				Provider:              p.name,
				SupplierHotelID:       hotel.HotelCode,
				HotelName:             hotel.HotelName,
				RoomName:              offer.RoomName,
				MealPlan:              offer.RoomBasis,
				Price:                 offer.TotalPrice,
				Currency:              offer.Currency,
				FreeCancellationUntil: offer.CxlDeadline,
			})
		}
	}
	return offers, nil
}
