package models

import (
	"strings"
	"time"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/validator"
)

// ValidationError marks criteria rejected before any provider dispatch.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "invalid search criteria: " + strings.Join(e.Reasons, ", ")
}

// RoomOccupancy describes one requested room.
type RoomOccupancy struct {
	Adults       int   `json:"adults"`
	ChildrenAges []int `json:"children_ages,omitempty"`
}

// SearchCriteria is the canonical search query shared read-only across all
// concurrent provider calls. Build it once via SearchRequest.Criteria and do
// not mutate it afterwards.
type SearchCriteria struct {
	Destination  string          `json:"destination"`
	HotelNames   []string        `json:"hotel_names,omitempty"`
	CheckIn      time.Time       `json:"check_in"`
	CheckOut     time.Time       `json:"check_out"`
	Rooms        []RoomOccupancy `json:"rooms"`
	Nationality  string          `json:"nationality,omitempty"`
	Currency     string          `json:"currency,omitempty"`
	MealPlans    []string        `json:"meal_plans,omitempty"`
	RoomCategory string          `json:"room_category,omitempty"`
	Providers    []string        `json:"providers,omitempty"`
}

// SearchRequest is the wire shape accepted by POST /search. Dates travel as
// YYYY-MM-DD strings and are parsed during validation.
type SearchRequest struct {
	Destination  string          `json:"destination"`
	HotelNames   []string        `json:"hotel_names,omitempty"`
	CheckIn      string          `json:"check_in"`
	CheckOut     string          `json:"check_out"`
	Rooms        []RoomOccupancy `json:"rooms"`
	Nationality  string          `json:"nationality,omitempty"`
	Currency     string          `json:"currency,omitempty"`
	MealPlans    []string        `json:"meal_plans,omitempty"`
	RoomCategory string          `json:"room_category,omitempty"`
	Providers    []string        `json:"providers,omitempty"`
}

// Criteria validates the request and builds immutable SearchCriteria.
func (r *SearchRequest) Criteria() (*SearchCriteria, error) {
	var reasons []string

	dest, err := validator.ValidateDestination(r.Destination)
	if err != nil {
		reasons = append(reasons, err.Error())
	}

	checkIn, inErr := validator.ValidateDate(r.CheckIn)
	if inErr != nil {
		reasons = append(reasons, "check_in: "+inErr.Error())
	}
	checkOut, outErr := validator.ValidateDate(r.CheckOut)
	if outErr != nil {
		reasons = append(reasons, "check_out: "+outErr.Error())
	}
	if inErr == nil && outErr == nil {
		if !checkOut.After(checkIn) {
			reasons = append(reasons, "check_out must be after check_in")
		}
		today := time.Now().Truncate(24 * time.Hour)
		if checkIn.Before(today) {
			reasons = append(reasons, "check_in must not be in the past")
		}
	}

	if len(r.Rooms) == 0 {
		reasons = append(reasons, "at least one room is required")
	}
	for _, room := range r.Rooms {
		if room.Adults < 1 {
			reasons = append(reasons, "every room needs at least one adult")
			break
		}
	}
	for _, room := range r.Rooms {
		for _, age := range room.ChildrenAges {
			if age < 0 || age > 17 {
				reasons = append(reasons, "children ages must be between 0 and 17")
				break
			}
		}
	}

	if len(reasons) > 0 {
		return nil, &ValidationError{Reasons: reasons}
	}

	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if currency == "" {
		currency = "EUR"
	}
	nationality := strings.ToUpper(strings.TrimSpace(r.Nationality))
	if nationality == "" {
		nationality = "PL"
	}

	return &SearchCriteria{
		Destination:  dest,
		HotelNames:   r.HotelNames,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Rooms:        r.Rooms,
		Nationality:  nationality,
		Currency:     currency,
		MealPlans:    r.MealPlans,
		RoomCategory: r.RoomCategory,
		Providers:    r.Providers,
	}, nil
}

// Nights returns the stay length in nights.
func (c *SearchCriteria) Nights() int {
	return int(c.CheckOut.Sub(c.CheckIn).Hours() / 24)
}

// Adults sums adult counts across all rooms.
func (c *SearchCriteria) Adults() int {
	total := 0
	for _, r := range c.Rooms {
		total += r.Adults
	}
	return total
}

// ChildrenAges flattens children ages across all rooms.
func (c *SearchCriteria) ChildrenAges() []int {
	var ages []int
	for _, r := range c.Rooms {
		ages = append(ages, r.ChildrenAges...)
	}
	return ages
}

// CacheKey is a stable identity for collapsing identical concurrent searches.
func (c *SearchCriteria) CacheKey() string {
	parts := []string{
		c.Destination,
		strings.Join(c.HotelNames, ","),
		c.CheckIn.Format("2006-01-02"),
		c.CheckOut.Format("2006-01-02"),
		c.Currency,
		c.Nationality,
		strings.Join(c.MealPlans, ","),
		c.RoomCategory,
		strings.Join(c.Providers, ","),
	}
	var rooms []string
	for _, r := range c.Rooms {
		room := strings.Repeat("a", r.Adults)
		for _, age := range r.ChildrenAges {
			room += "c" + string(rune('0'+age/10)) + string(rune('0'+age%10))
		}
		rooms = append(rooms, room)
	}
	return strings.Join(parts, "|") + "|" + strings.Join(rooms, ";")
}
