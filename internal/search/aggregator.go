package search

import (
	"sort"
	"strings"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/match"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/models"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/orchestrator"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/providers"
)

// Assembler turns raw per-provider call results into the unified, grouped
// response: canonical hotel resolution, room classification, meal
// normalization, request filters and price ordering.
type Assembler struct {
	hotels *match.HotelMatcher
	rooms  *match.RoomClassifier
	meals  *match.MealNormalizer
}

func NewAssembler(hotels *match.HotelMatcher, rooms *match.RoomClassifier, meals *match.MealNormalizer) *Assembler {
	return &Assembler{hotels: hotels, rooms: rooms, meals: meals}
}

// Assemble produces the hotel groups and per-provider statuses for one
// dispatch. Failed and skipped providers contribute status rows but no
// offers; a search with zero successful providers still returns a well
// formed, empty result.
func (a *Assembler) Assemble(results []orchestrator.CallResult, criteria *models.SearchCriteria) ([]HotelGroup, []ProviderStatus) {
	statuses := make([]ProviderStatus, 0, len(results))

	type keyedOffer struct {
		hotel match.CanonicalHotel
		room  match.CanonicalRoomType
		offer UnifiedOffer
	}
	var offers []keyedOffer

	wantedMeals := parseMealFilter(criteria.MealPlans)

	for _, res := range results {
		status := ProviderStatus{
			Provider:   res.Provider,
			Outcome:    string(res.Outcome),
			LatencyMs:  res.Latency.Milliseconds(),
			OfferCount: len(res.Offers),
		}
		if res.Outcome == orchestrator.OutcomeFailure {
			status.ErrorKind = string(res.ErrorKind)
		}
		statuses = append(statuses, status)

		for _, raw := range res.Offers {
			unified, hotel, room, ok := a.normalize(raw, criteria, wantedMeals)
			if !ok {
				continue
			}
			offers = append(offers, keyedOffer{hotel: hotel, room: room, offer: unified})
		}
	}

	wantedHotels := normalizedNameFilter(criteria.HotelNames)

	groupIdx := make(map[string]int)
	var groups []HotelGroup
	roomIdx := make(map[string]map[string]int)

	for _, ko := range offers {
		if len(wantedHotels) > 0 && !hotelWanted(ko.hotel, wantedHotels) {
			continue
		}
		gi, ok := groupIdx[ko.hotel.ID]
		if !ok {
			gi = len(groups)
			groupIdx[ko.hotel.ID] = gi
			groups = append(groups, HotelGroup{Hotel: ko.hotel})
			roomIdx[ko.hotel.ID] = make(map[string]int)
		}
		ri, ok := roomIdx[ko.hotel.ID][ko.room.ID]
		if !ok {
			ri = len(groups[gi].Rooms)
			roomIdx[ko.hotel.ID][ko.room.ID] = ri
			groups[gi].Rooms = append(groups[gi].Rooms, RoomGroup{RoomType: ko.room})
		}
		rg := &groups[gi].Rooms[ri]
		rg.Offers = append(rg.Offers, ko.offer)
	}

	for gi := range groups {
		finalizeGroup(&groups[gi])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].MinPrice < groups[j].MinPrice
	})

	return groups, statuses
}

// normalize converts one raw offer; filters that depend on normalized values
// (meal plan, room category) are applied here.
func (a *Assembler) normalize(raw providers.RawOffer, criteria *models.SearchCriteria, wantedMeals []match.MealPlan) (UnifiedOffer, match.CanonicalHotel, match.CanonicalRoomType, bool) {
	if raw.HotelName == "" || raw.Price <= 0 {
		return UnifiedOffer{}, match.CanonicalHotel{}, match.CanonicalRoomType{}, false
	}

	meal := a.meals.Normalize(raw.Provider, raw.MealPlan)
	if len(wantedMeals) > 0 && !mealAllowed(meal, wantedMeals) {
		return UnifiedOffer{}, match.CanonicalHotel{}, match.CanonicalRoomType{}, false
	}

	description := raw.RoomName
	if len(raw.RoomFeatures) > 0 {
		description = description + " " + strings.Join(raw.RoomFeatures, " ")
	}
	room, confidence := a.rooms.Classify(description)
	if criteria.RoomCategory != "" && room.Class != criteria.RoomCategory {
		return UnifiedOffer{}, match.CanonicalHotel{}, match.CanonicalRoomType{}, false
	}

	hotel := a.hotels.Resolve(raw.HotelName)

	offer := UnifiedOffer{
		OfferID:               raw.ID,
		Provider:              raw.Provider,
		SupplierHotelID:       raw.SupplierHotelID,
		RoomDescription:       raw.RoomName,
		RoomConfidence:        confidence,
		MealPlan:              meal,
		Price:                 raw.Price,
		Currency:              strings.ToUpper(raw.Currency),
		FreeCancellationUntil: raw.FreeCancellationUntil,
	}
	return offer, hotel, room, true
}

// parseMealFilter drops unrecognized filter values; an all-invalid filter
// means no filtering rather than an empty result.
func parseMealFilter(raw []string) []match.MealPlan {
	var out []match.MealPlan
	for _, s := range raw {
		if plan, ok := match.ParseMealPlan(s); ok {
			out = append(out, plan)
		}
	}
	return out
}

func mealAllowed(meal match.MealPlan, wanted []match.MealPlan) bool {
	for _, w := range wanted {
		if meal == w {
			return true
		}
	}
	return false
}

func normalizedNameFilter(names []string) []string {
	var out []string
	for _, n := range names {
		if norm := match.NormalizeName(n); norm != "" {
			out = append(out, norm)
		}
	}
	return out
}

// hotelWanted accepts a hotel when any of its aliases' normalized forms
// contains (or is contained by) a requested name.
func hotelWanted(hotel match.CanonicalHotel, wanted []string) bool {
	candidates := append([]string{hotel.Name}, hotel.Aliases...)
	for _, c := range candidates {
		norm := match.NormalizeName(c)
		if norm == "" {
			continue
		}
		for _, w := range wanted {
			if strings.Contains(norm, w) || strings.Contains(w, norm) {
				return true
			}
		}
	}
	return false
}

// finalizeGroup sorts each room group by price, flags currency mixes and
// computes the hotel's cheapest offer.
func finalizeGroup(g *HotelGroup) {
	minSet := false
	for ri := range g.Rooms {
		rg := &g.Rooms[ri]
		sort.SliceStable(rg.Offers, func(i, j int) bool {
			return rg.Offers[i].Price < rg.Offers[j].Price
		})
		for _, o := range rg.Offers {
			if o.Currency != rg.Offers[0].Currency {
				rg.CurrencyMismatch = true
			}
			if !minSet || o.Price < g.MinPrice {
				g.MinPrice = o.Price
				g.Currency = o.Currency
				minSet = true
			}
		}
	}
	sort.SliceStable(g.Rooms, func(i, j int) bool {
		if len(g.Rooms[i].Offers) == 0 || len(g.Rooms[j].Offers) == 0 {
			return len(g.Rooms[j].Offers) == 0
		}
		return g.Rooms[i].Offers[0].Price < g.Rooms[j].Offers[0].Price
	})
}
