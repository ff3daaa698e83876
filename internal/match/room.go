package match

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/config"
)

// RoomClass is the canonical room category vocabulary.
const (
	ClassStandard     = "standard"
	ClassSuperior     = "superior"
	ClassDeluxe       = "deluxe"
	ClassJuniorSuite  = "junior_suite"
	ClassSuite        = "suite"
	ClassFamily       = "family"
	ClassStudio       = "studio"
	ClassApartment    = "apartment"
	ClassVilla        = "villa"
	ClassBungalow     = "bungalow"
	ClassUnclassified = "other"
)

// CanonicalRoomType is a stable room category with expected capacity and
// bedding, scored against free-text room descriptions.
type CanonicalRoomType struct {
	ID       string   `json:"id"`
	Class    string   `json:"class"`
	Capacity int      `json:"capacity"`
	Bedding  string   `json:"bedding,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// roomSignals are the structured facts extracted from one description.
type roomSignals struct {
	class    string
	capacity int
	bedding  string
	view     string
	tags     []string
}

// RoomClassifier assigns canonical room types by multi-criteria scoring.
// All state is read-only after construction, so classification is safe to
// run concurrently.
type RoomClassifier struct {
	floor   float64
	catalog []CanonicalRoomType

	capacityRe *regexp.Regexp
	paxRe      *regexp.Regexp
}

// The catalog orders more specific classes before generic ones so keyword
// collisions ("junior suite" vs "suite") resolve to the specific class.
var classKeywords = []struct {
	keyword string
	class   string
}{
	{"junior suite", ClassJuniorSuite},
	{"family room", ClassFamily},
	{"family", ClassFamily},
	{"penthouse", ClassSuite},
	{"presidential", ClassSuite},
	{"suite", ClassSuite},
	{"villa", ClassVilla},
	{"bungalow", ClassBungalow},
	{"apartment", ClassApartment},
	{"apartament", ClassApartment},
	{"studio", ClassStudio},
	{"deluxe", ClassDeluxe},
	{"superior", ClassSuperior},
	{"standard", ClassStandard},
	{"classic", ClassStandard},
	{"double", ClassStandard},
	{"twin", ClassStandard},
	{"single", ClassStandard},
}

var beddingKeywords = []struct {
	keyword string
	bedding string
	sleeps  int
}{
	{"king size bed", "king", 2},
	{"king bed", "king", 2},
	{"king", "king", 2},
	{"queen bed", "queen", 2},
	{"queen", "queen", 2},
	{"twin beds", "twin", 2},
	{"twin", "twin", 2},
	{"double bed", "double", 2},
	{"double", "double", 2},
	{"bunk bed", "bunk", 2},
	{"single bed", "single", 1},
	{"single", "single", 1},
	{"sofa bed", "sofa", 1},
}

var viewKeywords = []struct {
	keyword string
	view    string
}{
	{"sea view", "sea_view"},
	{"ocean view", "sea_view"},
	{"oceanfront", "sea_view"},
	{"seafront", "sea_view"},
	{"beach view", "sea_view"},
	{"pool view", "pool_view"},
	{"garden view", "garden_view"},
	{"city view", "city_view"},
	{"mountain view", "mountain_view"},
	{"lagoon view", "sea_view"},
}

var amenityKeywords = []string{
	"balcony", "terrace", "patio", "jacuzzi", "private pool", "plunge pool",
	"kitchenette", "living room", "club access", "butler",
}

func defaultCatalog() []CanonicalRoomType {
	return []CanonicalRoomType{
		{ID: "rt_standard", Class: ClassStandard, Capacity: 2},
		{ID: "rt_superior", Class: ClassSuperior, Capacity: 2},
		{ID: "rt_deluxe", Class: ClassDeluxe, Capacity: 2},
		{ID: "rt_junior_suite", Class: ClassJuniorSuite, Capacity: 3},
		{ID: "rt_suite", Class: ClassSuite, Capacity: 4},
		{ID: "rt_family", Class: ClassFamily, Capacity: 4},
		{ID: "rt_studio", Class: ClassStudio, Capacity: 2},
		{ID: "rt_apartment", Class: ClassApartment, Capacity: 4},
		{ID: "rt_villa", Class: ClassVilla, Capacity: 6},
		{ID: "rt_bungalow", Class: ClassBungalow, Capacity: 3},
	}
}

// unclassified is returned for descriptions below the confidence floor:
// a generic bucket beats a misleading match.
var unclassified = CanonicalRoomType{ID: "rt_other", Class: ClassUnclassified, Capacity: 2}

func NewRoomClassifier(cfg config.RoomConfig) *RoomClassifier {
	return &RoomClassifier{
		floor:      cfg.ConfidenceFloor,
		catalog:    defaultCatalog(),
		capacityRe: regexp.MustCompile(`(?i)\bfor\s+(\d)\s+(?:person|people|adult|guest)`),
		paxRe:      regexp.MustCompile(`(?i)\b(\d)\s*(?:pax|persons?|adults?)\b`),
	}
}

// Classify scores the description against every canonical room type and
// returns the best match with its confidence. Anything under the floor comes
// back as the generic "other" category with the raw confidence it earned.
func (c *RoomClassifier) Classify(description string) (CanonicalRoomType, float64) {
	signals := c.extract(description)

	var best CanonicalRoomType
	var bestScore float64
	for _, candidate := range c.catalog {
		score := c.score(signals, candidate)
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}

	if bestScore < c.floor {
		return unclassified, bestScore
	}
	best.Tags = signals.tags
	if signals.view != "" {
		best.Tags = append(best.Tags, signals.view)
	}
	if signals.bedding != "" {
		best.Bedding = signals.bedding
	}
	if signals.capacity > 0 {
		best.Capacity = signals.capacity
	}
	return best, bestScore
}

func (c *RoomClassifier) extract(description string) roomSignals {
	lower := strings.ToLower(description)
	var s roomSignals

	for _, ck := range classKeywords {
		if strings.Contains(lower, ck.keyword) {
			s.class = ck.class
			break
		}
	}

	if m := c.capacityRe.FindStringSubmatch(lower); m != nil {
		s.capacity, _ = strconv.Atoi(m[1])
	} else if m := c.paxRe.FindStringSubmatch(lower); m != nil {
		s.capacity, _ = strconv.Atoi(m[1])
	}

	for _, bk := range beddingKeywords {
		if strings.Contains(lower, bk.keyword) {
			s.bedding = bk.bedding
			if s.capacity == 0 {
				s.capacity = bk.sleeps
			}
			break
		}
	}

	for _, vk := range viewKeywords {
		if strings.Contains(lower, vk.keyword) {
			s.view = vk.view
			break
		}
	}

	for _, amenity := range amenityKeywords {
		if strings.Contains(lower, amenity) {
			s.tags = append(s.tags, strings.ReplaceAll(amenity, " ", "_"))
		}
	}

	return s
}

// score weights class keyword agreement highest, then capacity fit, bedding
// and tag evidence.
func (c *RoomClassifier) score(s roomSignals, candidate CanonicalRoomType) float64 {
	var score float64

	if s.class != "" && s.class == candidate.Class {
		score += 0.55
	}

	if s.capacity > 0 {
		diff := s.capacity - candidate.Capacity
		if diff < 0 {
			diff = -diff
		}
		switch diff {
		case 0:
			score += 0.20
		case 1:
			score += 0.10
		}
	}

	if s.bedding != "" {
		score += 0.10
	}
	if s.view != "" || len(s.tags) > 0 {
		score += 0.15
	}

	return score
}
