package match

import "strings"

// MealPlan is the closed set of canonical board categories. Unrecognized
// provider codes map to MealUnknown, never to an error.
type MealPlan string

const (
	MealRoomOnly     MealPlan = "room_only"
	MealBreakfast    MealPlan = "breakfast"
	MealHalfBoard    MealPlan = "half_board"
	MealFullBoard    MealPlan = "full_board"
	MealAllInclusive MealPlan = "all_inclusive"
	MealUnknown      MealPlan = "unknown"
)

// MealPlans lists every canonical category in display order.
func MealPlans() []MealPlan {
	return []MealPlan{
		MealRoomOnly, MealBreakfast, MealHalfBoard,
		MealFullBoard, MealAllInclusive, MealUnknown,
	}
}

// ParseMealPlan validates a client-supplied canonical category string.
func ParseMealPlan(s string) (MealPlan, bool) {
	plan := MealPlan(strings.ToLower(strings.TrimSpace(s)))
	switch plan {
	case MealRoomOnly, MealBreakfast, MealHalfBoard,
		MealFullBoard, MealAllInclusive, MealUnknown:
		return plan, true
	}
	return MealUnknown, false
}

// Per-provider meal code tables. Keys are lowercase; lookups fold case so
// supplier spelling drift ("BreakFast", "breakfast") lands on one entry.
var providerMealCodes = map[string]map[string]MealPlan{
	"rate_hawk": {
		"nomeal":                MealRoomOnly,
		"room only":             MealRoomOnly,
		"breakfast":             MealBreakfast,
		"breakfast-for-1":       MealBreakfast,
		"breakfast-for-2":       MealBreakfast,
		"continental-breakfast": MealBreakfast,
		"american-breakfast":    MealBreakfast,
		"buffet-breakfast":      MealBreakfast,
		"half-board":            MealHalfBoard,
		"half-board-lunch":      MealHalfBoard,
		"half-board-dinner":     MealHalfBoard,
		"full-board":            MealFullBoard,
		"all-inclusive":         MealAllInclusive,
		"ultra-all-inclusive":   MealAllInclusive,
		"premium-all-inclusive": MealAllInclusive,
		"soft-all-inclusive":    MealAllInclusive,
	},
	"goglobal": {
		"ro":  MealRoomOnly,
		"bb":  MealBreakfast,
		"cb":  MealBreakfast,
		"hb":  MealHalfBoard,
		"fb":  MealFullBoard,
		"ai":  MealAllInclusive,
		"uai": MealAllInclusive,
	},
	"tbo": {
		"room only":     MealRoomOnly,
		"roomonly":      MealRoomOnly,
		"breakfast":     MealBreakfast,
		"half board":    MealHalfBoard,
		"halfboard":     MealHalfBoard,
		"full board":    MealFullBoard,
		"fullboard":     MealFullBoard,
		"all inclusive": MealAllInclusive,
		"allinclusive":  MealAllInclusive,
	},
}

// Generic fallbacks applied when the provider table has no entry, so a new
// supplier with conventional naming still normalizes.
var genericMealCodes = map[string]MealPlan{
	"ro":            MealRoomOnly,
	"room only":     MealRoomOnly,
	"nomeal":        MealRoomOnly,
	"bb":            MealBreakfast,
	"breakfast":     MealBreakfast,
	"hb":            MealHalfBoard,
	"half board":    MealHalfBoard,
	"fb":            MealFullBoard,
	"full board":    MealFullBoard,
	"ai":            MealAllInclusive,
	"all inclusive": MealAllInclusive,
}

// MealNormalizer maps raw provider meal codes onto the canonical categories.
// Tables are fixed at construction, so lookups are safe for concurrent use.
type MealNormalizer struct {
	byProvider map[string]map[string]MealPlan
}

func NewMealNormalizer() *MealNormalizer {
	byProvider := make(map[string]map[string]MealPlan, len(providerMealCodes))
	for provider, table := range providerMealCodes {
		copied := make(map[string]MealPlan, len(table))
		for code, plan := range table {
			copied[code] = plan
		}
		byProvider[provider] = copied
	}
	return &MealNormalizer{byProvider: byProvider}
}

// ApplyOverrides merges operator-pinned codes on top of the built-in tables.
// Entries with an unrecognized canonical category are ignored. Call before
// the normalizer is shared across goroutines.
func (n *MealNormalizer) ApplyOverrides(overrides map[string]map[string]string) {
	for provider, codes := range overrides {
		table := n.byProvider[provider]
		if table == nil {
			table = make(map[string]MealPlan, len(codes))
			n.byProvider[provider] = table
		}
		for code, category := range codes {
			if plan, ok := ParseMealPlan(category); ok {
				table[strings.ToLower(strings.TrimSpace(code))] = plan
			}
		}
	}
}

// Normalize resolves a provider's raw meal code. Lookup order: provider
// table, then the generic table, then MealUnknown.
func (n *MealNormalizer) Normalize(provider, rawCode string) MealPlan {
	code := strings.ToLower(strings.TrimSpace(rawCode))
	if code == "" {
		return MealUnknown
	}
	if table, ok := n.byProvider[provider]; ok {
		if plan, ok := table[code]; ok {
			return plan
		}
	}
	if plan, ok := genericMealCodes[code]; ok {
		return plan
	}
	return MealUnknown
}
