package match

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Stop words stripped during hotel name normalization: accommodation types,
// legal suffixes, filler descriptors and connectives that carry no identity.
var stopWords = map[string]bool{
	"hotel": true, "resort": true, "spa": true, "suites": true, "inn": true,
	"lodge": true, "motel": true, "apartment": true, "apartments": true,
	"villa": true, "house": true, "studio": true, "bedroom": true,
	"luxury": true, "grand": true, "royal": true, "palace": true, "club": true,
	"boutique": true, "deluxe": true, "beach": true, "view": true, "pool": true,
	"marina": true, "bay": true, "island": true,
	"in": true, "by": true, "with": true, "and": true, "the": true,
	"at": true, "of": true, "for": true,
	"ltd": true, "llc": true, "gmbh": true, "sa": true,
}

var numberWords = map[string]string{
	"1": "one", "2": "two", "3": "three", "4": "four", "5": "five",
}

// Chain brand tokens recognized across providers. A brand appearing in both
// names being compared earns a scoring bonus.
var brandTokens = []string{
	"four seasons", "atlantis", "banyan tree", "mandarin oriental",
	"one only", "one & only", "angsana", "shangri-la", "ritz carlton",
	"ritz-carlton", "st regis", "waldorf astoria", "hilton", "marriott",
	"hyatt", "intercontinental", "sheraton", "westin", "doubletree",
	"regent", "fairmont", "raffles", "rosewood", "belmond", "six senses",
	"chedi", "dusit thani", "movenpick", "mövenpick", "joali", "conrad",
	"park hyatt", "grand hyatt", "andaz", "aloft", "le meridien",
	"jw marriott",
}

var diacriticsStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

func stripDiacritics(s string) string {
	out, _, err := transform.String(diacriticsStripper, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeName canonicalizes a raw hotel name for comparison: lowercase,
// diacritics stripped, punctuation removed, single digits spelled out, stop
// words dropped and duplicate words collapsed while preserving order.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	name = stripDiacritics(name)

	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	seen := make(map[string]bool)
	var words []string
	for _, word := range strings.Fields(b.String()) {
		if spelled, ok := numberWords[word]; ok {
			word = spelled
		}
		if stopWords[word] || len(word) < 2 {
			continue
		}
		if !seen[word] {
			words = append(words, word)
			seen[word] = true
		}
	}
	return strings.Join(words, " ")
}

// ExtractBrand returns the first recognized chain brand token found in the
// name, or "".
func ExtractBrand(name string) string {
	lower := strings.ToLower(name)
	for _, brand := range brandTokens {
		if strings.Contains(lower, brand) {
			return brand
		}
	}
	return ""
}

// sortTokens returns the name with its words in sorted order, the
// word-order-insensitive form used for token-sort similarity.
func sortTokens(name string) string {
	words := strings.Fields(name)
	sort.Strings(words)
	return strings.Join(words, " ")
}

// wordOverlap is the Jaccard ratio of the two names' word sets.
func wordOverlap(a, b string) float64 {
	wa := strings.Fields(a)
	wb := strings.Fields(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(wa))
	for _, w := range wa {
		setA[w] = true
	}
	setB := make(map[string]bool, len(wb))
	for _, w := range wb {
		setB[w] = true
	}
	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
