package match

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/antzucaro/matchr"
	"github.com/bwmarrin/snowflake"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/config"
)

// CanonicalHotel is the provider-independent identity of one physical hotel.
// The alias set only ever grows, which keeps matching stable across requests.
type CanonicalHotel struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Brand   string   `json:"brand,omitempty"`
	Aliases []string `json:"aliases"`
}

// AliasPersister receives newly accepted aliases. Persistence is
// fire-and-forget; failures are logged and never fail the in-flight search.
type AliasPersister interface {
	PersistAlias(hotelID, canonicalName, brand, alias string) error
}

type hotelEntry struct {
	hotel       CanonicalHotel
	normAliases []string
}

// HotelMatcher resolves raw provider hotel names to canonical hotels using a
// blended string-similarity score with phonetic and brand signals. Safe for
// concurrent readers; alias appends are serialized.
type HotelMatcher struct {
	cfg       config.MatchConfig
	node      *snowflake.Node
	persister AliasPersister
	logger    *slog.Logger
	jw        *metrics.JaroWinkler

	mu     sync.RWMutex
	hotels map[string]*hotelEntry
	ids    []string // sorted, for deterministic candidate iteration
	byNorm map[string]string
}

func NewHotelMatcher(cfg config.MatchConfig, node *snowflake.Node, persister AliasPersister, logger *slog.Logger) *HotelMatcher {
	return &HotelMatcher{
		cfg:       cfg,
		node:      node,
		persister: persister,
		logger:    logger,
		jw:        metrics.NewJaroWinkler(),
		hotels:    make(map[string]*hotelEntry),
		byNorm:    make(map[string]string),
	}
}

// Seed hydrates the index from the mapping store at warm-up. Existing ids are
// extended, never replaced.
func (m *HotelMatcher) Seed(id, name, brand string, aliases []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.hotels[id]
	if !ok {
		entry = &hotelEntry{hotel: CanonicalHotel{ID: id, Name: name, Brand: brand}}
		m.hotels[id] = entry
		m.ids = append(m.ids, id)
		sort.Strings(m.ids)
	}
	for _, alias := range aliases {
		m.appendAliasLocked(entry, alias)
	}
}

// appendAliasLocked adds an alias if unseen. Caller holds the write lock.
func (m *HotelMatcher) appendAliasLocked(entry *hotelEntry, alias string) bool {
	norm := NormalizeName(alias)
	if norm == "" {
		return false
	}
	for _, existing := range entry.hotel.Aliases {
		if existing == alias {
			return false
		}
	}
	entry.hotel.Aliases = append(entry.hotel.Aliases, alias)
	entry.normAliases = append(entry.normAliases, norm)
	if _, taken := m.byNorm[norm]; !taken {
		m.byNorm[norm] = entry.hotel.ID
	}
	return true
}

// Resolve maps a raw provider hotel name to its canonical hotel, creating a
// new canonical entry when no candidate clears the acceptance threshold.
// Given an unchanged alias index the same input always resolves to the same
// id.
func (m *HotelMatcher) Resolve(rawName string) CanonicalHotel {
	norm := NormalizeName(rawName)
	brand := ExtractBrand(rawName)

	m.mu.RLock()
	if id, ok := m.byNorm[norm]; ok && norm != "" {
		entry := m.hotels[id]
		snapshot := cloneHotel(entry.hotel)
		m.mu.RUnlock()
		m.recordAlias(id, rawName)
		return snapshot
	}
	bestID, bestScore := m.bestCandidateLocked(norm, brand)
	m.mu.RUnlock()

	if bestID != "" && bestScore > m.cfg.AcceptThreshold {
		m.recordAlias(bestID, rawName)
		m.mu.RLock()
		snapshot := cloneHotel(m.hotels[bestID].hotel)
		m.mu.RUnlock()
		m.logger.Debug("hotel matched",
			"raw", rawName, "canonical", snapshot.Name, "score", bestScore)
		return snapshot
	}

	return m.create(rawName, brand)
}

// bestCandidateLocked scores every candidate and returns the winner. Ties are
// broken by alias count (prior confirmations) and then by the
// lexicographically earliest id, so resolution is deterministic. Caller holds
// at least a read lock.
func (m *HotelMatcher) bestCandidateLocked(norm, brand string) (string, float64) {
	if norm == "" {
		return "", 0
	}
	var bestID string
	var bestScore float64
	var bestAliases int

	for _, id := range m.ids {
		entry := m.hotels[id]
		score := m.scoreEntry(norm, brand, entry)
		switch {
		case score > bestScore:
			bestID, bestScore, bestAliases = id, score, len(entry.hotel.Aliases)
		case score == bestScore && bestID != "":
			if len(entry.hotel.Aliases) > bestAliases {
				bestID, bestAliases = id, len(entry.hotel.Aliases)
			}
			// Equal alias counts keep the earlier id; ids iterate sorted.
		}
	}
	return bestID, bestScore
}

// scoreEntry blends string similarity, token-sorted similarity and word
// overlap, adding a phonetic bonus for visually dissimilar but phonetically
// equivalent names and a brand bonus when both sides carry the same chain
// token.
func (m *HotelMatcher) scoreEntry(norm, brand string, entry *hotelEntry) float64 {
	var best float64
	for _, alias := range entry.normAliases {
		sim := strutil.Similarity(norm, alias, m.jw)
		tokenSort := strutil.Similarity(sortTokens(norm), sortTokens(alias), m.jw)
		overlap := wordOverlap(norm, alias)

		score := m.cfg.SimilarityWeight*sim +
			m.cfg.TokenSortWeight*tokenSort +
			m.cfg.OverlapWeight*overlap

		if sim < m.cfg.PhoneticGate && soundexEqual(norm, alias) {
			score += m.cfg.PhoneticBonus
		}
		if score > best {
			best = score
		}
	}
	if brand != "" && brand == entry.hotel.Brand {
		best += m.cfg.BrandBonus
	}
	if best > 1 {
		best = 1
	}
	return best
}

func soundexEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	compactA := nonSpace(a)
	compactB := nonSpace(b)
	if compactA == "" || compactB == "" {
		return false
	}
	return matchr.Soundex(compactA) == matchr.Soundex(compactB)
}

func nonSpace(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r != ' ' {
			out = append(out, r)
		}
	}
	return string(out)
}

// recordAlias appends a raw name to an accepted hotel and persists it in the
// background.
func (m *HotelMatcher) recordAlias(id, rawName string) {
	m.mu.Lock()
	entry, ok := m.hotels[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	added := m.appendAliasLocked(entry, rawName)
	name, brand := entry.hotel.Name, entry.hotel.Brand
	m.mu.Unlock()

	if added {
		m.persist(id, name, brand, rawName)
	}
}

func (m *HotelMatcher) create(rawName, brand string) CanonicalHotel {
	m.mu.Lock()
	// Another goroutine may have created the same hotel while this one was
	// scoring; the normalized alias lookup catches that race.
	norm := NormalizeName(rawName)
	if id, ok := m.byNorm[norm]; ok && norm != "" {
		snapshot := cloneHotel(m.hotels[id].hotel)
		m.mu.Unlock()
		return snapshot
	}

	id := m.node.Generate().String()
	entry := &hotelEntry{hotel: CanonicalHotel{ID: id, Name: rawName, Brand: brand}}
	m.hotels[id] = entry
	m.ids = append(m.ids, id)
	sort.Strings(m.ids)
	m.appendAliasLocked(entry, rawName)
	snapshot := cloneHotel(entry.hotel)
	m.mu.Unlock()

	m.logger.Info("new canonical hotel", "id", id, "name", rawName)
	m.persist(id, rawName, brand, rawName)
	return snapshot
}

func (m *HotelMatcher) persist(id, name, brand, alias string) {
	if m.persister == nil {
		return
	}
	go func() {
		if err := m.persister.PersistAlias(id, name, brand, alias); err != nil {
			m.logger.Error("alias persistence failed",
				"hotel_id", id, "alias", alias, "error", err)
		}
	}()
}

// Hotels returns a snapshot of the canonical index sorted by id.
func (m *HotelMatcher) Hotels() []CanonicalHotel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CanonicalHotel, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, cloneHotel(m.hotels[id].hotel))
	}
	return out
}

func cloneHotel(h CanonicalHotel) CanonicalHotel {
	aliases := make([]string, len(h.Aliases))
	copy(aliases, h.Aliases)
	h.Aliases = aliases
	return h
}
