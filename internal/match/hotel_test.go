package match

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/config"
)

func testMatchConfig() config.MatchConfig {
	return config.MatchConfig{
		AcceptThreshold:  0.85,
		SimilarityWeight: 0.55,
		TokenSortWeight:  0.25,
		OverlapWeight:    0.20,
		PhoneticBonus:    0.07,
		PhoneticGate:     0.85,
		BrandBonus:       0.10,
	}
}

func newTestMatcher(t *testing.T, p AliasPersister) *HotelMatcher {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHotelMatcher(testMatchConfig(), node, p, logger)
}

func TestPhoneticGateIsConfigDriven(t *testing.T) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// "smith" and "smyth" share a soundex code; their string similarity sits
	// between the two gates below, so only the wide gate grants the bonus.
	entry := &hotelEntry{
		hotel:       CanonicalHotel{ID: "1", Name: "Smyth"},
		normAliases: []string{"smyth"},
	}

	wide := testMatchConfig()
	wide.PhoneticGate = 0.95
	narrow := testMatchConfig()
	narrow.PhoneticGate = 0.50

	withBonus := NewHotelMatcher(wide, node, nil, logger).scoreEntry("smith", "", entry)
	withoutBonus := NewHotelMatcher(narrow, node, nil, logger).scoreEntry("smith", "", entry)

	diff := withBonus - withoutBonus
	if diff < wide.PhoneticBonus-1e-9 || diff > wide.PhoneticBonus+1e-9 {
		t.Fatalf("gate did not control the phonetic bonus: diff=%f", diff)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	m := newTestMatcher(t, nil)

	first := m.Resolve("Sun Siyam Iru Fushi")
	second := m.Resolve("Sun Siyam Iru Fushi")
	if first.ID != second.ID {
		t.Fatalf("same input resolved to different ids: %s vs %s", first.ID, second.ID)
	}
}

func TestResolveMergesWordOrderVariants(t *testing.T) {
	m := newTestMatcher(t, nil)

	a := m.Resolve("Grand Hotel Plaza")
	b := m.Resolve("Grand Plaza Hotel")
	if a.ID != b.ID {
		t.Fatalf("word-order variants should share one canonical hotel, got %s and %s", a.ID, b.ID)
	}
}

func TestResolveMergesFuzzyVariantWithBrand(t *testing.T) {
	m := newTestMatcher(t, nil)

	a := m.Resolve("Four Seasons Resort Maldives Kuda Huraa")
	b := m.Resolve("Four Seasons Kuda Huraa")
	if a.ID != b.ID {
		t.Fatalf("fuzzy brand variants should merge, got %s and %s", a.ID, b.ID)
	}
}

func TestResolveKeepsDistinctHotelsApart(t *testing.T) {
	m := newTestMatcher(t, nil)

	a := m.Resolve("Sun Siyam Iru Fushi")
	b := m.Resolve("Baros Maldives")
	if a.ID == b.ID {
		t.Fatal("unrelated hotels must get distinct canonical ids")
	}
}

func TestAliasesAreAppendOnly(t *testing.T) {
	m := newTestMatcher(t, nil)

	m.Resolve("Grand Hotel Plaza")
	m.Resolve("Grand Plaza Hotel")

	hotels := m.Hotels()
	if len(hotels) != 1 {
		t.Fatalf("expected one canonical hotel, got %d", len(hotels))
	}
	if len(hotels[0].Aliases) != 2 {
		t.Fatalf("expected 2 aliases, got %v", hotels[0].Aliases)
	}

	m.Resolve("Grand Hotel Plaza")
	if got := m.Hotels()[0].Aliases; len(got) != 2 {
		t.Fatalf("replayed alias must not duplicate, got %v", got)
	}
}

func TestSeedHydratesIndex(t *testing.T) {
	m := newTestMatcher(t, nil)
	m.Seed("42", "Baros Maldives", "", []string{"Baros Maldives", "Baros Island Resort Maldives"})

	resolved := m.Resolve("Baros Maldives")
	if resolved.ID != "42" {
		t.Fatalf("expected seeded id 42, got %s", resolved.ID)
	}
}

type recordingPersister struct {
	mu      sync.Mutex
	aliases []string
	notify  chan struct{}
}

func (p *recordingPersister) PersistAlias(hotelID, canonicalName, brand, alias string) error {
	p.mu.Lock()
	p.aliases = append(p.aliases, alias)
	p.mu.Unlock()
	p.notify <- struct{}{}
	return nil
}

func TestNewHotelsArePersisted(t *testing.T) {
	p := &recordingPersister{notify: make(chan struct{}, 4)}
	m := newTestMatcher(t, p)

	m.Resolve("Baros Maldives")

	select {
	case <-p.notify:
	case <-time.After(time.Second):
		t.Fatal("expected alias persistence for a new hotel")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.aliases) != 1 || p.aliases[0] != "Baros Maldives" {
		t.Fatalf("unexpected persisted aliases: %v", p.aliases)
	}
}

func TestConcurrentResolveSingleCanonical(t *testing.T) {
	m := newTestMatcher(t, nil)

	var wg sync.WaitGroup
	ids := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- m.Resolve("Sun Siyam Iru Fushi").ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Fatalf("concurrent resolves created %d canonical ids, want 1", len(seen))
	}
	if len(m.Hotels()) != 1 {
		t.Fatalf("expected a single canonical hotel, got %d", len(m.Hotels()))
	}
}
