package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr %s", cfg.Addr)
	}
	if cfg.SearchDeadline != 10*time.Second {
		t.Fatalf("unexpected search deadline %s", cfg.SearchDeadline)
	}
	if cfg.Breaker.FailureThreshold != 3 || cfg.Breaker.Cooldown != 60*time.Second {
		t.Fatalf("unexpected breaker defaults: %+v", cfg.Breaker)
	}
	if cfg.Match.AcceptThreshold != 0.85 {
		t.Fatalf("unexpected match threshold %f", cfg.Match.AcceptThreshold)
	}
	if cfg.Match.PhoneticGate != 0.85 {
		t.Fatalf("unexpected phonetic gate %f", cfg.Match.PhoneticGate)
	}
	if len(cfg.Providers) != 3 {
		t.Fatalf("expected 3 default providers, got %+v", cfg.Providers)
	}
	for i, want := range []string{"rate_hawk", "goglobal", "tbo"} {
		if cfg.Providers[i].Name != want {
			t.Fatalf("provider %d: got %s, want %s", i, cfg.Providers[i].Name, want)
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PROVIDERS", "tbo")
	t.Setenv("PROVIDER_TBO_CALLS_PER_MINUTE", "5")
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "7")
	t.Setenv("SEARCH_DEADLINE", "3s")
	t.Setenv("MATCH_PHONETIC_GATE", "0.9")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0].Name != "tbo" {
		t.Fatalf("unexpected providers: %+v", cfg.Providers)
	}
	if cfg.Providers[0].CallsPerMinute != 5 {
		t.Fatalf("unexpected quota: %d", cfg.Providers[0].CallsPerMinute)
	}
	if cfg.Breaker.FailureThreshold != 7 {
		t.Fatalf("unexpected threshold: %d", cfg.Breaker.FailureThreshold)
	}
	if cfg.SearchDeadline != 3*time.Second {
		t.Fatalf("unexpected deadline: %s", cfg.SearchDeadline)
	}
	if cfg.Match.PhoneticGate != 0.9 {
		t.Fatalf("unexpected phonetic gate: %f", cfg.Match.PhoneticGate)
	}
}

func TestLoadRejectsEmptyProviderList(t *testing.T) {
	t.Setenv("PROVIDERS", " , ")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for empty provider list")
	}
}
