package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime settings. Everything is env-driven so thresholds
// and scoring weights can be tuned without a rebuild.
type Config struct {
	Addr string

	SearchDeadline time.Duration
	AdapterTimeout time.Duration

	CacheTTL        time.Duration
	RateLimitCap    int
	RateLimitRefill time.Duration

	Breaker BreakerConfig
	Match   MatchConfig
	Room    RoomConfig

	Providers []ProviderConfig

	MappingStorePath string
	ArchivePath      string
}

type BreakerConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
}

// MatchConfig carries the hotel matcher calibration parameters.
type MatchConfig struct {
	AcceptThreshold  float64
	SimilarityWeight float64
	TokenSortWeight  float64
	OverlapWeight    float64
	PhoneticBonus    float64
	// PhoneticGate is the similarity below which the phonetic bonus applies;
	// visually similar names do not need the phonetic signal.
	PhoneticGate float64
	BrandBonus   float64
}

type RoomConfig struct {
	ConfidenceFloor float64
}

type ProviderConfig struct {
	Name    string
	BaseURL string
	// TBO-style providers throttle their own outbound calls.
	CallsPerMinute int
}

// Load builds the configuration from environment variables with defaults
// matching production calibration.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:            ":" + envStr("PORT", "8080"),
		SearchDeadline:  envDuration("SEARCH_DEADLINE", 10*time.Second),
		AdapterTimeout:  envDuration("ADAPTER_TIMEOUT", 30*time.Second),
		CacheTTL:        envDuration("CACHE_TTL", 30*time.Second),
		RateLimitCap:    envInt("RATE_LIMIT_CAP", 10),
		RateLimitRefill: envDuration("RATE_LIMIT_REFILL", time.Minute),
		Breaker: BreakerConfig{
			FailureThreshold: envInt("BREAKER_FAILURE_THRESHOLD", 3),
			Cooldown:         envDuration("BREAKER_COOLDOWN", 60*time.Second),
		},
		Match: MatchConfig{
			AcceptThreshold:  envFloat("MATCH_ACCEPT_THRESHOLD", 0.85),
			SimilarityWeight: envFloat("MATCH_SIMILARITY_WEIGHT", 0.55),
			TokenSortWeight:  envFloat("MATCH_TOKEN_SORT_WEIGHT", 0.25),
			OverlapWeight:    envFloat("MATCH_OVERLAP_WEIGHT", 0.20),
			PhoneticBonus:    envFloat("MATCH_PHONETIC_BONUS", 0.07),
			PhoneticGate:     envFloat("MATCH_PHONETIC_GATE", 0.85),
			BrandBonus:       envFloat("MATCH_BRAND_BONUS", 0.10),
		},
		Room: RoomConfig{
			ConfidenceFloor: envFloat("ROOM_CONFIDENCE_FLOOR", 0.40),
		},
		MappingStorePath: envStr("MAPPING_STORE_PATH", "carter.db"),
		ArchivePath:      envStr("ARCHIVE_PATH", "audit.jsonl"),
	}

	names := strings.Split(envStr("PROVIDERS", "rate_hawk,goglobal,tbo"), ",")
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		pc := ProviderConfig{Name: name}
		prefix := "PROVIDER_" + strings.ToUpper(name) + "_"
		switch name {
		case "rate_hawk":
			pc.BaseURL = envStr(prefix+"BASE_URL", "https://api.worldota.net/api/b2b/v3/search/serp/hotels/")
		case "goglobal":
			pc.BaseURL = envStr(prefix+"BASE_URL", "https://carter.xml.goglobal.travel/xmlwebservice.asmx")
		case "tbo":
			pc.BaseURL = envStr(prefix+"BASE_URL", "http://api.tbotechnology.in/TBOHolidays_HotelAPI/search")
			pc.CallsPerMinute = envInt(prefix+"CALLS_PER_MINUTE", 30)
		default:
			pc.BaseURL = envStr(prefix+"BASE_URL", "")
		}
		cfg.Providers = append(cfg.Providers, pc)
	}
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}

	return cfg, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
