package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/archive"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/breaker"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/config"
	handlers "github.com/Data-Cubed-CE/carter-api-integration/internal/http"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/match"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/obs"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/orchestrator"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/providers"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/routes"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/search"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/secrets"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/store"
)

// App holds the wired components and owns their shutdown order.
type App struct {
	Config   *config.Config
	Router   http.Handler
	Logger   *slog.Logger
	Metrics  *obs.Metrics
	archiver *archive.Archiver
	store    *store.MappingStore
}

// New wires the whole service. A missing mapping store or archive file
// degrades to in-memory operation instead of failing startup; a missing
// provider configuration is fatal.
func New() (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := obs.NewMetrics(registry)

	creds := secrets.NewEnvSource()
	adapters, err := providers.BuildRegistry(cfg.Providers, creds, cfg.AdapterTimeout)
	if err != nil {
		return nil, fmt.Errorf("build providers: %w", err)
	}

	breakers := make(map[string]*breaker.Breaker, len(adapters))
	for _, a := range adapters {
		breakers[a.Name()] = breaker.New(a.Name(), cfg.Breaker.FailureThreshold, cfg.Breaker.Cooldown)
	}
	orch := orchestrator.New(adapters, breakers, cfg.SearchDeadline, metrics, logger)

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}

	var persister match.AliasPersister
	mappingStore, err := store.Open(cfg.MappingStorePath, logger)
	if err != nil {
		logger.Warn("mapping store unavailable, running in-memory only", "error", err)
	} else {
		persister = mappingStore
	}

	matcher := match.NewHotelMatcher(cfg.Match, node, persister, logger)
	if mappingStore != nil {
		seeded, err := mappingStore.LoadAliases()
		if err != nil {
			logger.Warn("alias warm-up failed", "error", err)
		} else {
			for _, h := range seeded {
				matcher.Seed(h.ID, h.Name, h.Brand, h.Aliases)
			}
			logger.Info("alias index warmed up", "hotels", len(seeded))
		}
	}

	meals := match.NewMealNormalizer()
	if mappingStore != nil {
		overrides, err := mappingStore.MealOverrides()
		if err != nil {
			logger.Warn("meal override load failed", "error", err)
		} else if len(overrides) > 0 {
			meals.ApplyOverrides(overrides)
			logger.Info("meal code overrides applied", "providers", len(overrides))
		}
	}

	assembler := search.NewAssembler(matcher, match.NewRoomClassifier(cfg.Room), meals)
	cache := search.NewCache(cfg.CacheTTL, metrics)
	rl := search.NewIPRateLimiter(cfg.RateLimitCap, cfg.RateLimitRefill)

	archiver, err := archive.New(cfg.ArchivePath, logger)
	if err != nil {
		logger.Warn("archive unavailable, provider calls will not be recorded", "error", err)
		archiver = nil
	}

	svc := search.NewService(orch, assembler, cache, archiver, metrics, logger)
	h := handlers.NewHandler(svc, orch, rl, metrics)

	// Request timeout leaves headroom over the dispatch deadline so
	// assembly and encoding finish inside the same request.
	router := routes.GetRoutes(h, metrics, logger, cfg.SearchDeadline+5*time.Second)

	return &App{
		Config:   cfg,
		Router:   router,
		Logger:   logger,
		Metrics:  metrics,
		archiver: archiver,
		store:    mappingStore,
	}, nil
}

// Close flushes the archive and releases the mapping store.
func (a *App) Close() {
	if a.archiver != nil {
		if err := a.archiver.Close(); err != nil {
			a.Logger.Error("archive close failed", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Logger.Error("mapping store close failed", "error", err)
		}
	}
}
