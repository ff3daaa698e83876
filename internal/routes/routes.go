package routes

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	handlers "github.com/Data-Cubed-CE/carter-api-integration/internal/http"
	mid "github.com/Data-Cubed-CE/carter-api-integration/internal/middleware"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/obs"
)

func GetRoutes(h *handlers.Handler, metrics *obs.Metrics, logger *slog.Logger, requestTimeout time.Duration) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Use(mid.MetricsMiddleware(metrics))
	r.Use(mid.LoggingMiddleware(logger))
	r.Use(mid.TimeoutMiddleware(requestTimeout))

	r.Post("/search", h.Search)
	r.Get("/healthz", h.Healthz)
	r.Get("/meal-types", h.MealTypes)
	r.Get("/providers/status", h.ProviderStatus)
	r.Post("/providers/{provider}/reset", h.ResetBreaker)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	return r
}
