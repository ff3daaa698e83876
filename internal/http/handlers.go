package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/match"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/models"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/obs"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/orchestrator"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/search"
)

// SearchService is the piece of the search layer the handlers depend on.
type SearchService interface {
	Search(ctx context.Context, criteria *models.SearchCriteria) (search.SearchResponse, error)
}

type Handler struct {
	svc         SearchService
	orch        *orchestrator.Orchestrator
	ratelimiter search.RateLimiter
	metrics     *obs.Metrics
}

func NewHandler(svc SearchService, orch *orchestrator.Orchestrator, rl search.RateLimiter, m *obs.Metrics) *Handler {
	return &Handler{svc: svc, orch: orch, ratelimiter: rl, metrics: m}
}

func (h *Handler) ipFromRequest(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func requestID(r *http.Request) string {
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		return rid
	}
	return uuid.New().String()
}

// Search accepts a JSON search request, validates it and runs the full
// dispatch and aggregation path.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := requestID(r)
	meta := map[string]string{"request_id": reqID}

	ip := h.ipFromRequest(r)
	if !h.ratelimiter.Allow(ip) {
		h.metrics.IncRateLimitDrops()
		TooManyRequests(w, "rate limit exceeded", meta)
		return
	}

	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body", meta)
		return
	}

	criteria, err := req.Criteria()
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			ValidationFailed(w, verr.Reasons, meta)
			return
		}
		BadRequest(w, err.Error(), meta)
		return
	}

	res, err := h.svc.Search(ctx, criteria)
	if err != nil {
		InternalError(w, err.Error(), meta)
		return
	}

	WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type providerStatus struct {
	Provider     string `json:"provider"`
	BreakerState string `json:"breaker_state"`
	Failures     int    `json:"consecutive_failures"`
}

// ProviderStatus reports each provider's breaker state for operators.
func (h *Handler) ProviderStatus(w http.ResponseWriter, r *http.Request) {
	names := h.orch.Providers()
	out := make([]providerStatus, 0, len(names))
	for _, name := range names {
		st := providerStatus{Provider: name}
		if br := h.orch.Breaker(name); br != nil {
			st.BreakerState = string(br.State())
			st.Failures = br.Failures()
		}
		out = append(out, st)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"providers": out})
}

// ResetBreaker forces one provider's breaker back to closed.
func (h *Handler) ResetBreaker(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)
	name := chi.URLParam(r, "provider")

	br := h.orch.Breaker(name)
	if br == nil {
		NotFound(w, "unknown provider", map[string]string{
			"request_id": reqID,
			"provider":   name,
		})
		return
	}
	br.Reset()
	WriteJSON(w, http.StatusOK, map[string]string{
		"provider":      name,
		"breaker_state": string(br.State()),
	})
}

// MealTypes lists the canonical meal categories clients can filter by.
func (h *Handler) MealTypes(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"meal_types": match.MealPlans()})
}
