package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/archive"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/models"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/obs"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/orchestrator"
)

// Dispatcher is what the service needs from the orchestrator.
type Dispatcher interface {
	Dispatch(ctx context.Context, criteria *models.SearchCriteria) []orchestrator.CallResult
}

// Service runs the full search path: cache lookup, provider dispatch,
// normalization and assembly, then archival of the per-provider outcomes.
type Service struct {
	dispatcher Dispatcher
	assembler  *Assembler
	cache      CacheService
	archiver   *archive.Archiver
	metrics    *obs.Metrics
	logger     *slog.Logger
}

func NewService(d Dispatcher, a *Assembler, c CacheService, ar *archive.Archiver, m *obs.Metrics, logger *slog.Logger) *Service {
	return &Service{
		dispatcher: d,
		assembler:  a,
		cache:      c,
		archiver:   ar,
		metrics:    m,
		logger:     logger,
	}
}

// Search serves one validated search. Identical concurrent requests share a
// single provider dispatch through the collapsing cache.
func (s *Service) Search(ctx context.Context, criteria *models.SearchCriteria) (SearchResponse, error) {
	s.metrics.IncRequests()

	return s.cache.GetOrCompute(ctx, criteria.CacheKey(), func(ctx context.Context) (SearchResponse, error) {
		return s.compute(ctx, criteria)
	})
}

func (s *Service) compute(ctx context.Context, criteria *models.SearchCriteria) (SearchResponse, error) {
	requestID := uuid.NewString()
	start := time.Now()

	results := s.dispatcher.Dispatch(ctx, criteria)
	hotels, statuses := s.assembler.Assemble(results, criteria)

	resp := SearchResponse{
		RequestID: requestID,
		Providers: statuses,
		Hotels:    hotels,
	}
	resp.Stats.ProvidersTotal = len(results)
	for _, res := range results {
		switch res.Outcome {
		case orchestrator.OutcomeSuccess:
			resp.Stats.ProvidersSucceeded++
		case orchestrator.OutcomeFailure:
			resp.Stats.ProvidersFailed++
		case orchestrator.OutcomeSkipped:
			resp.Stats.ProvidersSkipped++
		}
	}
	resp.Stats.Cache = "miss"
	resp.Stats.DurationMs = time.Since(start).Milliseconds()

	s.archiveResults(requestID, results)

	s.logger.Info("search completed",
		"request_id", requestID,
		"hotels", len(hotels),
		"succeeded", resp.Stats.ProvidersSucceeded,
		"failed", resp.Stats.ProvidersFailed,
		"skipped", resp.Stats.ProvidersSkipped,
		"duration_ms", resp.Stats.DurationMs)

	return resp, nil
}

func (s *Service) archiveResults(requestID string, results []orchestrator.CallResult) {
	if s.archiver == nil {
		return
	}
	now := time.Now().UTC()
	for _, res := range results {
		ev := archive.Event{
			RequestID:  requestID,
			Provider:   res.Provider,
			Outcome:    string(res.Outcome),
			LatencyMs:  res.Latency.Milliseconds(),
			OfferCount: len(res.Offers),
			At:         now,
		}
		if res.Err != nil {
			ev.Error = res.Err.Error()
		}
		s.archiver.Record(ev)
	}
}
