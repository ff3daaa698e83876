package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/breaker"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/models"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/obs"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/providers"
)

// Outcome tags one provider's dispatch result.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

// CallResult is the immutable per-provider record handed to aggregation.
// Exactly one is produced per configured provider per dispatch.
type CallResult struct {
	Provider  string
	Outcome   Outcome
	Offers    []providers.RawOffer
	ErrorKind providers.ErrorKind
	Err       error
	Latency   time.Duration
}

// Orchestrator fans a search out to every permitted provider adapter and
// collects results under a shared deadline. It is the only component that
// fans out or in.
type Orchestrator struct {
	adapters []providers.Adapter
	breakers map[string]*breaker.Breaker
	deadline time.Duration
	metrics  *obs.Metrics
	logger   *slog.Logger
}

func New(adapters []providers.Adapter, breakers map[string]*breaker.Breaker, deadline time.Duration, m *obs.Metrics, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		adapters: adapters,
		breakers: breakers,
		deadline: deadline,
		metrics:  m,
		logger:   logger,
	}
}

// Breaker returns the breaker guarding the named provider, or nil.
func (o *Orchestrator) Breaker(provider string) *breaker.Breaker {
	return o.breakers[provider]
}

// Providers returns configured provider names in declaration order.
func (o *Orchestrator) Providers() []string {
	names := make([]string, len(o.adapters))
	for i, a := range o.adapters {
		names[i] = a.Name()
	}
	return names
}

type indexedResult struct {
	idx int
	res CallResult
}

// Dispatch queries the selected providers concurrently and returns exactly
// one CallResult per provider in declaration order, regardless of completion
// order. A provider that misses the shared deadline is recorded as a timeout
// failure; its in-flight call is abandoned and its late result discarded.
func (o *Orchestrator) Dispatch(ctx context.Context, criteria *models.SearchCriteria) []CallResult {
	ctx, cancel := context.WithTimeout(ctx, o.deadline)
	defer cancel()

	selected := o.selectAdapters(criteria.Providers)
	results := make([]CallResult, len(selected))
	resCh := make(chan indexedResult, len(selected))
	inFlight := 0

	for i, adapter := range selected {
		name := adapter.Name()
		br := o.breakers[name]

		if br != nil && !br.Allow() {
			results[i] = CallResult{Provider: name, Outcome: OutcomeSkipped}
			o.metrics.IncProviderOutcome(name, string(OutcomeSkipped))
			o.logger.Info("provider skipped, breaker open", "provider", name)
			continue
		}

		inFlight++
		go func(idx int, a providers.Adapter) {
			start := time.Now()
			offers, err := a.Search(ctx, criteria)
			latency := time.Since(start)
			o.metrics.ObserveProviderLatency(a.Name(), float64(latency.Milliseconds()))

			// The call reports to its own breaker even when the dispatch
			// has already returned; only the recorded result is discarded.
			if br := o.breakers[a.Name()]; br != nil {
				if err != nil {
					br.OnFailure()
				} else {
					br.OnSuccess()
				}
			}

			res := CallResult{Provider: a.Name(), Latency: latency}
			if err != nil {
				res.Outcome = OutcomeFailure
				res.ErrorKind = providers.KindOf(err)
				res.Err = err
			} else {
				res.Outcome = OutcomeSuccess
				res.Offers = offers
			}
			// Buffered channel: a late completion never blocks.
			resCh <- indexedResult{idx: idx, res: res}
		}(i, adapter)
	}

	collected := 0
	for collected < inFlight {
		select {
		case ir := <-resCh:
			results[ir.idx] = ir.res
			o.metrics.IncProviderOutcome(ir.res.Provider, string(ir.res.Outcome))
			if ir.res.Err != nil {
				o.logger.Warn("provider call failed",
					"provider", ir.res.Provider,
					"kind", string(ir.res.ErrorKind),
					"error", ir.res.Err,
					"latency_ms", ir.res.Latency.Milliseconds())
			}
			collected++
		case <-ctx.Done():
			// Deadline hit: stamp every still-outstanding slot as a timeout
			// and return without waiting for stragglers.
			for i := range results {
				if results[i].Provider == "" {
					name := selected[i].Name()
					results[i] = CallResult{
						Provider:  name,
						Outcome:   OutcomeFailure,
						ErrorKind: providers.KindTimeout,
						Err:       ctx.Err(),
						Latency:   o.deadline,
					}
					o.metrics.IncProviderOutcome(name, string(OutcomeFailure))
					o.logger.Warn("provider timed out", "provider", name)
				}
			}
			o.exportBreakerStates()
			return results
		}
	}

	o.exportBreakerStates()
	return results
}

// selectAdapters filters configured adapters by the optional provider subset,
// preserving declaration order. An all-invalid subset falls back to the full
// set rather than searching nothing.
func (o *Orchestrator) selectAdapters(requested []string) []providers.Adapter {
	if len(requested) == 0 {
		return o.adapters
	}
	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		want[name] = true
	}
	var selected []providers.Adapter
	for _, a := range o.adapters {
		if want[a.Name()] {
			selected = append(selected, a)
		}
	}
	if len(selected) == 0 {
		o.logger.Warn("no valid providers in request, using all", "requested", requested)
		return o.adapters
	}
	return selected
}

func (o *Orchestrator) exportBreakerStates() {
	for name, br := range o.breakers {
		var v float64
		switch br.State() {
		case breaker.HalfOpen:
			v = 1
		case breaker.Open:
			v = 2
		}
		o.metrics.SetBreakerState(name, v)
	}
}
