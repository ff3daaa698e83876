package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/breaker"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/models"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/obs"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/providers"
)

type fakeAdapter struct {
	name   string
	offers []providers.RawOffer
	err    error
	delay  time.Duration
	calls  int32
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Search(ctx context.Context, criteria *models.SearchCriteria) ([]providers.RawOffer, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, providers.NewError(f.name, providers.KindTimeout, ctx.Err())
		}
	}
	return f.offers, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrchestrator(adapters []providers.Adapter, breakers map[string]*breaker.Breaker, deadline time.Duration) *Orchestrator {
	return New(adapters, breakers, deadline, obs.NewMetrics(prometheus.NewRegistry()), testLogger())
}

func defaultBreakers(adapters []providers.Adapter) map[string]*breaker.Breaker {
	out := make(map[string]*breaker.Breaker)
	for _, a := range adapters {
		out[a.Name()] = breaker.New(a.Name(), 3, time.Minute)
	}
	return out
}

func testCriteria() *models.SearchCriteria {
	return &models.SearchCriteria{Destination: "Malé"}
}

func TestDispatchPreservesDeclarationOrder(t *testing.T) {
	offer := providers.RawOffer{ID: "o1", HotelName: "Baros Maldives", RoomName: "Deluxe", Price: 100, Currency: "EUR"}
	adapters := []providers.Adapter{
		&fakeAdapter{name: "a", offers: []providers.RawOffer{offer}, delay: 30 * time.Millisecond},
		&fakeAdapter{name: "b", err: providers.NewError("b", providers.KindAuth, errors.New("bad creds"))},
		&fakeAdapter{name: "c", offers: []providers.RawOffer{offer}},
	}
	o := newOrchestrator(adapters, defaultBreakers(adapters), time.Second)

	results := o.Dispatch(context.Background(), testCriteria())

	if len(results) != 3 {
		t.Fatalf("expected one result per provider, got %d", len(results))
	}
	for i, want := range []string{"a", "b", "c"} {
		if results[i].Provider != want {
			t.Fatalf("result %d: got provider %s, want %s", i, results[i].Provider, want)
		}
	}
	if results[0].Outcome != OutcomeSuccess || len(results[0].Offers) != 1 {
		t.Fatalf("provider a: unexpected result %+v", results[0])
	}
	if results[1].Outcome != OutcomeFailure || results[1].ErrorKind != providers.KindAuth {
		t.Fatalf("provider b: unexpected result %+v", results[1])
	}
	if results[2].Outcome != OutcomeSuccess {
		t.Fatalf("provider c: unexpected result %+v", results[2])
	}
}

func TestDispatchSkipsOpenBreakerWithoutCalling(t *testing.T) {
	blocked := &fakeAdapter{name: "b"}
	adapters := []providers.Adapter{
		&fakeAdapter{name: "a"},
		blocked,
	}
	breakers := defaultBreakers(adapters)
	breakers["b"] = breaker.New("b", 1, time.Hour)
	breakers["b"].OnFailure()

	o := newOrchestrator(adapters, breakers, time.Second)
	results := o.Dispatch(context.Background(), testCriteria())

	if results[1].Outcome != OutcomeSkipped {
		t.Fatalf("expected skip for open breaker, got %+v", results[1])
	}
	if atomic.LoadInt32(&blocked.calls) != 0 {
		t.Fatal("skipped provider must not be invoked")
	}
	if results[0].Outcome != OutcomeSuccess {
		t.Fatalf("healthy provider affected by peer skip: %+v", results[0])
	}
}

func TestDispatchStampsTimeoutsAtDeadline(t *testing.T) {
	adapters := []providers.Adapter{
		&fakeAdapter{name: "fast"},
		&fakeAdapter{name: "slow", delay: 2 * time.Second},
	}
	o := newOrchestrator(adapters, defaultBreakers(adapters), 50*time.Millisecond)

	start := time.Now()
	results := o.Dispatch(context.Background(), testCriteria())
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Fatalf("dispatch did not return at the deadline, took %s", elapsed)
	}
	if results[0].Outcome != OutcomeSuccess {
		t.Fatalf("fast provider: unexpected result %+v", results[0])
	}
	if results[1].Outcome != OutcomeFailure || results[1].ErrorKind != providers.KindTimeout {
		t.Fatalf("slow provider should be stamped as timeout, got %+v", results[1])
	}
}

func TestDispatchFailuresTripBreaker(t *testing.T) {
	failing := &fakeAdapter{name: "a", err: errors.New("boom")}
	adapters := []providers.Adapter{failing}
	breakers := defaultBreakers(adapters)
	o := newOrchestrator(adapters, breakers, time.Second)

	for i := 0; i < 3; i++ {
		o.Dispatch(context.Background(), testCriteria())
	}
	if breakers["a"].State() != breaker.Open {
		t.Fatalf("breaker should be open after repeated failures, got %s", breakers["a"].State())
	}

	results := o.Dispatch(context.Background(), testCriteria())
	if results[0].Outcome != OutcomeSkipped {
		t.Fatalf("expected skip once open, got %+v", results[0])
	}
	if atomic.LoadInt32(&failing.calls) != 3 {
		t.Fatalf("expected 3 real calls, got %d", failing.calls)
	}
}

func TestDispatchProviderSubset(t *testing.T) {
	adapters := []providers.Adapter{
		&fakeAdapter{name: "a"},
		&fakeAdapter{name: "b"},
		&fakeAdapter{name: "c"},
	}
	o := newOrchestrator(adapters, defaultBreakers(adapters), time.Second)

	criteria := testCriteria()
	criteria.Providers = []string{"c", "a"}
	results := o.Dispatch(context.Background(), criteria)

	if len(results) != 2 {
		t.Fatalf("expected 2 results for the subset, got %d", len(results))
	}
	if results[0].Provider != "a" || results[1].Provider != "c" {
		t.Fatalf("subset must keep declaration order, got %s then %s", results[0].Provider, results[1].Provider)
	}
}

func TestDispatchInvalidSubsetFallsBackToAll(t *testing.T) {
	adapters := []providers.Adapter{
		&fakeAdapter{name: "a"},
		&fakeAdapter{name: "b"},
	}
	o := newOrchestrator(adapters, defaultBreakers(adapters), time.Second)

	criteria := testCriteria()
	criteria.Providers = []string{"nope"}
	results := o.Dispatch(context.Background(), criteria)

	if len(results) != 2 {
		t.Fatalf("all-invalid subset should search everything, got %d results", len(results))
	}
}
