package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/obs"
)

func TestCacheCollapsesConcurrentComputes(t *testing.T) {
	cache := NewCache(2*time.Second, obs.NewMetrics(prometheus.NewRegistry()))
	var calls int32
	fn := func(ctx context.Context) (SearchResponse, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return SearchResponse{RequestID: "r1"}, nil
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.GetOrCompute(ctx, "k", fn)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected single compute, got %d", got)
	}
}

func TestCacheHitMarksResponse(t *testing.T) {
	cache := NewCache(time.Minute, obs.NewMetrics(prometheus.NewRegistry()))
	fn := func(ctx context.Context) (SearchResponse, error) {
		return SearchResponse{RequestID: "r1", Stats: Stats{Cache: "miss"}}, nil
	}

	first, err := cache.GetOrCompute(context.Background(), "k", fn)
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.Cache != "miss" {
		t.Fatalf("first call should be a miss, got %s", first.Stats.Cache)
	}

	second, err := cache.GetOrCompute(context.Background(), "k", fn)
	if err != nil {
		t.Fatal(err)
	}
	if second.Stats.Cache != "hit" {
		t.Fatalf("second call should be a hit, got %s", second.Stats.Cache)
	}
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	cache := NewCache(time.Minute, obs.NewMetrics(prometheus.NewRegistry()))
	var calls int32
	fn := func(ctx context.Context) (SearchResponse, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return SearchResponse{}, errors.New("upstream down")
		}
		return SearchResponse{RequestID: "ok"}, nil
	}

	if _, err := cache.GetOrCompute(context.Background(), "k", fn); err == nil {
		t.Fatal("expected first call to fail")
	}
	res, err := cache.GetOrCompute(context.Background(), "k", fn)
	if err != nil {
		t.Fatalf("second call should recompute, got error %v", err)
	}
	if res.RequestID != "ok" {
		t.Fatalf("unexpected recomputed response: %+v", res)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(30*time.Millisecond, obs.NewMetrics(prometheus.NewRegistry()))
	var calls int32
	fn := func(ctx context.Context) (SearchResponse, error) {
		atomic.AddInt32(&calls, 1)
		return SearchResponse{}, nil
	}

	cache.GetOrCompute(context.Background(), "k", fn)
	time.Sleep(50 * time.Millisecond)
	cache.GetOrCompute(context.Background(), "k", fn)

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected recompute after TTL, got %d calls", got)
	}
}
