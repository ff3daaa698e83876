package search

import (
	"context"
	"sync"
	"time"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/obs"
)

// CacheService caches assembled search responses and collapses concurrent
// computations for the same key into one.
type CacheService interface {
	GetOrCompute(ctx context.Context, key string, fn func(ctx context.Context) (SearchResponse, error)) (SearchResponse, error)
}

type cacheEntry struct {
	val     SearchResponse
	expiry  time.Time
	ready   bool
	waiters []chan resultOrErr
}

type resultOrErr struct {
	res SearchResponse
	err error
}

type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	items   map[string]*cacheEntry
	metrics *obs.Metrics
}

func NewCache(ttl time.Duration, m *obs.Metrics) *Cache {
	return &Cache{ttl: ttl, items: make(map[string]*cacheEntry), metrics: m}
}

// GetOrCompute returns a fresh cached response, joins an in-flight
// computation for the same key, or runs fn itself. Exactly one caller
// computes; the rest wait on a buffered channel or their context.
func (c *Cache) GetOrCompute(ctx context.Context, key string, fn func(ctx context.Context) (SearchResponse, error)) (SearchResponse, error) {
	c.mu.Lock()
	entry, found := c.items[key]
	now := time.Now()

	if found && entry.ready && now.Before(entry.expiry) {
		val := entry.val
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.IncCacheHits()
		}
		val.Stats.Cache = "hit"
		return val, nil
	}

	if found && !entry.ready {
		ch := make(chan resultOrErr, 1)
		entry.waiters = append(entry.waiters, ch)
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return SearchResponse{}, ctx.Err()
		case r := <-ch:
			return r.res, r.err
		}
	}

	ch := make(chan resultOrErr, 1)
	entry = &cacheEntry{waiters: []chan resultOrErr{ch}}
	c.items[key] = entry
	c.mu.Unlock()

	res, err := fn(ctx)
	result := resultOrErr{res: res, err: err}

	c.mu.Lock()
	if err != nil {
		// Errors are not cached; the next caller recomputes.
		delete(c.items, key)
	} else {
		entry.val = res
		entry.expiry = now.Add(c.ttl)
		entry.ready = true
	}
	waiters := entry.waiters
	entry.waiters = nil
	c.mu.Unlock()

	for _, w := range waiters {
		w <- result
		close(w)
	}

	return res, err
}
