package providers

import (
	"sync"
	"time"
)

// callBucket is a token bucket guarding outbound calls to a rate-limited
// provider. Tokens refill in whole-window steps.
type callBucket struct {
	mu         sync.Mutex
	tokens     int
	cap        int
	lastRefill time.Time
	refill     time.Duration
}

func newCallBucket(callsPerWindow int, window time.Duration) *callBucket {
	return &callBucket{
		tokens:     callsPerWindow,
		cap:        callsPerWindow,
		lastRefill: time.Now(),
		refill:     window,
	}
}

func (b *callBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	if now.Sub(b.lastRefill) >= b.refill {
		b.tokens = b.cap
		b.lastRefill = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}
