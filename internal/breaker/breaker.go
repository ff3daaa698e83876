package breaker

import (
	"sync"
	"time"
)

// State of a circuit breaker.
type State string

const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half_open"
)

// Breaker guards one provider. Consecutive failures trip it open; after the
// cooldown a single trial call probes the provider, and its outcome decides
// whether the circuit closes again.
type Breaker struct {
	mu sync.Mutex

	name      string
	threshold int
	cooldown  time.Duration

	state         State
	failures      int
	openedAt      time.Time
	trialInFlight bool

	now func() time.Time
}

func New(name string, threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		state:     Closed,
		now:       time.Now,
	}
}

func (b *Breaker) Name() string { return b.name }

// Allow reports whether a call may proceed. In HALF_OPEN exactly one caller
// is admitted as the trial; concurrent callers are rejected until the trial
// resolves, so a recovering provider is never stormed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh()

	switch b.state {
	case Closed:
		return true
	case HalfOpen:
		if b.trialInFlight {
			return false
		}
		b.trialInFlight = true
		return true
	default:
		return false
	}
}

// refresh moves OPEN to HALF_OPEN once the cooldown has elapsed. Caller holds
// the mutex.
func (b *Breaker) refresh() {
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cooldown {
		b.state = HalfOpen
		b.trialInFlight = false
	}
}

// OnSuccess records a successful call: counters reset and a successful trial
// closes the circuit.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == HalfOpen {
		b.state = Closed
		b.trialInFlight = false
	}
}

// OnFailure records a failed call: a failed trial reopens the circuit and
// restarts the cooldown, while threshold consecutive failures trip CLOSED
// to OPEN.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == HalfOpen {
		b.state = Open
		b.openedAt = b.now()
		b.trialInFlight = false
		return
	}
	if b.failures >= b.threshold {
		b.state = Open
		b.openedAt = b.now()
	}
}

// Reset forces CLOSED and clears counters regardless of current state. Used
// for manual recovery through the admin surface.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = Closed
	b.failures = 0
	b.trialInFlight = false
	b.openedAt = time.Time{}
}

// State returns the current state, applying the cooldown transition first.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()
	return b.state
}

// Failures returns the rolling consecutive-failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// SetClock overrides the time source, for tests.
func (b *Breaker) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}
