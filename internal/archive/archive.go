package archive

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Event is one archived provider call record, written as a JSONL row.
type Event struct {
	RequestID  string    `json:"request_id"`
	Provider   string    `json:"provider"`
	Outcome    string    `json:"outcome"`
	LatencyMs  int64     `json:"latency_ms"`
	OfferCount int       `json:"offer_count"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Archiver appends provider call events to a JSONL file from a single
// background goroutine. Record never blocks the request path; when the
// buffer is full the event is dropped and counted.
type Archiver struct {
	ch     chan Event
	file   *os.File
	logger *slog.Logger

	mu      sync.Mutex
	dropped int64
	done    chan struct{}
	closed  bool
}

// New opens (or creates) the archive file and starts the writer goroutine.
func New(path string, logger *slog.Logger) (*Archiver, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	a := &Archiver{
		ch:     make(chan Event, 256),
		file:   f,
		logger: logger,
		done:   make(chan struct{}),
	}
	go a.run()
	return a, nil
}

// Record queues one event for archival. The send is non-blocking, so it
// stays under the lock; Close closes the channel under the same lock and
// therefore can never close it between the closed check and the send.
func (a *Archiver) Record(ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	select {
	case a.ch <- ev:
	default:
		a.dropped++
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (a *Archiver) Dropped() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

func (a *Archiver) run() {
	enc := json.NewEncoder(a.file)
	for ev := range a.ch {
		if err := enc.Encode(ev); err != nil {
			a.logger.Error("archive write failed", "error", err)
		}
	}
	close(a.done)
}

// Close drains queued events, flushes and closes the file.
func (a *Archiver) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.ch)
	a.mu.Unlock()

	<-a.done
	return a.file.Close()
}
