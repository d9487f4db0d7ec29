package erpflow

import (
	"sync"
	"time"

	"github.com/finchline/erpflow/pkg/erpflow/event"
)

// FailedEvent is an invocation whose retry budget was exhausted.
type FailedEvent struct {
	// Env is the envelope as last delivered.
	Env *event.Envelope

	// Err is the final dispatch error.
	Err error

	// Attempts is the number of delivery attempts made.
	Attempts int

	// FailedAt is when the invocation was dead-lettered.
	FailedAt time.Time
}

// DLQ receives invocations that exhausted their retry budget, so failures
// are observable instead of disappearing into the platform.
type DLQ interface {
	// Add records a failed invocation. Errors only when the queue cannot
	// accept more entries.
	Add(failed *FailedEvent) error

	// Drain removes and returns up to limit failed invocations, oldest
	// first.
	Drain(limit int) []*FailedEvent

	// Len returns the number of queued failures.
	Len() int
}

// DLQConfig configures the in-memory dead-letter queue.
type DLQConfig struct {
	// MaxSize limits queued failures. Default: 10000. When full, Add
	// drops the oldest entry to make room — losing the oldest failure
	// beats blocking delivery workers.
	MaxSize int

	// OnAdd is called for every dead-lettered invocation.
	OnAdd func(*FailedEvent)
}

// InMemoryDLQ is an in-memory dead-letter queue. Suitable for tests and
// single-instance deployments; production multi-instance setups should
// drain it into the application's audit trail.
type InMemoryDLQ struct {
	mu      sync.Mutex
	queue   []*FailedEvent
	cfg     DLQConfig
	added   int64
	dropped int64
}

// NewInMemoryDLQ creates an in-memory dead-letter queue.
func NewInMemoryDLQ(cfg DLQConfig) *InMemoryDLQ {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 10000
	}
	return &InMemoryDLQ{cfg: cfg}
}

// Add implements DLQ.
func (d *InMemoryDLQ) Add(failed *FailedEvent) error {
	d.mu.Lock()
	if len(d.queue) >= d.cfg.MaxSize {
		d.queue = d.queue[1:]
		d.dropped++
	}
	d.queue = append(d.queue, failed)
	d.added++
	d.mu.Unlock()

	if d.cfg.OnAdd != nil {
		d.cfg.OnAdd(failed)
	}
	return nil
}

// Drain implements DLQ.
func (d *InMemoryDLQ) Drain(limit int) []*FailedEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	if limit <= 0 || limit > len(d.queue) {
		limit = len(d.queue)
	}
	out := make([]*FailedEvent, limit)
	copy(out, d.queue[:limit])
	d.queue = d.queue[limit:]
	return out
}

// Len implements DLQ.
func (d *InMemoryDLQ) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Stats returns lifetime counters: total added and total dropped for
// capacity.
func (d *InMemoryDLQ) Stats() (added, dropped int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.added, d.dropped
}
