// Package platform provides event-delivery platforms for the erpflow
// client: an in-process implementation owning queueing, delayed delivery,
// and retry, and a NATS-backed implementation for multi-process
// deployments.
package platform

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/finchline/erpflow/pkg/erpflow"
	"github.com/finchline/erpflow/pkg/erpflow/event"
	"github.com/finchline/erpflow/pkg/erpflow/observability"
)

// MemoryConfig configures the in-process platform.
type MemoryConfig struct {
	// Retries is the delivery attempt budget per invocation, including
	// the first attempt. Default: 3.
	Retries int

	// Workers is the number of concurrent delivery goroutines.
	// Default: 4.
	Workers int

	// QueueSize is the delivery buffer. Default: 256.
	QueueSize int

	// InitialBackoff is the pause before the first redelivery.
	// Default: 50ms. Backoff doubles per attempt up to MaxBackoff,
	// with Jitter applied. The backoff policy is the platform's own;
	// handler code never sees it.
	InitialBackoff time.Duration

	// MaxBackoff caps the redelivery pause. Default: 5s.
	MaxBackoff time.Duration

	// Jitter is the random jitter factor (0.0-1.0). Default: 0.1.
	Jitter float64

	// DLQ receives invocations whose retry budget is exhausted.
	// Default: a fresh InMemoryDLQ.
	DLQ erpflow.DLQ

	// Logger for platform-level events. Nil disables logging.
	Logger *slog.Logger

	// Metrics records retries and dead-letters (default: no-op).
	Metrics observability.MetricsRecorder
}

// Memory is an in-process delivery platform. It delivers enqueued
// envelopes to the bound dispatcher on worker goroutines, honors scheduled
// delivery via timers, retries failed invocations with exponential backoff,
// and dead-letters exhausted ones.
//
// Delivery is at-least-once from the handler's point of view: a retried
// invocation re-enters the dispatcher with the same event id and a higher
// attempt counter. Cross-event ordering is not guaranteed.
type Memory struct {
	cfg      MemoryConfig
	dispatch atomic.Pointer[erpflow.Dispatcher]
	queue    chan *event.Envelope

	workers sync.WaitGroup
	pending sync.WaitGroup

	timerMu sync.Mutex
	timers  map[*time.Timer]struct{}

	closed  atomic.Bool
	closeCh chan struct{}
}

// Compile-time interface checks.
var (
	_ erpflow.Platform = (*Memory)(nil)
	_ erpflow.Consumer = (*Memory)(nil)
)

// NewMemory creates and starts an in-process platform.
// Bind a dispatcher (erpflow.NewClient does this) before enqueueing.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 50 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.Jitter <= 0 {
		cfg.Jitter = 0.1
	}
	if cfg.DLQ == nil {
		cfg.DLQ = erpflow.NewInMemoryDLQ(erpflow.DLQConfig{})
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}

	m := &Memory{
		cfg:     cfg,
		queue:   make(chan *event.Envelope, cfg.QueueSize),
		timers:  make(map[*time.Timer]struct{}),
		closeCh: make(chan struct{}),
	}

	m.workers.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go m.work()
	}
	return m
}

// Bind implements erpflow.Consumer.
func (m *Memory) Bind(d erpflow.Dispatcher) {
	m.dispatch.Store(&d)
}

// DLQ returns the platform's dead-letter queue.
func (m *Memory) DLQ() erpflow.DLQ {
	return m.cfg.DLQ
}

// Enqueue implements erpflow.Platform. Scheduled envelopes are held on a
// timer until their delivery instant; everything else goes straight to the
// workers.
func (m *Memory) Enqueue(ctx context.Context, env *event.Envelope) error {
	if m.closed.Load() {
		return &PlatformError{Op: "enqueue", Name: env.Name, Err: ErrPlatformClosed}
	}

	m.pending.Add(1)

	delay := time.Until(env.DeliverAtTime())
	if env.Scheduled() && delay > 0 {
		m.holdUntil(env, delay)
		return nil
	}
	return m.push(ctx, env)
}

// push hands an envelope to the worker queue.
func (m *Memory) push(ctx context.Context, env *event.Envelope) error {
	select {
	case m.queue <- env:
		return nil
	case <-m.closeCh:
		m.pending.Done()
		return &PlatformError{Op: "enqueue", Name: env.Name, Err: ErrPlatformClosed}
	case <-ctx.Done():
		m.pending.Done()
		return ctx.Err()
	}
}

// holdUntil parks a scheduled envelope until its delivery instant.
// There is no unschedule: once accepted, the event will fire.
func (m *Memory) holdUntil(env *event.Envelope, delay time.Duration) {
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		m.timerMu.Lock()
		delete(m.timers, timer)
		m.timerMu.Unlock()

		if m.closed.Load() {
			m.pending.Done()
			return
		}
		select {
		case m.queue <- env:
		case <-m.closeCh:
			m.pending.Done()
		}
	})

	m.timerMu.Lock()
	m.timers[timer] = struct{}{}
	m.timerMu.Unlock()
}

func (m *Memory) work() {
	defer m.workers.Done()
	for {
		select {
		case env := <-m.queue:
			m.deliver(env)
		case <-m.closeCh:
			return
		}
	}
}

// deliver runs the full retry loop for one envelope on the calling worker.
func (m *Memory) deliver(env *event.Envelope) {
	defer m.pending.Done()

	dispatch := m.dispatch.Load()
	if dispatch == nil {
		// No dispatcher bound; dead-letter rather than lose the event.
		m.deadLetter(env, &PlatformError{Op: "deliver", Name: env.Name, Err: ErrNotBound}, 0)
		return
	}

	ctx := context.Background()
	backoff := m.cfg.InitialBackoff

	for attempt := 1; attempt <= m.cfg.Retries; attempt++ {
		env.Attempt = attempt
		err := (*dispatch)(ctx, env)
		if err == nil {
			return
		}

		if attempt == m.cfg.Retries {
			m.deadLetter(env, err, attempt)
			return
		}

		m.cfg.Metrics.RecordRetry(ctx, env.Name)
		if m.cfg.Logger != nil {
			m.cfg.Logger.Warn("invocation failed, retrying",
				slog.String("event_id", env.ID),
				slog.String("event", env.Name),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-time.After(withJitter(backoff, m.cfg.Jitter)):
		case <-m.closeCh:
			return
		}
		backoff *= 2
		if backoff > m.cfg.MaxBackoff {
			backoff = m.cfg.MaxBackoff
		}
	}
}

func (m *Memory) deadLetter(env *event.Envelope, err error, attempts int) {
	_ = m.cfg.DLQ.Add(&erpflow.FailedEvent{
		Env:      env,
		Err:      err,
		Attempts: attempts,
		FailedAt: time.Now().UTC(),
	})
	m.cfg.Metrics.RecordDeadLetter(context.Background(), env.Name)
	observability.LogDeadLetter(m.cfg.Logger, env.ID, env.Name, attempts, err)
}

// withJitter spreads a backoff by +/- base*jitter.
func withJitter(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return base
	}
	spread := float64(base) * jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(base) + spread)
}

// Drain blocks until every accepted envelope (including scheduled ones)
// has been fully delivered, retried out, or dead-lettered. Test helper.
func (m *Memory) Drain() {
	m.pending.Wait()
}

// Close implements erpflow.Platform. Scheduled envelopes not yet due are
// discarded; queued ones are dropped.
func (m *Memory) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(m.closeCh)

	m.timerMu.Lock()
	for timer := range m.timers {
		if timer.Stop() {
			m.pending.Done()
		}
		delete(m.timers, timer)
	}
	m.timerMu.Unlock()

	m.workers.Wait()

	// Release envelopes stuck in the buffer so Drain callers unblock.
	for {
		select {
		case <-m.queue:
			m.pending.Done()
		default:
			return nil
		}
	}
}
