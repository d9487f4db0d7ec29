package erpflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/finchline/erpflow/pkg/erpflow/checkpoint"
	"github.com/finchline/erpflow/pkg/erpflow/event"
	"github.com/finchline/erpflow/pkg/erpflow/observability"
)

// Dispatcher delivers an envelope to its bound handler. Delivery platforms
// call it once per delivery attempt; a non-nil error tells the platform the
// invocation failed and should be retried within its budget.
type Dispatcher func(ctx context.Context, env *event.Envelope) error

// Platform is the external event-delivery side of the system: it owns
// queueing, delayed delivery, retry, and at-least-once semantics. The
// client only hands envelopes to it.
type Platform interface {
	// Enqueue accepts an envelope for delivery. A scheduled envelope
	// (DeliverAt set) must not be dispatched before its instant. Errors
	// propagate to the emitter un-retried: the platform retries delivery
	// once it has accepted an event, not acceptance itself.
	Enqueue(ctx context.Context, env *event.Envelope) error

	// Close shuts the platform down.
	Close() error
}

// Consumer is implemented by platforms that deliver events back into this
// process. The client binds its Dispatch to consumer-capable platforms at
// construction.
type Consumer interface {
	Bind(Dispatcher)
}

// Client is the single choke point through which the application emits
// events and registers workflow handlers. It is constructed explicitly and
// passed where needed; there is no package-level instance.
type Client struct {
	platform Platform
	registry *Registry
	steps    checkpoint.Store
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	closed   atomic.Bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the structured logger. Nil disables logging.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder (default: no-op).
func WithMetrics(m observability.MetricsRecorder) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithSpans sets the span manager (default: no-op).
func WithSpans(s observability.SpanManager) ClientOption {
	return func(c *Client) {
		c.spans = s
	}
}

// WithStepStore sets the step-result store used for per-step memoization
// (default: in-memory). Use checkpoint.NewSQLiteStore for durability
// across restarts.
func WithStepStore(s checkpoint.Store) ClientOption {
	return func(c *Client) {
		c.steps = s
	}
}

// NewClient creates a client over the given delivery platform. If the
// platform is consumer-capable (delivers events back into this process),
// the client's Dispatch is bound to it.
func NewClient(p Platform, opts ...ClientOption) *Client {
	c := &Client{
		platform: p,
		registry: NewRegistry(),
		steps:    checkpoint.NewMemoryStore(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if consumer, ok := p.(Consumer); ok {
		consumer.Bind(c.Dispatch)
	}
	return c
}

// Register binds a handler to an event name. Call at process start,
// before any event of that name can be delivered.
func (c *Client) Register(name string, h Handler) error {
	return c.registry.Register(name, h)
}

// Registry exposes the handler registry (read-side: Lookup, Names).
func (c *Client) Registry() *Registry {
	return c.registry
}

// Send emits an event for immediate delivery. The error, if any, is the
// platform's acceptance failure; it is not retried here — the caller
// decides whether to retry the emission.
func (c *Client) Send(ctx context.Context, name string, payload any, opts ...event.Option) error {
	return c.send(ctx, name, payload, opts...)
}

// SendAt emits an event for delivery no earlier than the given instant.
// Scheduling is expressed as an absolute timestamp; once sent, a scheduled
// event cannot be unscheduled, so handlers for scheduled events must
// re-check their triggering condition on delivery.
func (c *Client) SendAt(ctx context.Context, name string, payload any, at time.Time, opts ...event.Option) error {
	return c.send(ctx, name, payload, append(opts, event.WithDeliverAt(at))...)
}

func (c *Client) send(ctx context.Context, name string, payload any, opts ...event.Option) error {
	if c.closed.Load() {
		return fmt.Errorf("send %s: %w", name, ErrClientClosed)
	}

	env, err := event.New(name, payload, opts...)
	if err != nil {
		return err
	}

	if err := c.platform.Enqueue(ctx, env); err != nil {
		return fmt.Errorf("enqueue %s: %w", name, err)
	}

	observability.LogPublish(c.logger, env.ID, env.Name, env.DeliverAtTime())
	c.metrics.RecordPublish(ctx, env.Name, env.Scheduled())
	return nil
}

// Dispatch executes the handler bound to the envelope's name. It is the
// Dispatcher given to consumer-capable platforms, and may be called
// directly by external delivery adapters.
//
// On success the invocation's memoized step results are discarded. On
// failure they are kept, so a redelivery of the same event id skips the
// steps that already completed.
func (c *Client) Dispatch(ctx context.Context, env *event.Envelope) error {
	handler, ok := c.registry.Lookup(env.Name)
	if !ok {
		return &DispatchError{
			EventID: env.ID,
			Name:    env.Name,
			Attempt: env.Attempt,
			Err:     ErrNoHandler,
		}
	}

	logger := observability.EnrichLogger(c.logger, env.ID, env.Name, env.Attempt)
	run := &Run{
		env:     env,
		steps:   c.steps,
		logger:  logger,
		metrics: c.metrics,
		spans:   c.spans,
		seen:    make(map[string]struct{}),
	}

	handlerCtx, span := c.spans.StartHandlerSpan(ctx, env.Name, env.ID)
	observability.LogHandlerStart(logger, env.Name)
	done := observability.TimedOperation()

	err := handler.Handle(handlerCtx, run)
	durationMs := done()
	c.metrics.RecordHandlerRun(ctx, env.Name, err == nil, time.Duration(durationMs)*time.Millisecond)
	c.spans.EndSpanWithError(span, err)

	if err != nil {
		observability.LogHandlerError(logger, env.Name, err, durationMs)
		return &DispatchError{
			EventID: env.ID,
			Name:    env.Name,
			Attempt: env.Attempt,
			Err:     err,
		}
	}

	observability.LogHandlerComplete(logger, env.Name, durationMs)
	if err := c.steps.DeleteRun(env.ID); err != nil {
		observability.LogCheckpointError(logger, env.Name, "delete-run", err)
	}
	return nil
}

// Close shuts down the platform and the step store.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	platformErr := c.platform.Close()
	storeErr := c.steps.Close()
	if platformErr != nil {
		return platformErr
	}
	return storeErr
}
