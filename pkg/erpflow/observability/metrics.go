package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records orchestration metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPublish records an event emission.
	RecordPublish(ctx context.Context, name string, scheduled bool)

	// RecordHandlerRun records a handler invocation completion.
	RecordHandlerRun(ctx context.Context, name string, success bool, duration time.Duration)

	// RecordStep records a step execution with its duration and error status.
	RecordStep(ctx context.Context, stepID string, duration time.Duration, err error)

	// RecordRetry records a platform-level redelivery of an invocation.
	RecordRetry(ctx context.Context, name string)

	// RecordDeadLetter records an invocation moved to the dead-letter queue.
	RecordDeadLetter(ctx context.Context, name string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	published   metric.Int64Counter
	handlerRuns metric.Int64Counter
	handlerLat  metric.Float64Histogram
	stepLatency metric.Float64Histogram
	stepErrors  metric.Int64Counter
	retries     metric.Int64Counter
	deadLetters metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("erpflow")

	published, err := meter.Int64Counter("erpflow.events.published",
		metric.WithDescription("Number of events published"),
	)
	if err != nil {
		return nil, err
	}

	handlerRuns, err := meter.Int64Counter("erpflow.handler.runs",
		metric.WithDescription("Number of handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	handlerLat, err := meter.Float64Histogram("erpflow.handler.latency_ms",
		metric.WithDescription("Handler invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	stepLatency, err := meter.Float64Histogram("erpflow.step.latency_ms",
		metric.WithDescription("Step execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	stepErrors, err := meter.Int64Counter("erpflow.step.errors",
		metric.WithDescription("Number of step execution errors"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter("erpflow.handler.retries",
		metric.WithDescription("Number of invocation redeliveries"),
	)
	if err != nil {
		return nil, err
	}

	deadLetters, err := meter.Int64Counter("erpflow.dlq.events",
		metric.WithDescription("Number of invocations dead-lettered"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		published:   published,
		handlerRuns: handlerRuns,
		handlerLat:  handlerLat,
		stepLatency: stepLatency,
		stepErrors:  stepErrors,
		retries:     retries,
		deadLetters: deadLetters,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		return NoopMetrics{}
	}
	return m
}

// RecordPublish implements MetricsRecorder.
func (m *otelMetrics) RecordPublish(ctx context.Context, name string, scheduled bool) {
	m.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", name),
		attribute.Bool("scheduled", scheduled),
	))
}

// RecordHandlerRun implements MetricsRecorder.
func (m *otelMetrics) RecordHandlerRun(ctx context.Context, name string, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("event", name),
		attribute.Bool("success", success),
	)
	m.handlerRuns.Add(ctx, 1, attrs)
	m.handlerLat.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordStep implements MetricsRecorder.
func (m *otelMetrics) RecordStep(ctx context.Context, stepID string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("step_id", stepID))
	m.stepLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		m.stepErrors.Add(ctx, 1, attrs)
	}
}

// RecordRetry implements MetricsRecorder.
func (m *otelMetrics) RecordRetry(ctx context.Context, name string) {
	m.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("event", name)))
}

// RecordDeadLetter implements MetricsRecorder.
func (m *otelMetrics) RecordDeadLetter(ctx context.Context, name string) {
	m.deadLetters.Add(ctx, 1, metric.WithAttributes(attribute.String("event", name)))
}
