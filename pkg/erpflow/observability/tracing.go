package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the erpflow tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("erpflow")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartHandlerSpan starts a span for a handler invocation.
	StartHandlerSpan(ctx context.Context, name, eventID string) (context.Context, trace.Span)

	// StartStepSpan starts a span for a step execution.
	// The step span should be a child of the handler span.
	StartStepSpan(ctx context.Context, stepID string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartHandlerSpan starts a span for a handler invocation.
func (m *otelSpanManager) StartHandlerSpan(ctx context.Context, name, eventID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "erpflow.handler",
		trace.WithAttributes(
			attribute.String("event.name", name),
			attribute.String("event.id", eventID),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
}

// StartStepSpan starts a span for a step execution.
func (m *otelSpanManager) StartStepSpan(ctx context.Context, stepID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "erpflow.step",
		trace.WithAttributes(
			attribute.String("step.id", stepID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, recording the error if present.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
