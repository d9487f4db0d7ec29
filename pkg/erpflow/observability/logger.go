// Package observability provides structured logging, metrics, and tracing
// for the erpflow orchestration layer.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds event context to a logger.
// Returns a new logger with event_id, event, and attempt fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "evt-123", "invoice/generated", 1)
//	enriched.Info("handling") // includes event_id, event, attempt
func EnrichLogger(logger *slog.Logger, eventID, name string, attempt int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("event_id", eventID),
		slog.String("event", name),
		slog.Int("attempt", attempt),
	)
}

// LogPublish logs an event emission.
func LogPublish(logger *slog.Logger, eventID, name string, deliverAt time.Time) {
	if logger == nil {
		return
	}
	if deliverAt.IsZero() {
		logger.Info("event published",
			slog.String("event_id", eventID),
			slog.String("event", name),
		)
		return
	}
	logger.Info("event scheduled",
		slog.String("event_id", eventID),
		slog.String("event", name),
		slog.Time("deliver_at", deliverAt),
	)
}

// LogHandlerStart logs the start of a handler invocation.
func LogHandlerStart(logger *slog.Logger, name string) {
	if logger == nil {
		return
	}
	logger.Info("handler starting", slog.String("event", name))
}

// LogHandlerComplete logs successful handler completion.
func LogHandlerComplete(logger *slog.Logger, name string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("handler completed",
		slog.String("event", name),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogHandlerError logs handler invocation failure.
func LogHandlerError(logger *slog.Logger, name string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("handler failed",
		slog.String("event", name),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogStepStart logs step execution start.
func LogStepStart(logger *slog.Logger, stepID string) {
	if logger == nil {
		return
	}
	logger.Debug("step starting", slog.String("step_id", stepID))
}

// LogStepComplete logs successful step completion.
func LogStepComplete(logger *slog.Logger, stepID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("step completed",
		slog.String("step_id", stepID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogStepReplayed logs a step skipped because its result was memoized
// from an earlier delivery of the same invocation.
func LogStepReplayed(logger *slog.Logger, stepID string) {
	if logger == nil {
		return
	}
	logger.Debug("step replayed from checkpoint", slog.String("step_id", stepID))
}

// LogStepError logs step execution error.
func LogStepError(logger *slog.Logger, stepID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("step failed",
		slog.String("step_id", stepID),
		slog.String("error", err.Error()),
	)
}

// LogCheckpointError logs a step-result save failure (non-fatal).
func LogCheckpointError(logger *slog.Logger, stepID string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("step checkpoint failed",
		slog.String("step_id", stepID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogDeadLetter logs an invocation moved to the dead-letter queue.
func LogDeadLetter(logger *slog.Logger, eventID, name string, attempts int, err error) {
	if logger == nil {
		return
	}
	logger.Error("invocation dead-lettered",
		slog.String("event_id", eventID),
		slog.String("event", name),
		slog.Int("attempts", attempts),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in
// milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
