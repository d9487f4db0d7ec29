package erpflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finchline/erpflow/pkg/erpflow/checkpoint"
	"github.com/finchline/erpflow/pkg/erpflow/event"
	"github.com/finchline/erpflow/pkg/erpflow/observability"
)

// Status classifies how a step finished.
type Status string

// Step status values.
const (
	// StatusDone means the step performed real work.
	StatusDone Status = "done"

	// StatusStubbed means the step is a placeholder pending a real
	// implementation. Stubs are explicit so tests can tell a stub from
	// a working step instead of both silently "succeeding".
	StatusStubbed Status = "stubbed"

	// StatusSkipped means the step decided its work was not needed
	// (condition not met, guard tripped).
	StatusSkipped Status = "skipped"
)

// StubResult is the recorded outcome of a stub or skipped step.
type StubResult struct {
	Status Status `json:"status"`
	Note   string `json:"note,omitempty"`
}

// Run is one handler invocation for one delivered event.
//
// It carries the envelope, the step-result store keyed by the event id,
// and the invocation-scoped logger. Runs are not safe for concurrent step
// execution: steps run strictly in declared order.
type Run struct {
	env     *event.Envelope
	steps   checkpoint.Store
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	seen    map[string]struct{}
}

// Event returns the delivered envelope.
func (r *Run) Event() *event.Envelope {
	return r.env
}

// Logger returns the invocation-scoped logger (may be nil when logging
// is disabled; the observability helpers tolerate nil).
func (r *Run) Logger() *slog.Logger {
	return r.logger
}

// Step executes a named step, memoizing its JSON-encoded result.
//
// If a result for (invocation id, step id) is already recorded — because
// the platform redelivered the event after a later step failed — the step
// body is not re-run; the recorded result is returned. This is what makes
// single-effect steps safe to retry: a redelivery never repeats a sibling
// step's side effect.
//
// Step ids must be unique within an invocation; a reused id returns
// ErrDuplicateStep. Results must round-trip through encoding/json.
func Step[T any](ctx context.Context, r *Run, id string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if _, dup := r.seen[id]; dup {
		return zero, &StepError{Step: id, Err: ErrDuplicateStep}
	}
	r.seen[id] = struct{}{}

	// Replay path: step already completed in an earlier delivery.
	if recorded, err := r.steps.Load(r.env.ID, id); err == nil {
		var result T
		if err := json.Unmarshal(recorded, &result); err != nil {
			return zero, &StepError{Step: id, Err: fmt.Errorf("decode recorded result: %w", err)}
		}
		observability.LogStepReplayed(r.logger, id)
		return result, nil
	} else if !errors.Is(err, checkpoint.ErrNotFound) {
		return zero, &StepError{Step: id, Err: fmt.Errorf("load recorded result: %w", err)}
	}

	stepCtx, span := r.spans.StartStepSpan(ctx, id)
	observability.LogStepStart(r.logger, id)
	done := observability.TimedOperation()

	result, err := fn(stepCtx)
	durationMs := done()
	r.metrics.RecordStep(ctx, id, time.Duration(durationMs)*time.Millisecond, err)

	if err != nil {
		observability.LogStepError(r.logger, id, err)
		r.spans.EndSpanWithError(span, err)
		return zero, &StepError{Step: id, Err: err}
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		r.spans.EndSpanWithError(span, err)
		return zero, &StepError{Step: id, Err: fmt.Errorf("encode result: %w", err)}
	}

	// Memoization is best-effort: a failed save means the step may re-run
	// on redelivery, which single-effect steps must tolerate anyway.
	if err := r.steps.Save(r.env.ID, id, encoded); err != nil {
		observability.LogCheckpointError(r.logger, id, "save", err)
	}

	observability.LogStepComplete(r.logger, id, durationMs)
	r.spans.EndSpanWithError(span, nil)
	return result, nil
}

// Stub records a placeholder step. The body does nothing beyond logging;
// the StubResult marks it as not yet implemented.
func (r *Run) Stub(ctx context.Context, id, note string) (StubResult, error) {
	return Step(ctx, r, id, func(context.Context) (StubResult, error) {
		if r.logger != nil {
			r.logger.Info("stub step",
				slog.String("step_id", id),
				slog.String("note", note),
			)
		}
		return StubResult{Status: StatusStubbed, Note: note}, nil
	})
}

// Skip records a step that decided its work was not needed.
func (r *Run) Skip(ctx context.Context, id, reason string) (StubResult, error) {
	return Step(ctx, r, id, func(context.Context) (StubResult, error) {
		if r.logger != nil {
			r.logger.Info("step skipped",
				slog.String("step_id", id),
				slog.String("reason", reason),
			)
		}
		return StubResult{Status: StatusSkipped, Note: reason}, nil
	})
}
