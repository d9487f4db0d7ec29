package erpflow

import (
	"context"

	"github.com/finchline/erpflow/pkg/erpflow/event"
)

// Handler executes the step sequence for one event type.
//
// A handler receives the Run for the current invocation and runs its steps
// in declared order via Step. A returned error fails the whole invocation;
// the delivery platform retries it, and already-completed steps replay from
// their memoized results instead of re-running.
type Handler interface {
	Handle(ctx context.Context, run *Run) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, run *Run) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, run *Run) error {
	return f(ctx, run)
}

// HandlerFor wraps a function handling a specific payload type. The
// envelope payload is decoded before the first step runs; a malformed
// payload fails the invocation (payloads are not re-validated beyond
// JSON decoding — every field the handler dereferences must be present).
func HandlerFor[T any](fn func(ctx context.Context, run *Run, payload T) error) Handler {
	return HandlerFunc(func(ctx context.Context, run *Run) error {
		payload, err := event.Decode[T](run.Event())
		if err != nil {
			return err
		}
		return fn(ctx, run, payload)
	})
}
