// Package checkpoint persists per-step results so a retried handler
// invocation skips steps that already succeeded instead of re-running
// their side effects.
package checkpoint

import (
	"errors"
	"time"
)

// Store records step results keyed by (invocation id, step id).
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a step result for an invocation.
	// Overwrites if a result for (invocationID, stepID) already exists.
	Save(invocationID, stepID string, result []byte) error

	// Load retrieves a recorded step result.
	// Returns ErrNotFound if the step has not completed.
	Load(invocationID, stepID string) ([]byte, error)

	// List returns all recorded steps for an invocation in completion order.
	// Returns an empty slice (not an error) for unknown invocations.
	List(invocationID string) ([]Info, error)

	// DeleteRun removes all recorded steps for an invocation. Called after
	// a handler invocation completes so the store does not grow unbounded.
	DeleteRun(invocationID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info describes one recorded step without loading its result.
type Info struct {
	InvocationID string
	StepID       string
	Sequence     int
	CompletedAt  time.Time
	Size         int64
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates no result is recorded for the step.
	ErrNotFound = errors.New("checkpoint: step result not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint: store closed")
)
