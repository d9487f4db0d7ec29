package erpflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for the orchestration core.
var (
	// ErrNoHandler indicates an event was delivered for a name with no
	// registered handler.
	ErrNoHandler = errors.New("no handler registered")

	// ErrAlreadyRegistered indicates a second handler was registered for
	// an event name. At most one handler is bound per event type.
	ErrAlreadyRegistered = errors.New("handler already registered")

	// ErrDuplicateStep indicates a step id was used twice within one
	// handler invocation. Step ids must be unique per invocation because
	// they key the memoized results.
	ErrDuplicateStep = errors.New("duplicate step id")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("client closed")
)

// StepError wraps a failure inside a named step so the platform and the
// dead-letter queue can report which step broke the invocation.
type StepError struct {
	// Step is the failing step's id.
	Step string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %s", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// DispatchError wraps a handler invocation failure with its event context.
type DispatchError struct {
	EventID string
	Name    string
	Attempt int
	Err     error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s (event %s, attempt %d): %s",
		e.Name, e.EventID, e.Attempt, e.Err)
}

// Unwrap returns the underlying error.
func (e *DispatchError) Unwrap() error {
	return e.Err
}
