package platform

import (
	"errors"
	"fmt"
)

// Sentinel errors for delivery platforms.
var (
	// ErrPlatformClosed indicates the platform no longer accepts events.
	ErrPlatformClosed = errors.New("platform closed")

	// ErrNotBound indicates no dispatcher was bound before delivery.
	ErrNotBound = errors.New("no dispatcher bound")
)

// PlatformError wraps a platform failure with its operation and event name.
type PlatformError struct {
	Op   string
	Name string
	Err  error
}

// Error implements the error interface.
func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform %s %s: %s", e.Op, e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *PlatformError) Unwrap() error {
	return e.Err
}
