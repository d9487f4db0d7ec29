package platform

import (
	"context"

	"github.com/finchline/erpflow/pkg/erpflow"
	"github.com/finchline/erpflow/pkg/erpflow/event"
)

// Noop is a Platform that discards every event. Used when event delivery
// is not configured, so emitters keep working without a broker.
type Noop struct{}

// Compile-time interface check.
var _ erpflow.Platform = Noop{}

// Enqueue discards the envelope.
func (Noop) Enqueue(_ context.Context, _ *event.Envelope) error {
	return nil
}

// Close does nothing.
func (Noop) Close() error {
	return nil
}
