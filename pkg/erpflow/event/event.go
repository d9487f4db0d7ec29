// Package event defines the event catalog and wire envelope for the
// erpflow orchestration layer.
//
// An event is an immutable, named fact with a typed payload. Event names are
// wire-level routing keys and must never be renamed while events of that type
// may still be in flight or scheduled. Adding a workflow means adding exactly
// one name constant and one payload type; nothing else in the catalog changes.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope is the transport form of an event. It is immutable once sent;
// any modification creates a new envelope.
type Envelope struct {
	// ID uniquely identifies this event. Redeliveries of the same event
	// carry the same ID, which is what step memoization keys on.
	ID string `json:"id"`

	// Name is the routing key selecting the payload schema and handler.
	Name string `json:"name"`

	// OccurredAt is when the event was created.
	OccurredAt time.Time `json:"occurred_at"`

	// DeliverAt defers delivery to an absolute instant, expressed as epoch
	// milliseconds. Zero means deliver now.
	DeliverAt int64 `json:"ts,omitempty"`

	// Attempt is the delivery attempt counter, maintained by the platform.
	// The first delivery is attempt 1.
	Attempt int `json:"attempt,omitempty"`

	// Data is the JSON-encoded payload.
	Data json.RawMessage `json:"data"`
}

// Scheduled reports whether the envelope requests deferred delivery.
func (e *Envelope) Scheduled() bool {
	return e.DeliverAt > 0
}

// DeliverAtTime returns the requested delivery instant, or the zero time
// if the envelope is not scheduled.
func (e *Envelope) DeliverAtTime() time.Time {
	if e.DeliverAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.DeliverAt).UTC()
}

// Option configures envelope creation.
type Option func(*envelopeConfig)

type envelopeConfig struct {
	id         string
	occurredAt time.Time
	deliverAt  int64
}

// WithID sets a specific event ID (default: auto-generated UUID).
// Emitters that want redelivery-safe side effects should derive the ID
// from the triggering fact so retried emissions reuse it.
func WithID(id string) Option {
	return func(cfg *envelopeConfig) {
		cfg.id = id
	}
}

// WithOccurredAt sets a specific creation timestamp (default: time.Now).
func WithOccurredAt(t time.Time) Option {
	return func(cfg *envelopeConfig) {
		cfg.occurredAt = t
	}
}

// WithDeliverAt requests deferred delivery at an absolute instant.
func WithDeliverAt(t time.Time) Option {
	return func(cfg *envelopeConfig) {
		cfg.deliverAt = t.UnixMilli()
	}
}

// New builds an envelope for the given event name, JSON-encoding the payload.
func New(name string, payload any, opts ...Option) (*Envelope, error) {
	cfg := &envelopeConfig{
		id:         uuid.New().String(),
		occurredAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", name, err)
	}

	return &Envelope{
		ID:         cfg.id,
		Name:       name,
		OccurredAt: cfg.occurredAt,
		DeliverAt:  cfg.deliverAt,
		Data:       data,
	}, nil
}

// Decode unmarshals the envelope payload into T. Unknown fields are
// tolerated; missing fields surface later when the handler dereferences
// them, matching the catalog's "payloads are not re-validated" contract.
func Decode[T any](e *Envelope) (T, error) {
	var payload T
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", e.Name, err)
	}
	return payload, nil
}
