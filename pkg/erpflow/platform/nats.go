package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/finchline/erpflow/pkg/erpflow"
	"github.com/finchline/erpflow/pkg/erpflow/event"
)

// DefaultSubjectPrefix namespaces erpflow subjects on a shared NATS server.
const DefaultSubjectPrefix = "erp"

// Subject maps an event name to a NATS subject. Event names keep their
// stable "a/b.c" form on the envelope; only the subject syntax swaps the
// slash for a dot, so the wire key stays recoverable.
func Subject(prefix, name string) string {
	return prefix + "." + strings.ReplaceAll(name, "/", ".")
}

// NATS publishes envelopes to NATS subjects, one subject per event name.
// It is emit-only: delivery, retry, and ack policy on the consuming side
// belong to the broker configuration and the NATSSubscriber.
type NATS struct {
	conn   *nats.Conn
	prefix string
}

// Compile-time interface check.
var _ erpflow.Platform = (*NATS)(nil)

// NewNATS connects to NATS for publishing. Extra nats.Option values can
// be appended (credentials, TLS).
func NewNATS(url, prefix string, opts ...nats.Option) (*NATS, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATS{conn: nc, prefix: prefix}, nil
}

// Enqueue implements erpflow.Platform: JSON-encode the envelope and
// publish it to the event's subject. A scheduled envelope is published
// immediately with its ts field set; the subscriber holds it until due.
func (p *NATS) Enqueue(ctx context.Context, env *event.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}
	if err := p.conn.Publish(Subject(p.prefix, env.Name), data); err != nil {
		return &PlatformError{Op: "publish", Name: env.Name, Err: err}
	}
	return nil
}

// Close implements erpflow.Platform.
func (p *NATS) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber receives envelopes from NATS subjects and feeds them to a
// dispatcher, holding scheduled envelopes on a local timer until due.
type NATSSubscriber struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSSubscriber connects to NATS with automatic reconnection support.
// Extra nats.Option values (e.g. disconnect/reconnect handlers) can be
// appended.
func NewNATSSubscriber(url, prefix string, logger *slog.Logger, opts ...nats.Option) (*NATSSubscriber, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	defaults := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSSubscriber{conn: nc, prefix: prefix, logger: logger}, nil
}

// Consume subscribes to every erpflow subject under the prefix and
// dispatches each received envelope. Call the returned cancel function to
// unsubscribe. Dispatch errors are logged; redelivery policy lives in the
// broker (use JetStream consumers where redelivery is required).
func (s *NATSSubscriber) Consume(dispatch erpflow.Dispatcher) (func(), error) {
	var (
		mu     sync.Mutex
		closed bool
		once   sync.Once
	)

	handle := func(env *event.Envelope) {
		if err := dispatch(context.Background(), env); err != nil && s.logger != nil {
			s.logger.Error("dispatch failed",
				slog.String("event_id", env.ID),
				slog.String("event", env.Name),
				slog.String("error", err.Error()),
			)
		}
	}

	sub, err := s.conn.Subscribe(s.prefix+".>", func(msg *nats.Msg) {
		mu.Lock()
		if closed {
			mu.Unlock()
			return
		}
		mu.Unlock()

		var env event.Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			if s.logger != nil {
				s.logger.Error("malformed envelope",
					slog.String("subject", msg.Subject),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		if delay := time.Until(env.DeliverAtTime()); env.Scheduled() && delay > 0 {
			time.AfterFunc(delay, func() {
				mu.Lock()
				stop := closed
				mu.Unlock()
				if !stop {
					handle(&env)
				}
			})
			return
		}
		go handle(&env)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s.>: %w", s.prefix, err)
	}

	// Flush ensures the subscription is registered on the server before
	// returning, so events published on other connections are routed.
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flushing subscription: %w", err)
	}

	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			mu.Lock()
			closed = true
			mu.Unlock()
		})
	}
	return cancel, nil
}

// Close releases the subscriber connection.
func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
