package erpflow_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finchline/erpflow/pkg/erpflow"
	"github.com/finchline/erpflow/pkg/erpflow/event"
)

// recordingPlatform captures enqueued envelopes without delivering them.
type recordingPlatform struct {
	mu   sync.Mutex
	envs []*event.Envelope
}

func (p *recordingPlatform) Enqueue(_ context.Context, env *event.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envs = append(p.envs, env)
	return nil
}

func (p *recordingPlatform) Close() error { return nil }

func (p *recordingPlatform) recorded() []*event.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*event.Envelope, len(p.envs))
	copy(out, p.envs)
	return out
}

// mustEnvelope builds a deliverable envelope with a fixed id.
func mustEnvelope(t *testing.T, id, name string, payload any) *event.Envelope {
	t.Helper()
	env, err := event.New(name, payload, event.WithID(id))
	require.NoError(t, err)
	return env
}

// newTestClient builds a client over a recording platform.
func newTestClient(t *testing.T, opts ...erpflow.ClientOption) (*erpflow.Client, *recordingPlatform) {
	t.Helper()
	p := &recordingPlatform{}
	c := erpflow.NewClient(p, opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c, p
}
