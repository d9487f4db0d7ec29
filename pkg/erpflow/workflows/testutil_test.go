package workflows

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finchline/erpflow/pkg/erpflow"
	"github.com/finchline/erpflow/pkg/erpflow/collab"
	"github.com/finchline/erpflow/pkg/erpflow/config"
	"github.com/finchline/erpflow/pkg/erpflow/event"
)

// capturePlatform records enqueued envelopes without delivering them, so
// tests can assert what a handler emitted or scheduled.
type capturePlatform struct {
	mu   sync.Mutex
	envs []*event.Envelope
}

func (p *capturePlatform) Enqueue(_ context.Context, env *event.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envs = append(p.envs, env)
	return nil
}

func (p *capturePlatform) Close() error { return nil }

func (p *capturePlatform) recorded() []*event.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*event.Envelope, len(p.envs))
	copy(out, p.envs)
	return out
}

// fakeEmail records sends and can fail selected addressees.
type fakeEmail struct {
	mu   sync.Mutex
	sent []collab.Email
	fail map[string]error
}

func (f *fakeEmail) Send(_ context.Context, email collab.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[email.To]; err != nil {
		return err
	}
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeEmail) setFail(to string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail == nil {
		f.fail = make(map[string]error)
	}
	if err == nil {
		delete(f.fail, to)
		return
	}
	f.fail[to] = err
}

func (f *fakeEmail) emails() []collab.Email {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]collab.Email, len(f.sent))
	copy(out, f.sent)
	return out
}

// fakeNotifier records notifications.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []collab.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n collab.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) notifications() []collab.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]collab.Notification, len(f.sent))
	copy(out, f.sent)
	return out
}

// testEnv wires a full handler environment over recording fakes.
type testEnv struct {
	deps     Deps
	email    *fakeEmail
	notifier *fakeNotifier
	store    *collab.MemoryStore
	platform *capturePlatform

	pauseMu sync.Mutex
	pauses  []time.Duration
}

func (e *testEnv) pausesTaken() []time.Duration {
	e.pauseMu.Lock()
	defer e.pauseMu.Unlock()
	out := make([]time.Duration, len(e.pauses))
	copy(out, e.pauses)
	return out
}

// newTestEnv builds deps with every workflow handler registered. The
// inter-batch pause is recorded instead of slept.
func newTestEnv(t *testing.T, mutate func(*config.Settings)) *testEnv {
	t.Helper()

	env := &testEnv{
		email:    &fakeEmail{},
		notifier: &fakeNotifier{},
		store:    collab.NewMemoryStore(),
		platform: &capturePlatform{},
	}

	settings := config.Default()
	if mutate != nil {
		mutate(&settings)
	}

	client := erpflow.NewClient(env.platform)
	t.Cleanup(func() { _ = client.Close() })

	env.deps = Deps{
		Client:   client,
		Email:    env.email,
		Notifier: env.notifier,
		Store:    env.store,
		Settings: settings,
		Pause: func(_ context.Context, d time.Duration) error {
			env.pauseMu.Lock()
			env.pauses = append(env.pauses, d)
			env.pauseMu.Unlock()
			return nil
		},
	}
	require.NoError(t, RegisterAll(env.deps))
	return env
}

// dispatch delivers one event with a fixed id to its registered handler.
func (e *testEnv) dispatch(t *testing.T, id, name string, payload any) error {
	t.Helper()
	env, err := event.New(name, payload, event.WithID(id))
	require.NoError(t, err)
	return e.deps.Client.Dispatch(context.Background(), env)
}
