package checkpoint

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory step-result store. Results are lost when the
// process exits, so a crashed invocation re-runs from its first step; use
// SQLiteStore where redelivery must survive restarts.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string]map[string]stepRecord // invocationID -> stepID -> record
	closed bool
}

type stepRecord struct {
	result      []byte
	sequence    int
	completedAt time.Time
}

// NewMemoryStore creates a new in-memory step-result store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]map[string]stepRecord),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(invocationID, stepID string, result []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	run := m.runs[invocationID]
	if run == nil {
		run = make(map[string]stepRecord)
		m.runs[invocationID] = run
	}

	seq := 1
	for _, rec := range run {
		if rec.sequence >= seq {
			seq = rec.sequence + 1
		}
	}

	stored := make([]byte, len(result))
	copy(stored, result)

	run[stepID] = stepRecord{
		result:      stored,
		sequence:    seq,
		completedAt: time.Now().UTC(),
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(invocationID, stepID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	run, ok := m.runs[invocationID]
	if !ok {
		return nil, ErrNotFound
	}
	rec, ok := run[stepID]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(rec.result))
	copy(out, rec.result)
	return out, nil
}

// List implements Store.
func (m *MemoryStore) List(invocationID string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	run, ok := m.runs[invocationID]
	if !ok {
		return nil, nil
	}

	infos := make([]Info, 0, len(run))
	for stepID, rec := range run {
		infos = append(infos, Info{
			InvocationID: invocationID,
			StepID:       stepID,
			Sequence:     rec.sequence,
			CompletedAt:  rec.completedAt,
			Size:         int64(len(rec.result)),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Sequence < infos[j].Sequence
	})
	return infos, nil
}

// DeleteRun implements Store.
func (m *MemoryStore) DeleteRun(invocationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.runs, invocationID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.runs = nil
	return nil
}

// Len returns the total number of recorded steps across all invocations.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, run := range m.runs {
		count += len(run)
	}
	return count
}
