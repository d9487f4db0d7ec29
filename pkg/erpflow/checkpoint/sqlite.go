package checkpoint

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists step results to SQLite so redelivered invocations
// skip completed steps even across process restarts. Suitable for
// single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (creating if needed) a step-result database.
// The path should be a file path (e.g. "./steps.db") or ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode: handler workers read concurrently while one writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS step_results (
			invocation_id TEXT NOT NULL,
			step_id TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			completed_at TEXT NOT NULL,
			result BLOB NOT NULL,
			PRIMARY KEY (invocation_id, step_id)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_step_results_invocation
		ON step_results(invocation_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(invocationID, stepID string, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO step_results (invocation_id, step_id, sequence, completed_at, result)
		VALUES (
			?, ?,
			COALESCE((SELECT MAX(sequence) FROM step_results WHERE invocation_id = ?), 0) + 1,
			?, ?
		)
		ON CONFLICT(invocation_id, step_id) DO UPDATE SET
			completed_at = excluded.completed_at,
			result = excluded.result
	`, invocationID, stepID, invocationID, time.Now().UTC().Format(time.RFC3339Nano), result)
	if err != nil {
		return fmt.Errorf("save step result: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(invocationID, stepID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var result []byte
	err := s.db.QueryRow(`
		SELECT result FROM step_results
		WHERE invocation_id = ? AND step_id = ?
	`, invocationID, stepID).Scan(&result)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load step result: %w", err)
	}
	return result, nil
}

// List implements Store.
func (s *SQLiteStore) List(invocationID string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT step_id, sequence, completed_at, LENGTH(result)
		FROM step_results
		WHERE invocation_id = ?
		ORDER BY sequence
	`, invocationID)
	if err != nil {
		return nil, fmt.Errorf("list step results: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var completedAt string
		if err := rows.Scan(&info.StepID, &info.Sequence, &completedAt, &info.Size); err != nil {
			return nil, fmt.Errorf("scan step info: %w", err)
		}
		info.InvocationID = invocationID
		info.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedAt)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step results: %w", err)
	}
	return infos, nil
}

// DeleteRun implements Store.
func (s *SQLiteStore) DeleteRun(invocationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		DELETE FROM step_results WHERE invocation_id = ?
	`, invocationID)
	if err != nil {
		return fmt.Errorf("delete invocation steps: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
