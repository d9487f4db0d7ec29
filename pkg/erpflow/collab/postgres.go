package collab

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements DataStore against the application's PostgreSQL
// database. It reads the tables the ERP's CRUD layer owns; this layer
// never writes them.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements DataStore.
var _ DataStore = (*PostgresStore)(nil)

// NewPostgresStore opens a read connection to the application database and
// configures the pool.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection (tests use sqlmock).
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ClientEmail implements DataStore.
func (s *PostgresStore) ClientEmail(ctx context.Context, clientID string) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx, `
		SELECT email FROM clients WHERE id = $1
	`, clientID).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("client %s: %w", clientID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query client email: %w", err)
	}
	return email, nil
}

// EmployeeEmail implements DataStore.
func (s *PostgresStore) EmployeeEmail(ctx context.Context, employeeID string) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx, `
		SELECT email FROM employees WHERE id = $1
	`, employeeID).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("employee %s: %w", employeeID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query employee email: %w", err)
	}
	return email, nil
}

// InvoiceStatus implements DataStore.
func (s *PostgresStore) InvoiceStatus(ctx context.Context, invoiceID string) (string, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT status FROM invoices WHERE id = $1
	`, invoiceID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query invoice status: %w", err)
	}
	return status, nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
