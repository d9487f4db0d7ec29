package collab

import (
	"context"
	"errors"
	"sync"
)

// Invoice payment states as stored by the application's data layer.
const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("collab: record not found")

// DataStore reads current record state from the application's relational
// data. Handlers use it instead of trusting payload snapshots wherever the
// current state matters — most importantly the overdue guard, which must
// not send a notice for an invoice paid after the event was scheduled.
type DataStore interface {
	// ClientEmail returns the client's current email address.
	ClientEmail(ctx context.Context, clientID string) (string, error)

	// EmployeeEmail returns the employee's current email address.
	EmployeeEmail(ctx context.Context, employeeID string) (string, error)

	// InvoiceStatus returns the invoice's current payment status.
	InvoiceStatus(ctx context.Context, invoiceID string) (string, error)
}

// MemoryStore is an in-memory DataStore for tests.
type MemoryStore struct {
	mu        sync.RWMutex
	clients   map[string]string
	employees map[string]string
	invoices  map[string]string
}

// NewMemoryStore creates an empty in-memory data store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:   make(map[string]string),
		employees: make(map[string]string),
		invoices:  make(map[string]string),
	}
}

// SetClientEmail records a client's email.
func (m *MemoryStore) SetClientEmail(clientID, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[clientID] = email
}

// SetEmployeeEmail records an employee's email.
func (m *MemoryStore) SetEmployeeEmail(employeeID, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[employeeID] = email
}

// SetInvoiceStatus records an invoice's payment status.
func (m *MemoryStore) SetInvoiceStatus(invoiceID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[invoiceID] = status
}

// ClientEmail implements DataStore.
func (m *MemoryStore) ClientEmail(_ context.Context, clientID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email, ok := m.clients[clientID]
	if !ok {
		return "", ErrNotFound
	}
	return email, nil
}

// EmployeeEmail implements DataStore.
func (m *MemoryStore) EmployeeEmail(_ context.Context, employeeID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email, ok := m.employees[employeeID]
	if !ok {
		return "", ErrNotFound
	}
	return email, nil
}

// InvoiceStatus implements DataStore.
func (m *MemoryStore) InvoiceStatus(_ context.Context, invoiceID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.invoices[invoiceID]
	if !ok {
		return "", ErrNotFound
	}
	return status, nil
}
