package erpflow

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps event names to their handlers. Registrations happen at
// process start and are fixed afterwards; the registry still locks so a
// misbehaving late registration fails loudly instead of racing.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to an event name. Registering a second handler
// for the same name returns ErrAlreadyRegistered: this codebase binds at
// most one handler per event type.
func (r *Registry) Register(name string, h Handler) error {
	if name == "" {
		return fmt.Errorf("register handler: event name is required")
	}
	if h == nil {
		return fmt.Errorf("register handler for %s: handler is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("register handler for %s: %w", name, ErrAlreadyRegistered)
	}
	r.handlers[name] = h
	return nil
}

// Lookup returns the handler bound to an event name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Has returns true if a handler is bound to the event name.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns all registered event names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
