// Package settings defines the configuration lookup/watch contract the
// panel host consumes. Storage and retrieval live outside this module; the
// in-memory implementation exists for tests and the demo host.
package settings

import "sync"

// KeyConfirmBeforeClose controls whether the panel content asks for
// confirmation before its window closes. Mirrored into panels on change.
const KeyConfirmBeforeClose = "window.confirmBeforeClose"

// Service is a narrow view of the host's configuration system: lookup by
// key plus change notification scoped to a single key. Purely event-driven;
// no polling.
type Service interface {
	Get(key string) string
	// Watch invokes fn with the new value whenever key changes. The
	// returned cancel releases the listener; forgetting it leaks.
	Watch(key string, fn func(value string)) (cancel func())
}

// Memory is an in-memory Service for tests and the demo host.
type Memory struct {
	mu       sync.Mutex
	values   map[string]string
	watchers map[string]map[int]func(string)
	nextID   int
}

// NewMemory creates an empty in-memory settings service.
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string]string),
		watchers: make(map[string]map[int]func(string)),
	}
}

// Get returns the current value for key, or "" when unset.
func (m *Memory) Get(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

// Set stores a value and notifies watchers of that key only.
func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	m.values[key] = value
	fns := make([]func(string), 0, len(m.watchers[key]))
	for _, fn := range m.watchers[key] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// Watch registers a change listener scoped to key.
func (m *Memory) Watch(key string, fn func(value string)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	if m.watchers[key] == nil {
		m.watchers[key] = make(map[int]func(string))
	}
	m.watchers[key][id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.watchers[key], id)
		m.mu.Unlock()
	}
}
