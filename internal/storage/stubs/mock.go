package stubs

import (
	"context"
	"sort"
	"sync"
)

// MockDB is an in-memory implementation of the Storage interface for testing
// and for running without a database file
type MockDB struct {
	mu       sync.RWMutex
	values   map[string]string
	writeErr error
	writes   int
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		values: make(map[string]string),
	}
}

// Initialize does nothing for mock DB
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// Get returns the value stored under key
func (m *MockDB) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	return value, ok, nil
}

// Set stores value under key, or fails with the injected write error
func (m *MockDB) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}
	m.values[key] = value
	m.writes++
	return nil
}

// Remove deletes key, or fails with the injected write error
func (m *MockDB) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}
	delete(m.values, key)
	m.writes++
	return nil
}

// FailWrites makes every following Set and Remove return err.
// Passing nil restores normal behaviour.
func (m *MockDB) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writeErr = err
}

// Writes returns the number of successful writes so far
func (m *MockDB) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.writes
}

// Keys returns the stored keys sorted by name
func (m *MockDB) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}
