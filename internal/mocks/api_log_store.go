package mocks

import (
	"context"
	"sync"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// MockAPILogStore implements store.APILogStore for testing
type MockAPILogStore struct {
	Err error

	mu      sync.Mutex
	entries []domain.APILog
}

var _ store.APILogStore = (*MockAPILogStore)(nil)

// Log implements store.APILogStore
func (m *MockAPILogStore) Log(_ context.Context, entry *domain.APILog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return m.Err
}

// Entries returns a snapshot of logged entries.
func (m *MockAPILogStore) Entries() []domain.APILog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.APILog(nil), m.entries...)
}
