package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// MockIdempotencyStore implements store.IdempotencyStore for testing
type MockIdempotencyStore struct {
	FindByRequestIDFn func(ctx context.Context, requestID string) (*domain.IdempotencyRecord, error)
	CreateFn          func(ctx context.Context, record *domain.IdempotencyRecord) error
	DeleteOlderThanFn func(ctx context.Context, cutoff time.Time) (int64, error)

	mu      sync.Mutex
	records map[string]*domain.IdempotencyRecord

	FindCalls   int
	CreateCalls int
	DeleteCalls int
	LastCutoff  time.Time
}

var _ store.IdempotencyStore = (*MockIdempotencyStore)(nil)

// Record returns the stored record for requestID, or nil.
func (m *MockIdempotencyStore) Record(requestID string) *domain.IdempotencyRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[requestID]
}

// Counts returns the find, create and delete counters under the lock.
func (m *MockIdempotencyStore) Counts() (find, create, del int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FindCalls, m.CreateCalls, m.DeleteCalls
}

// FindByRequestID implements store.IdempotencyStore
func (m *MockIdempotencyStore) FindByRequestID(ctx context.Context, requestID string) (*domain.IdempotencyRecord, error) {
	m.mu.Lock()
	m.FindCalls++
	m.mu.Unlock()

	if m.FindByRequestIDFn != nil {
		return m.FindByRequestIDFn(ctx, requestID)
	}
	return m.Record(requestID), nil
}

// Create implements store.IdempotencyStore
func (m *MockIdempotencyStore) Create(ctx context.Context, record *domain.IdempotencyRecord) error {
	m.mu.Lock()
	m.CreateCalls++
	m.mu.Unlock()

	if m.CreateFn != nil {
		return m.CreateFn(ctx, record)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		m.records = map[string]*domain.IdempotencyRecord{}
	}
	if _, ok := m.records[record.RequestID]; ok {
		return fmt.Errorf("%w: request id %s", store.ErrDuplicate, record.RequestID)
	}
	copied := *record
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now().UTC()
	}
	m.records[record.RequestID] = &copied
	return nil
}

// DeleteOlderThan implements store.IdempotencyStore
func (m *MockIdempotencyStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	m.DeleteCalls++
	m.LastCutoff = cutoff
	m.mu.Unlock()

	if m.DeleteOlderThanFn != nil {
		return m.DeleteOlderThanFn(ctx, cutoff)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rec := range m.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}
