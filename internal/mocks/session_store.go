package mocks

import (
	"context"
	"sync"

	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// MockSessionStore implements store.SessionStore for testing. Without Fn
// overrides it behaves as an in-memory set of live sessions.
type MockSessionStore struct {
	StoreFn   func(ctx context.Context, subjectID, token string) error
	IsValidFn func(ctx context.Context, subjectID, token string) (bool, error)
	RenewFn   func(ctx context.Context, subjectID, token string) error
	DestroyFn func(ctx context.Context, subjectID, token string) error

	mu       sync.Mutex
	sessions map[string]bool

	StoreCalls   int
	IsValidCalls int
	RenewCalls   int
	DestroyCalls int
}

var _ store.SessionStore = (*MockSessionStore)(nil)

func sessionKey(subjectID, token string) string { return subjectID + ":" + token }

// Put seeds a live session.
func (m *MockSessionStore) Put(subjectID, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = map[string]bool{}
	}
	m.sessions[sessionKey(subjectID, token)] = true
}

// Has reports whether a session is live.
func (m *MockSessionStore) Has(subjectID, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionKey(subjectID, token)]
}

// Store implements store.SessionStore
func (m *MockSessionStore) Store(ctx context.Context, subjectID, token string) error {
	m.mu.Lock()
	m.StoreCalls++
	m.mu.Unlock()
	if m.StoreFn != nil {
		return m.StoreFn(ctx, subjectID, token)
	}
	m.Put(subjectID, token)
	return nil
}

// IsValid implements store.SessionStore
func (m *MockSessionStore) IsValid(ctx context.Context, subjectID, token string) (bool, error) {
	m.mu.Lock()
	m.IsValidCalls++
	m.mu.Unlock()
	if m.IsValidFn != nil {
		return m.IsValidFn(ctx, subjectID, token)
	}
	return m.Has(subjectID, token), nil
}

// Renew implements store.SessionStore
func (m *MockSessionStore) Renew(ctx context.Context, subjectID, token string) error {
	m.mu.Lock()
	m.RenewCalls++
	m.mu.Unlock()
	if m.RenewFn != nil {
		return m.RenewFn(ctx, subjectID, token)
	}
	if !m.Has(subjectID, token) {
		return store.ErrSessionNotFound
	}
	return nil
}

// Destroy implements store.SessionStore
func (m *MockSessionStore) Destroy(ctx context.Context, subjectID, token string) error {
	m.mu.Lock()
	m.DestroyCalls++
	m.mu.Unlock()
	if m.DestroyFn != nil {
		return m.DestroyFn(ctx, subjectID, token)
	}
	m.mu.Lock()
	delete(m.sessions, sessionKey(subjectID, token))
	m.mu.Unlock()
	return nil
}
