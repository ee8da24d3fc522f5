package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// MockUserStore implements store.UserStore for testing
type MockUserStore struct {
	CreateFn          func(ctx context.Context, user *domain.User) error
	GetByUsernameFn   func(ctx context.Context, username string) (*domain.User, error)
	UpdateLastLoginFn func(ctx context.Context, ssuuid string, at time.Time, ip string) error

	// Default values
	User           *domain.User
	Err            error
	UpdateLoginErr error

	mu                   sync.Mutex
	Created              []*domain.User
	UpdateLastLoginCalls int
	LastLoginIP          string
}

var _ store.UserStore = (*MockUserStore)(nil)

// Create implements store.UserStore
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	m.Created = append(m.Created, user)
	m.mu.Unlock()

	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	return m.Err
}

// GetByUsername implements store.UserStore
func (m *MockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.GetByUsernameFn != nil {
		return m.GetByUsernameFn(ctx, username)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.User == nil || m.User.Username != username {
		return nil, store.ErrUserNotFound
	}
	return m.User, nil
}

// UpdateLastLogin implements store.UserStore
func (m *MockUserStore) UpdateLastLogin(ctx context.Context, ssuuid string, at time.Time, ip string) error {
	m.mu.Lock()
	m.UpdateLastLoginCalls++
	m.LastLoginIP = ip
	m.mu.Unlock()

	if m.UpdateLastLoginFn != nil {
		return m.UpdateLastLoginFn(ctx, ssuuid, at, ip)
	}
	return m.UpdateLoginErr
}
