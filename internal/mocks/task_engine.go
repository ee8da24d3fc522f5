package mocks

import (
	"context"
	"sync"
)

// MockTaskEngine implements service.TaskEngine for testing. By default
// Ping succeeds with "pong", RegisterTask returns TaskID and DeleteTask
// returns Deleted.
type MockTaskEngine struct {
	PingFn         func(ctx context.Context) (string, error)
	RegisterTaskFn func(ctx context.Context, ownerID, message string, key *string) (string, error)
	DeleteTaskFn   func(ctx context.Context, taskID string) (bool, error)

	PingErr     error
	TaskID      string
	RegisterErr error
	Deleted     bool
	DeleteErr   error

	mu                sync.Mutex
	PingCalls         int
	RegisterCalls     int
	DeleteCalls       int
	RegisteredKeys    []*string
	RegisteredOwners  []string
	DeletedTaskIDs    []string
	RegisterCtxAlive  []bool
}

// Ping implements service.TaskEngine
func (m *MockTaskEngine) Ping(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.PingCalls++
	m.mu.Unlock()

	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	if m.PingErr != nil {
		return "", m.PingErr
	}
	return "pong", nil
}

// RegisterTask implements service.TaskEngine
func (m *MockTaskEngine) RegisterTask(ctx context.Context, ownerID, message string, key *string) (string, error) {
	m.mu.Lock()
	m.RegisterCalls++
	m.RegisteredKeys = append(m.RegisteredKeys, key)
	m.RegisteredOwners = append(m.RegisteredOwners, ownerID)
	m.RegisterCtxAlive = append(m.RegisterCtxAlive, ctx.Err() == nil)
	m.mu.Unlock()

	if m.RegisterTaskFn != nil {
		return m.RegisterTaskFn(ctx, ownerID, message, key)
	}
	return m.TaskID, m.RegisterErr
}

// DeleteTask implements service.TaskEngine
func (m *MockTaskEngine) DeleteTask(ctx context.Context, taskID string) (bool, error) {
	m.mu.Lock()
	m.DeleteCalls++
	m.DeletedTaskIDs = append(m.DeletedTaskIDs, taskID)
	m.mu.Unlock()

	if m.DeleteTaskFn != nil {
		return m.DeleteTaskFn(ctx, taskID)
	}
	return m.Deleted, m.DeleteErr
}

// Counts returns ping, register and delete counters under the lock.
func (m *MockTaskEngine) Counts() (ping, register, del int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PingCalls, m.RegisterCalls, m.DeleteCalls
}
