package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// MockTaskQueueStore implements store.TaskQueueStore for testing. Without
// Fn overrides it is an in-memory queue that assigns ids db-1, db-2, ...
// and enforces (owner, key) uniqueness like the real store.
type MockTaskQueueStore struct {
	EnqueueFn              func(ctx context.Context, sub domain.NewTaskSubmission) (*domain.ScheduledTask, error)
	FindByIdempotencyKeyFn func(ctx context.Context, ownerID, key string) (*domain.ScheduledTask, error)
	FindByOwnerFn          func(ctx context.Context, ownerID string, page, limit int) (*store.TaskPage, error)
	FindPendingFn          func(ctx context.Context, limit int) ([]*domain.ScheduledTask, error)
	MarkDispatchedFn       func(ctx context.Context, id string, resp json.RawMessage, at time.Time) error

	mu    sync.Mutex
	tasks []*domain.ScheduledTask
	seq   int

	EnqueueCalls        int
	FindByKeyCalls      int
	FindByOwnerCalls    int
	MarkDispatchedCalls int
	LastPage, LastLimit int
}

var _ store.TaskQueueStore = (*MockTaskQueueStore)(nil)

// Tasks returns a snapshot of stored tasks in insertion order.
func (m *MockTaskQueueStore) Tasks() []domain.ScheduledTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ScheduledTask, len(m.tasks))
	for i, t := range m.tasks {
		out[i] = *t
	}
	return out
}

// Enqueue implements store.TaskQueueStore
func (m *MockTaskQueueStore) Enqueue(ctx context.Context, sub domain.NewTaskSubmission) (*domain.ScheduledTask, error) {
	m.mu.Lock()
	m.EnqueueCalls++
	m.mu.Unlock()

	if m.EnqueueFn != nil {
		return m.EnqueueFn(ctx, sub)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if sub.IdempotencyKey != nil {
		if existing := m.findLocked(sub.OwnerID, *sub.IdempotencyKey); existing != nil {
			return nil, fmt.Errorf("%w: owner %s key %s", store.ErrDuplicate, sub.OwnerID, *sub.IdempotencyKey)
		}
	}

	m.seq++
	now := time.Now().UTC()
	task := &domain.ScheduledTask{
		ID:             fmt.Sprintf("db-%d", m.seq),
		OwnerID:        sub.OwnerID,
		Message:        sub.Message,
		IdempotencyKey: sub.IdempotencyKey,
		EngineResponse: sub.EngineResponse,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.tasks = append(m.tasks, task)
	copied := *task
	return &copied, nil
}

func (m *MockTaskQueueStore) findLocked(ownerID, key string) *domain.ScheduledTask {
	for _, t := range m.tasks {
		if t.OwnerID == ownerID && t.IdempotencyKey != nil && *t.IdempotencyKey == key {
			return t
		}
	}
	return nil
}

// FindByIdempotencyKey implements store.TaskQueueStore
func (m *MockTaskQueueStore) FindByIdempotencyKey(ctx context.Context, ownerID, key string) (*domain.ScheduledTask, error) {
	m.mu.Lock()
	m.FindByKeyCalls++
	m.mu.Unlock()

	if m.FindByIdempotencyKeyFn != nil {
		return m.FindByIdempotencyKeyFn(ctx, ownerID, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t := m.findLocked(ownerID, key); t != nil {
		copied := *t
		return &copied, nil
	}
	return nil, nil
}

// FindByOwner implements store.TaskQueueStore
func (m *MockTaskQueueStore) FindByOwner(ctx context.Context, ownerID string, page, limit int) (*store.TaskPage, error) {
	m.mu.Lock()
	m.FindByOwnerCalls++
	m.LastPage, m.LastLimit = page, limit
	m.mu.Unlock()

	if m.FindByOwnerFn != nil {
		return m.FindByOwnerFn(ctx, ownerID, page, limit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var owned []*domain.ScheduledTask
	for i := len(m.tasks) - 1; i >= 0; i-- {
		if m.tasks[i].OwnerID == ownerID {
			owned = append(owned, m.tasks[i])
		}
	}

	result := &store.TaskPage{Data: []*domain.ScheduledTask{}, Total: int64(len(owned))}
	start := (page - 1) * limit
	for i := start; i < len(owned) && i < start+limit; i++ {
		copied := *owned[i]
		result.Data = append(result.Data, &copied)
	}
	return result, nil
}

// FindPending implements store.TaskQueueStore
func (m *MockTaskQueueStore) FindPending(ctx context.Context, limit int) ([]*domain.ScheduledTask, error) {
	if m.FindPendingFn != nil {
		return m.FindPendingFn(ctx, limit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []*domain.ScheduledTask
	for _, t := range m.tasks {
		if !t.Dispatched {
			copied := *t
			pending = append(pending, &copied)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// SetEngineResponse attaches an engine response to a stored pending task.
func (m *MockTaskQueueStore) SetEngineResponse(id string, resp json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			t.EngineResponse = resp
		}
	}
}

// MarkDispatched implements store.TaskQueueStore
func (m *MockTaskQueueStore) MarkDispatched(ctx context.Context, id string, resp json.RawMessage, at time.Time) error {
	m.mu.Lock()
	m.MarkDispatchedCalls++
	m.mu.Unlock()

	if m.MarkDispatchedFn != nil {
		return m.MarkDispatchedFn(ctx, id, resp, at)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			t.Dispatched = true
			if len(resp) > 0 {
				t.EngineResponse = resp
			}
			dispatchedAt := at
			t.DispatchedAt = &dispatchedAt
			t.UpdatedAt = at
			return nil
		}
	}
	return store.ErrTaskNotFound
}

// Calls returns the enqueue and mark-dispatched counters under the lock.
func (m *MockTaskQueueStore) Calls() (enqueue, markDispatched int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.EnqueueCalls, m.MarkDispatchedCalls
}
