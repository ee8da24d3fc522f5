package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
)

// TaskPage is one page of an owner's scheduled tasks plus the owner's total.
type TaskPage struct {
	Data  []*domain.ScheduledTask `json:"data"`
	Total int64                   `json:"total"`
}

// TaskQueueStore is the durable record of submitted tasks.
type TaskQueueStore interface {
	// Enqueue persists a new pending task and returns it with its storage id.
	// Returns ErrDuplicate when (owner, idempotency key) already exists.
	Enqueue(ctx context.Context, submission domain.NewTaskSubmission) (*domain.ScheduledTask, error)

	// FindByIdempotencyKey returns the owner's task for key, or (nil, nil)
	// when none exists. "Not found" is never reported as an error.
	FindByIdempotencyKey(ctx context.Context, ownerID, key string) (*domain.ScheduledTask, error)

	// FindByOwner returns the owner's tasks newest first. page is 1-indexed.
	FindByOwner(ctx context.Context, ownerID string, page, limit int) (*TaskPage, error)

	// FindPending returns up to limit tasks that are not yet dispatched,
	// oldest first.
	FindPending(ctx context.Context, limit int) ([]*domain.ScheduledTask, error)

	// MarkDispatched records the engine's response and flips the task to
	// dispatched. Returns ErrTaskNotFound if the id is unknown.
	MarkDispatched(ctx context.Context, id string, engineResponse json.RawMessage, at time.Time) error
}
