package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// ErrEmptyTaskID is returned when a confirmation is requested for no row.
var ErrEmptyTaskID = errors.New("scheduled task ID cannot be empty")

// DispatchConfirmTask flips one scheduled task to dispatched and records
// the engine's response on it.
type DispatchConfirmTask struct {
	id             string
	scheduledID    string
	engineResponse json.RawMessage
	queue          store.TaskQueueStore
	now            func() time.Time
	logger         *slog.Logger
}

// ID implements Task.
func (t *DispatchConfirmTask) ID() string { return t.id }

// Type implements Task.
func (t *DispatchConfirmTask) Type() string { return TaskTypeDispatchConfirm }

// ScheduledTaskID is the row being confirmed.
func (t *DispatchConfirmTask) ScheduledTaskID() string { return t.scheduledID }

// Execute implements Task.
func (t *DispatchConfirmTask) Execute(ctx context.Context) error {
	if err := t.queue.MarkDispatched(ctx, t.scheduledID, t.engineResponse, t.now().UTC()); err != nil {
		return fmt.Errorf("failed to confirm dispatch of %s: %w", t.scheduledID, err)
	}
	t.logger.Debug("dispatch confirmed", "scheduled_task_id", t.scheduledID)
	return nil
}

// DispatchConfirmTaskFactory builds DispatchConfirmTasks bound to a store.
type DispatchConfirmTaskFactory struct {
	queue  store.TaskQueueStore
	now    func() time.Time
	logger *slog.Logger
}

// NewDispatchConfirmTaskFactory creates a factory over queue.
func NewDispatchConfirmTaskFactory(queue store.TaskQueueStore, logger *slog.Logger) *DispatchConfirmTaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatchConfirmTaskFactory{
		queue:  queue,
		now:    time.Now,
		logger: logger.With("component", "dispatch_confirm"),
	}
}

// CreateTask returns a confirmation task for the scheduled row.
func (f *DispatchConfirmTaskFactory) CreateTask(scheduledID string, engineResponse json.RawMessage) (Task, error) {
	if scheduledID == "" {
		return nil, ErrEmptyTaskID
	}
	return &DispatchConfirmTask{
		id:             uuid.NewString(),
		scheduledID:    scheduledID,
		engineResponse: engineResponse,
		queue:          f.queue,
		now:            f.now,
		logger:         f.logger,
	}, nil
}
