package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
	"github.com/scheduler-platform/scheduler-api/internal/store"
	"github.com/scheduler-platform/scheduler-api/internal/task"
)

// List paging bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// TaskEngine is the remote scheduler the orchestrator forwards work to.
type TaskEngine interface {
	// Ping returns the engine's status string; any error means unavailable.
	Ping(ctx context.Context) (string, error)

	// RegisterTask schedules a task and returns the engine id, possibly empty.
	RegisterTask(ctx context.Context, ownerID, message string, idempotencyKey *string) (string, error)

	// DeleteTask removes a task; false means the engine did not know it.
	DeleteTask(ctx context.Context, taskID string) (bool, error)
}

// TaskRunner defines the interface for submitting background tasks
type TaskRunner interface {
	// Submit adds a task to the processing queue
	Submit(ctx context.Context, task task.Task) error
}

// DispatchConfirmTaskFactory creates dispatch-confirmation tasks.
type DispatchConfirmTaskFactory interface {
	CreateTask(scheduledID string, engineResponse json.RawMessage) (task.Task, error)
}

// CreateTaskResult is returned by CreateTask.
type CreateTaskResult struct {
	ID             string  `json:"id"`
	IdempotencyKey *string `json:"idempotencyKey,omitempty"`
}

// DeleteTaskResult is returned by DeleteTask.
type DeleteTaskResult struct {
	Deleted bool `json:"deleted"`
}

// TaskPage is one page of an owner's tasks.
type TaskPage struct {
	Data  []*domain.ScheduledTask `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

// EngineHealth is the raw engine ping result.
type EngineHealth struct {
	Status string `json:"status"`
}

// engineRegistration is what is stored as a task's engine response.
type engineRegistration struct {
	TaskID string `json:"taskId"`
}

// TaskService orchestrates task submission, deletion and listing.
type TaskService struct {
	queue   store.TaskQueueStore
	engine  TaskEngine
	runner  TaskRunner
	factory DispatchConfirmTaskFactory
	logger  *slog.Logger
}

// NewTaskService creates the orchestrator. runner and factory may be nil,
// in which case dispatch confirmation is skipped.
func NewTaskService(
	queue store.TaskQueueStore,
	engine TaskEngine,
	runner TaskRunner,
	factory DispatchConfirmTaskFactory,
	logger *slog.Logger,
) (*TaskService, error) {
	if queue == nil {
		return nil, fmt.Errorf("task queue store cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("task engine cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		queue:   queue,
		engine:  engine,
		runner:  runner,
		factory: factory,
		logger:  logger.With(slog.String("component", "task_service")),
	}, nil
}

// CreateTask validates the submission, checks engine health, deduplicates
// on (owner, key), registers with the engine and enqueues the row. The
// returned id is the engine's when it assigned one, else the local id.
func (s *TaskService) CreateTask(
	ctx context.Context,
	ownerID, message string,
	idempotencyKey *string,
) (*CreateTaskResult, error) {
	sub := domain.NewTaskSubmission{OwnerID: ownerID, Message: message, IdempotencyKey: idempotencyKey}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	// Side effects must outlive a disconnecting client.
	ctx = context.WithoutCancel(ctx)
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("owner_id", ownerID))

	if err := s.ping(ctx); err != nil {
		return nil, err
	}

	if idempotencyKey != nil {
		existing, err := s.queue.FindByIdempotencyKey(ctx, ownerID, *idempotencyKey)
		if err != nil {
			return nil, NewTaskServiceError("create_task", "idempotency lookup failed", err)
		}
		if existing != nil {
			id := publicTaskID(existing)
			log.Info("duplicate submission resolved by idempotency key",
				slog.String("task_id", id),
				slog.String("local_id", existing.ID))
			return &CreateTaskResult{ID: id, IdempotencyKey: idempotencyKey}, nil
		}
	}

	engineID, err := s.engine.RegisterTask(ctx, ownerID, message, idempotencyKey)
	if err != nil {
		return nil, NewTaskServiceError("create_task", "engine registration failed", err)
	}

	engineResponse, err := json.Marshal(engineRegistration{TaskID: engineID})
	if err != nil {
		return nil, NewTaskServiceError("create_task", "failed to encode engine response", err)
	}
	sub.EngineResponse = engineResponse

	saved, err := s.queue.Enqueue(ctx, sub)
	if err != nil {
		if !errors.Is(err, store.ErrDuplicate) || idempotencyKey == nil {
			return nil, NewTaskServiceError("create_task", "enqueue failed", err)
		}
		// Lost the race on the unique index: the winner's row is the answer.
		winner, findErr := s.queue.FindByIdempotencyKey(ctx, ownerID, *idempotencyKey)
		if findErr != nil || winner == nil {
			return nil, NewTaskServiceError("create_task", "duplicate resolution failed", errors.Join(err, findErr))
		}
		id := publicTaskID(winner)
		log.Info("concurrent duplicate submission resolved",
			slog.String("task_id", id),
			slog.String("local_id", winner.ID))
		return &CreateTaskResult{ID: id, IdempotencyKey: idempotencyKey}, nil
	}

	s.confirmDispatch(ctx, log, saved.ID, engineResponse)

	id := publicTaskID(saved)
	log.Info("task created", slog.String("task_id", id), slog.String("local_id", saved.ID))
	return &CreateTaskResult{ID: id, IdempotencyKey: idempotencyKey}, nil
}

// publicTaskID is the id a client sees for a stored task: the engine's id
// when registration returned one, else the local id. Every path that
// answers for the same row goes through here so retries agree.
func publicTaskID(t *domain.ScheduledTask) string {
	if len(t.EngineResponse) > 0 {
		var reg engineRegistration
		if err := json.Unmarshal(t.EngineResponse, &reg); err == nil && strings.TrimSpace(reg.TaskID) != "" {
			return reg.TaskID
		}
	}
	return t.ID
}

// confirmDispatch queues the confirmation job. A job that cannot be queued
// is left to runner recovery, since the row already carries the response.
func (s *TaskService) confirmDispatch(ctx context.Context, log *slog.Logger, localID string, engineResponse json.RawMessage) {
	if s.runner == nil || s.factory == nil {
		return
	}
	job, err := s.factory.CreateTask(localID, engineResponse)
	if err == nil {
		err = s.runner.Submit(ctx, job)
	}
	if err != nil {
		log.Warn("dispatch confirmation not queued",
			slog.String("local_id", localID),
			slog.String("error", err.Error()))
	}
}

// DeleteTask checks engine health and forwards the delete. Local rows are
// left in place.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) (*DeleteTaskResult, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, domain.NewValidationError("id", "is required", domain.ErrInvalidID)
	}

	ctx = context.WithoutCancel(ctx)
	if err := s.ping(ctx); err != nil {
		return nil, err
	}

	deleted, err := s.engine.DeleteTask(ctx, taskID)
	if err != nil {
		return nil, NewTaskServiceError("delete_task", "engine delete failed", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task delete forwarded",
		slog.String("task_id", taskID),
		slog.Bool("deleted", deleted))
	return &DeleteTaskResult{Deleted: deleted}, nil
}

// ListTasks returns the owner's tasks newest first. Non-positive page or
// limit fall back to defaults and limit is capped at MaxLimit.
func (s *TaskService) ListTasks(ctx context.Context, ownerID string, page, limit int) (*TaskPage, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.NewValidationError("ownerId", "is required", domain.ErrInvalidID)
	}
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	result, err := s.queue.FindByOwner(ctx, ownerID, page, limit)
	if err != nil {
		return nil, NewTaskServiceError("list_tasks", "query failed", err)
	}
	return &TaskPage{Data: result.Data, Total: result.Total, Page: page, Limit: limit}, nil
}

// PingEngine passes the engine's health status through.
func (s *TaskService) PingEngine(ctx context.Context) (*EngineHealth, error) {
	status, err := s.engine.Ping(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("engine ping failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return &EngineHealth{Status: status}, nil
}

func (s *TaskService) ping(ctx context.Context) error {
	if _, err := s.engine.Ping(ctx); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("engine unavailable, rejecting request",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return nil
}
