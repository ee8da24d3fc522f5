package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
	"github.com/scheduler-platform/scheduler-api/internal/store"
	"golang.org/x/sync/errgroup"
)

const taskColumns = `id::text, owner_id, message, idempotency_key, engine_response,
		dispatched, dispatched_at, created_at, updated_at`

const (
	insertTaskQuery = `
		INSERT INTO scheduled_tasks (id, owner_id, message, idempotency_key, engine_response, dispatched, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $6)
		RETURNING ` + taskColumns

	findTaskByKeyQuery = `
		SELECT ` + taskColumns + `
		FROM scheduled_tasks
		WHERE owner_id = $1 AND idempotency_key = $2`

	findTasksByOwnerQuery = `
		SELECT ` + taskColumns + `
		FROM scheduled_tasks
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	countTasksByOwnerQuery = `SELECT COUNT(*) FROM scheduled_tasks WHERE owner_id = $1`

	findPendingTasksQuery = `
		SELECT ` + taskColumns + `
		FROM scheduled_tasks
		WHERE dispatched = FALSE
		ORDER BY created_at ASC
		LIMIT $1`

	markDispatchedQuery = `
		UPDATE scheduled_tasks
		SET engine_response = COALESCE($2, engine_response), dispatched = TRUE, dispatched_at = $3, updated_at = $3
		WHERE id = $1`
)

// PostgresTaskQueueStore implements store.TaskQueueStore on the
// scheduled_tasks table.
type PostgresTaskQueueStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskQueueStore creates a task queue store. If logger is nil,
// slog.Default() is used.
func NewPostgresTaskQueueStore(db store.DBTX, logger *slog.Logger) *PostgresTaskQueueStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskQueueStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_queue_store")),
	}
}

// Ensure PostgresTaskQueueStore implements store.TaskQueueStore interface
var _ store.TaskQueueStore = (*PostgresTaskQueueStore)(nil)

// Enqueue implements store.TaskQueueStore.Enqueue.
func (s *PostgresTaskQueueStore) Enqueue(
	ctx context.Context,
	submission domain.NewTaskSubmission,
) (*domain.ScheduledTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := submission.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	row := s.db.QueryRowContext(ctx, insertTaskQuery,
		id,
		submission.OwnerID,
		submission.Message,
		submission.IdempotencyKey,
		jsonbParam(submission.EngineResponse),
		time.Now().UTC(),
	)

	task, err := scanTask(row)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("task with idempotency key already exists",
				slog.String("owner_id", submission.OwnerID))
			return nil, fmt.Errorf("%w: task for owner %s with idempotency key",
				store.ErrDuplicate, submission.OwnerID)
		}
		log.Error("failed to enqueue task",
			slog.String("error", err.Error()),
			slog.String("owner_id", submission.OwnerID))
		return nil, store.NewStoreError("scheduled_task", "enqueue", "insert failed", MapError(err))
	}

	log.Info("task enqueued",
		slog.String("task_id", task.ID),
		slog.String("owner_id", task.OwnerID))
	return task, nil
}

// FindByIdempotencyKey implements store.TaskQueueStore.FindByIdempotencyKey.
func (s *PostgresTaskQueueStore) FindByIdempotencyKey(
	ctx context.Context,
	ownerID, key string,
) (*domain.ScheduledTask, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, findTaskByKeyQuery, ownerID, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, store.NewStoreError("scheduled_task", "find_by_key", "query failed", MapError(err))
	}
	return task, nil
}

// FindByOwner implements store.TaskQueueStore.FindByOwner. The page and the
// total are read concurrently.
func (s *PostgresTaskQueueStore) FindByOwner(
	ctx context.Context,
	ownerID string,
	page, limit int,
) (*store.TaskPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	offset := (page - 1) * limit

	var (
		tasks []*domain.ScheduledTask
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.db.QueryContext(gctx, findTasksByOwnerQuery, ownerID, limit, offset)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				return err
			}
			tasks = append(tasks, task)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return s.db.QueryRowContext(gctx, countTasksByOwnerQuery, ownerID).Scan(&total)
	})

	if err := g.Wait(); err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID))
		return nil, store.NewStoreError("scheduled_task", "find_by_owner", "query failed", MapError(err))
	}

	if tasks == nil {
		tasks = []*domain.ScheduledTask{}
	}
	return &store.TaskPage{Data: tasks, Total: total}, nil
}

// FindPending implements store.TaskQueueStore.FindPending.
func (s *PostgresTaskQueueStore) FindPending(ctx context.Context, limit int) ([]*domain.ScheduledTask, error) {
	rows, err := s.db.QueryContext(ctx, findPendingTasksQuery, limit)
	if err != nil {
		return nil, store.NewStoreError("scheduled_task", "find_pending", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.ScheduledTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("scheduled_task", "find_pending", "scan failed", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("scheduled_task", "find_pending", "iteration failed", err)
	}
	return tasks, nil
}

// MarkDispatched implements store.TaskQueueStore.MarkDispatched.
func (s *PostgresTaskQueueStore) MarkDispatched(
	ctx context.Context,
	id string,
	engineResponse json.RawMessage,
	at time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	taskID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}

	result, err := s.db.ExecContext(ctx, markDispatchedQuery, taskID, jsonbParam(engineResponse), at.UTC())
	if err != nil {
		log.Error("failed to mark task dispatched",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return store.NewStoreError("scheduled_task", "mark_dispatched", "update failed", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Debug("task marked dispatched", slog.String("task_id", id))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// jsonbParam maps an empty payload to SQL NULL.
func jsonbParam(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func scanTask(row rowScanner) (*domain.ScheduledTask, error) {
	var (
		task           domain.ScheduledTask
		key            sql.NullString
		engineResponse []byte
		dispatchedAt   sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Message,
		&key,
		&engineResponse,
		&task.Dispatched,
		&dispatchedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if key.Valid {
		k := key.String
		task.IdempotencyKey = &k
	}
	if len(engineResponse) > 0 {
		task.EngineResponse = json.RawMessage(engineResponse)
	}
	if dispatchedAt.Valid {
		t := dispatchedAt.Time
		task.DispatchedAt = &t
	}
	return &task, nil
}
