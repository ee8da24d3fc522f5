package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// RecoverLimit caps how many unconfirmed rows are re-queued on Start.
	// Zero disables recovery.
	RecoverLimit int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:  2,
		QueueSize:    100,
		RecoverLimit: 500,
	}
}

// TaskRunner manages background task processing
type TaskRunner struct {
	queue      *TaskQueue
	scheduled  store.TaskQueueStore
	factory    *DispatchConfirmTaskFactory
	sweeper    *Sweeper
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)
}

// NewTaskRunner creates a new TaskRunner. sweeper may be nil.
func NewTaskRunner(
	scheduled store.TaskQueueStore,
	factory *DispatchConfirmTaskFactory,
	sweeper *Sweeper,
	config TaskRunnerConfig,
	logger *slog.Logger,
) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	logger = logger.With("component", "task_runner")

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		queue:      NewTaskQueue(config.QueueSize, logger),
		scheduled:  scheduled,
		factory:    factory,
		sweeper:    sweeper,
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit adds a new task to the queue without blocking.
func (r *TaskRunner) Submit(_ context.Context, task Task) error {
	return r.queue.Enqueue(task)
}

// Start recovers unconfirmed rows, then starts the workers and the sweeper.
func (r *TaskRunner) Start() error {
	if err := r.Recover(r.ctx); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	if r.sweeper != nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.sweeper.Run(r.ctx)
		}()
	}

	return nil
}

// Stop cancels the workers and the sweeper and waits for them. Tasks still
// buffered are dropped; their rows stay pending and are recovered on the
// next Start.
func (r *TaskRunner) Stop() {
	r.queue.Close()
	r.cancelFunc()
	r.wg.Wait()
}

// Recover re-queues confirmation for pending rows. Rows get their engine
// response at enqueue, so any confirmation dropped at Stop is rebuilt here.
func (r *TaskRunner) Recover(ctx context.Context) error {
	if r.config.RecoverLimit <= 0 || r.scheduled == nil || r.factory == nil {
		return nil
	}

	pending, err := r.scheduled.FindPending(ctx, r.config.RecoverLimit)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	requeued := 0
	for _, row := range pending {
		if len(row.EngineResponse) == 0 {
			continue
		}
		task, err := r.factory.CreateTask(row.ID, row.EngineResponse)
		if err != nil {
			r.logger.Error("failed to build recovery task", "scheduled_task_id", row.ID, "error", err)
			continue
		}
		if err := r.queue.Enqueue(task); err != nil {
			r.logger.Error("failed to requeue pending task",
				"scheduled_task_id", row.ID,
				"error", err)
			continue
		}
		requeued++
	}

	r.logger.Info("recovered unconfirmed tasks",
		"pending_count", len(pending),
		"requeued_count", requeued)
	return nil
}

// worker processes tasks from the queue
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	tasks := r.queue.GetChannel()
	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-tasks:
			if !ok {
				r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			r.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task
func (r *TaskRunner) processTask(task Task, workerID int) {
	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.ctx), 30*time.Second)
	defer cancel()

	start := time.Now()
	if err := task.Execute(ctx); err != nil {
		r.errHandler(task, err)
		return
	}
	logger.Debug("task completed", "duration_ms", time.Since(start).Milliseconds())
}
