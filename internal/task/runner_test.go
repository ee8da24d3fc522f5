package task_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/mocks"
	"github.com/scheduler-platform/scheduler-api/internal/service"
	"github.com/scheduler-platform/scheduler-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enqueue(t *testing.T, q *mocks.MockTaskQueueStore, msg string) *domain.ScheduledTask {
	t.Helper()
	row, err := q.Enqueue(context.Background(), domain.NewTaskSubmission{OwnerID: "u1", Message: msg})
	require.NoError(t, err)
	return row
}

func dispatched(q *mocks.MockTaskQueueStore, id string) bool {
	for _, row := range q.Tasks() {
		if row.ID == id {
			return row.Dispatched
		}
	}
	return false
}

func TestTaskRunner_ConfirmsDispatch(t *testing.T) {
	q := &mocks.MockTaskQueueStore{}
	row := enqueue(t, q, "hello")

	factory := task.NewDispatchConfirmTaskFactory(q, nil)
	runner := task.NewTaskRunner(q, factory, nil, task.DefaultTaskRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	job, err := factory.CreateTask(row.ID, json.RawMessage(`{"taskId":"grpc-1"}`))
	require.NoError(t, err)
	require.NoError(t, runner.Submit(context.Background(), job))

	assert.Eventually(t, func() bool { return dispatched(q, row.ID) }, time.Second, 5*time.Millisecond)

	stored := q.Tasks()[0]
	assert.JSONEq(t, `{"taskId":"grpc-1"}`, string(stored.EngineResponse))
	assert.NotNil(t, stored.DispatchedAt)
}

func TestTaskRunner_ErrorHandler(t *testing.T) {
	q := &mocks.MockTaskQueueStore{
		MarkDispatchedFn: func(context.Context, string, json.RawMessage, time.Time) error {
			return errors.New("db down")
		},
	}
	factory := task.NewDispatchConfirmTaskFactory(q, nil)
	runner := task.NewTaskRunner(q, factory, nil, task.TaskRunnerConfig{WorkerCount: 1, QueueSize: 4}, nil)

	var (
		mu     sync.Mutex
		failed []string
	)
	runner.SetErrorHandler(func(tk task.Task, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, tk.Type())
	})
	require.NoError(t, runner.Start())
	defer runner.Stop()

	job, err := factory.CreateTask("db-1", nil)
	require.NoError(t, err)
	require.NoError(t, runner.Submit(context.Background(), job))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(failed) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, task.TaskTypeDispatchConfirm, failed[0])
}

func TestTaskRunner_RecoversRowsWithEngineResponse(t *testing.T) {
	q := &mocks.MockTaskQueueStore{}
	withResponse := enqueue(t, q, "registered before crash")
	q.SetEngineResponse(withResponse.ID, json.RawMessage(`{"taskId":"grpc-7"}`))
	withoutResponse := enqueue(t, q, "never registered")

	factory := task.NewDispatchConfirmTaskFactory(q, nil)
	runner := task.NewTaskRunner(q, factory, nil, task.DefaultTaskRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	assert.Eventually(t, func() bool { return dispatched(q, withResponse.ID) }, time.Second, 5*time.Millisecond)
	assert.False(t, dispatched(q, withoutResponse.ID))
}

func TestTaskRunner_RecoversDroppedConfirmations(t *testing.T) {
	q := &mocks.MockTaskQueueStore{}
	engine := &mocks.MockTaskEngine{TaskID: "grpc-1"}
	factory := task.NewDispatchConfirmTaskFactory(q, nil)
	cfg := task.TaskRunnerConfig{WorkerCount: 1, QueueSize: 1, RecoverLimit: 10}

	// Never started: the first job sits in the buffer, the second finds it full.
	first := task.NewTaskRunner(q, factory, nil, cfg, nil)
	svc, err := service.NewTaskService(q, engine, first, factory, nil)
	require.NoError(t, err)

	_, err = svc.CreateTask(context.Background(), "u1", "buffered", nil)
	require.NoError(t, err)
	_, err = svc.CreateTask(context.Background(), "u1", "rejected", nil)
	require.NoError(t, err)
	first.Stop()

	rows := q.Tasks()
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.False(t, row.Dispatched)
		assert.NotEmpty(t, row.EngineResponse)
	}
	_, marked := q.Calls()
	require.Zero(t, marked)

	second := task.NewTaskRunner(q, factory, nil, cfg, nil)
	require.NoError(t, second.Start())
	defer second.Stop()

	assert.Eventually(t, func() bool {
		return dispatched(q, rows[0].ID) && dispatched(q, rows[1].ID)
	}, time.Second, 5*time.Millisecond)
	for _, row := range q.Tasks() {
		assert.JSONEq(t, `{"taskId":"grpc-1"}`, string(row.EngineResponse))
	}
}

func TestTaskRunner_RecoverFailureFailsStart(t *testing.T) {
	q := &mocks.MockTaskQueueStore{
		FindPendingFn: func(context.Context, int) ([]*domain.ScheduledTask, error) {
			return nil, errors.New("db down")
		},
	}
	runner := task.NewTaskRunner(q, task.NewDispatchConfirmTaskFactory(q, nil), nil, task.DefaultTaskRunnerConfig(), nil)
	assert.Error(t, runner.Start())
}

func TestTaskRunner_SubmitAfterStop(t *testing.T) {
	q := &mocks.MockTaskQueueStore{}
	factory := task.NewDispatchConfirmTaskFactory(q, nil)
	runner := task.NewTaskRunner(q, factory, nil, task.DefaultTaskRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	runner.Stop()

	job, err := factory.CreateTask("db-1", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, runner.Submit(context.Background(), job), task.ErrQueueClosed)
}

func TestDispatchConfirmTaskFactory_RejectsEmptyID(t *testing.T) {
	_, err := task.NewDispatchConfirmTaskFactory(&mocks.MockTaskQueueStore{}, nil).CreateTask("", nil)
	assert.ErrorIs(t, err, task.ErrEmptyTaskID)
}
