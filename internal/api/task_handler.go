package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/scheduler-platform/scheduler-api/internal/api/shared"
	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
	"github.com/scheduler-platform/scheduler-api/internal/service"
)

// TaskService is the part of service.TaskService the handlers use.
type TaskService interface {
	CreateTask(ctx context.Context, ownerID, message string, idempotencyKey *string) (*service.CreateTaskResult, error)
	DeleteTask(ctx context.Context, taskID string) (*service.DeleteTaskResult, error)
	ListTasks(ctx context.Context, ownerID string, page, limit int) (*service.TaskPage, error)
	PingEngine(ctx context.Context) (*service.EngineHealth, error)
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	tasks TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// CreateTask handles POST /v1/tasks. The task is accepted for asynchronous
// execution by the engine, hence 202.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.tasks.CreateTask(r.Context(), subject, req.Message, req.IdempotencyKey)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	logger.FromContext(r.Context()).Info("task accepted", slog.String("task_id", result.ID))
	shared.RespondWithJSON(w, r, http.StatusAccepted, result)
}

// DeleteTask handles DELETE /v1/tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSubject(w, r); !ok {
		return
	}

	id, err := getPathParam(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.tasks.DeleteTask(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// ListTasks handles GET /v1/tasks?page=&limit=.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}

	page, limit, err := parsePagination(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.tasks.ListTasks(r.Context(), subject, page, limit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// PingEngine handles GET /v1/tasks/ping.
func (h *TaskHandler) PingEngine(w http.ResponseWriter, r *http.Request) {
	health, err := h.tasks.PingEngine(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, health)
}
