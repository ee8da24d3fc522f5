package api

import (
	"net/http"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/api/shared"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "scheduler-api"

// HealthHandler reports liveness.
type HealthHandler struct {
	now func() time.Time
}

// NewHealthHandler creates a HealthHandler using the wall clock.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{now: time.Now}
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   ServiceName,
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
	})
}
