package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/service"
	"github.com/scheduler-platform/scheduler-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"engine unavailable", fmt.Errorf("%w: dial tcp", service.ErrEngineUnavailable), http.StatusServiceUnavailable},
		{"validation", domain.NewValidationError("message", "is required", nil), http.StatusBadRequest},
		{"invalid id", domain.NewValidationError("id", "is required", domain.ErrInvalidID), http.StatusBadRequest},
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"session expired", auth.ErrSessionExpired, http.StatusUnauthorized},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"engine failure wrapped in service error",
			service.NewTaskServiceError("create_task", "engine registration failed", errors.New("rpc error")),
			http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"engine", service.ErrEngineUnavailable, "Task engine unavailable"},
		{"credentials", auth.ErrInvalidCredentials, "Invalid credentials"},
		{"session", auth.ErrSessionExpired, "Session expired"},
		{"token", auth.ErrInvalidToken, "Unauthorized"},
		{"field", domain.NewValidationError("message", "must be at most 500 characters", nil),
			"Invalid message: must be at most 500 characters"},
		{"internal detail is hidden", errors.New("postgres://app:pw@db failed"), "An unexpected error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetSafeErrorMessage(tc.err))
		})
	}
}
