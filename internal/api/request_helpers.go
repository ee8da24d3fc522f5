package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/scheduler-platform/scheduler-api/internal/api/shared"
	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
)

// getSubjectFromContext returns the subject placed in the context by the
// session guard.
func getSubjectFromContext(r *http.Request) (string, bool) {
	return shared.GetSubject(r.Context())
}

// requireSubject is getSubjectFromContext that writes a 401 when the
// subject is missing.
func requireSubject(w http.ResponseWriter, r *http.Request) (string, bool) {
	subject, ok := getSubjectFromContext(r)
	if !ok {
		logger.FromContext(r.Context()).Warn("subject not found in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return "", false
	}
	return subject, true
}

// getPathParam extracts a required, non-blank path parameter.
func getPathParam(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		return "", domain.NewValidationError(name, "is required", domain.ErrInvalidID)
	}
	return value, nil
}

// parsePagination reads page and limit query parameters. Absent values are
// returned as 0 so the service applies its defaults.
func parsePagination(r *http.Request) (page, limit int, err error) {
	query := r.URL.Query()
	if page, err = parseOptionalInt(query.Get("page"), "page"); err != nil {
		return 0, 0, err
	}
	if limit, err = parseOptionalInt(query.Get("limit"), "limit"); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func parseOptionalInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(field, "must be an integer", nil)
	}
	return n, nil
}

// decodeAndValidate decodes the JSON body into v and runs struct validation,
// writing a 400 on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		logger.FromContext(r.Context()).Debug("invalid request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return false
	}
	return true
}
