package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scheduler-platform/scheduler-api/internal/api/middleware"
	"github.com/scheduler-platform/scheduler-api/internal/api/shared"
	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
	"github.com/scheduler-platform/scheduler-api/internal/service/auth"
)

// AuthService is the part of auth.Service the handlers use.
type AuthService interface {
	Verify(ctx context.Context, username, password, clientIP string) (*auth.VerifyResult, error)
	ValidateToken(ctx context.Context, token string) bool
	Logout(ctx context.Context, subjectID, token string) error
}

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Verify handles POST /v1/auth/verify.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.auth.Verify(r.Context(), req.Username, req.Password, middleware.ClientIP(r))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// ValidateToken handles GET /v1/auth/validate/{accessToken}. It only checks
// the signature and expiry; the session is not consulted.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "accessToken")
	shared.RespondWithJSON(w, r, http.StatusOK, ValidateTokenResponse{
		Valid: token != "" && h.auth.ValidateToken(r.Context(), token),
	})
}

// Logout handles POST /v1/auth/logout by destroying the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	token, _ := shared.GetToken(r.Context())

	if err := h.auth.Logout(r.Context(), subject, token); err != nil {
		HandleAPIError(w, r, err, "Failed to log out")
		return
	}

	logger.FromContext(r.Context()).Info("session closed", slog.String("subject", subject))
	w.WriteHeader(http.StatusNoContent)
}
