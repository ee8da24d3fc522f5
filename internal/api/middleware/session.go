package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/scheduler-platform/scheduler-api/internal/api/shared"
	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
	"github.com/scheduler-platform/scheduler-api/internal/service/auth"
	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// Client-facing messages of the session guard.
const (
	MsgUnauthorized   = "Unauthorized"
	MsgSessionExpired = "Session expired"
	MsgAuthError      = "Authentication error"
)

// SessionMiddleware admits a request only when its bearer token verifies and
// a live server-side session exists for it. Every admitted request extends
// the session's TTL exactly once. Tokens are never re-issued.
type SessionMiddleware struct {
	jwtService auth.JWTService
	sessions   store.SessionStore
	logger     *slog.Logger
}

// NewSessionMiddleware creates a new SessionMiddleware with the given dependencies.
func NewSessionMiddleware(
	jwtService auth.JWTService,
	sessions store.SessionStore,
	logger *slog.Logger,
) *SessionMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionMiddleware{
		jwtService: jwtService,
		sessions:   sessions,
		logger:     logger.With(slog.String("component", "session_guard")),
	}
}

// Authenticate runs the guard and, on success, stores the subject and token
// in the request context.
func (m *SessionMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContextOrDefault(ctx, m.logger)

		token, ok := bearerToken(r)
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, MsgUnauthorized)
			return
		}

		claims, err := m.jwtService.ValidateToken(ctx, token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) ||
				errors.Is(err, auth.ErrExpiredToken) ||
				errors.Is(err, auth.ErrTokenNotYetValid) {
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, MsgUnauthorized, err)
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, MsgAuthError, err)
			return
		}

		subject := claims.Subject
		live, err := m.sessions.IsValid(ctx, subject, token)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, MsgAuthError, err)
			return
		}
		if !live {
			log.Debug("no live session for token", slog.String("subject", subject))
			shared.RespondWithError(w, r, http.StatusUnauthorized, MsgSessionExpired)
			return
		}

		if err := m.sessions.Renew(ctx, subject, token); err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				// Expired between the check and the renew.
				shared.RespondWithError(w, r, http.StatusUnauthorized, MsgSessionExpired)
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, MsgAuthError, err)
			return
		}

		ctx = shared.WithSession(ctx, subject, token)
		ctx = logger.WithLogger(ctx, log.With(slog.String("subject", subject)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSubject extracts the authenticated subject from the request context.
func GetSubject(r *http.Request) (string, bool) {
	return shared.GetSubject(r.Context())
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.Contains(token, " ") {
		return "", false
	}
	return token, true
}
