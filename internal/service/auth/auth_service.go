package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// VerifyResult is returned by a successful login.
type VerifyResult struct {
	AccessToken string `json:"accessToken"`
}

// Service logs users in and out. A login issues a token and opens the
// server-side session the session guard later checks.
type Service struct {
	users    store.UserStore
	sessions store.SessionStore
	tokens   JWTService
	verifier PasswordVerifier
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates an authentication service.
func NewService(
	users store.UserStore,
	sessions store.SessionStore,
	tokens JWTService,
	verifier PasswordVerifier,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		verifier: verifier,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "auth_service")),
	}
}

// Verify checks credentials, issues an access token and stores its session.
// Recording last-login metadata is best-effort.
func (s *Service) Verify(ctx context.Context, username, password, clientIP string) (*VerifyResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login for unknown username")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login with wrong password", slog.String("subject", user.SSUUID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(ctx, user.SSUUID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.sessions.Store(ctx, user.SSUUID, token); err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.SSUUID, s.now().UTC(), clientIP); err != nil {
		log.Warn("failed to record last login",
			slog.String("subject", user.SSUUID),
			slog.String("error", err.Error()))
	}

	log.Info("user logged in", slog.String("subject", user.SSUUID))
	return &VerifyResult{AccessToken: token}, nil
}

// ValidateToken reports whether token carries a valid signature and is
// unexpired. It does not consult the session store.
func (s *Service) ValidateToken(ctx context.Context, token string) bool {
	_, err := s.tokens.ValidateToken(ctx, token)
	return err == nil
}

// Logout destroys the session for (subject, token).
func (s *Service) Logout(ctx context.Context, subjectID, token string) error {
	if err := s.sessions.Destroy(ctx, subjectID, token); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("user logged out", slog.String("subject", subjectID))
	return nil
}

// CreateUser provisions a login principal with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	user, err := domain.NewUser(username, password, role)
	if err != nil {
		return nil, domain.NewValidationError("user", err.Error(), err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = hash
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
