package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
	"github.com/scheduler-platform/scheduler-api/internal/store"
)

const (
	insertUserQuery = `
		INSERT INTO users (ssuuid, username, hashed_password, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getUserByUsernameQuery = `
		SELECT ssuuid::text, username, hashed_password, role, last_login_at, last_login_ip, created_at, updated_at
		FROM users
		WHERE username = $1`

	updateLastLoginQuery = `
		UPDATE users
		SET last_login_at = $2, last_login_ip = $3, updated_at = $2
		WHERE ssuuid = $1`
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// Create implements store.UserStore.Create. The plaintext password must
// already have been replaced by a hash.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if user.HashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}

	_, err := s.db.ExecContext(ctx, insertUserQuery,
		user.SSUUID,
		user.Username,
		user.HashedPassword,
		string(user.Role),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("attempt to create user with existing username",
				slog.String("username", user.Username))
			return store.ErrUsernameExists
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("ssuuid", user.SSUUID))
		return store.NewStoreError("user", "create", "insert failed", MapError(err))
	}

	log.Info("user created", slog.String("ssuuid", user.SSUUID), slog.String("role", string(user.Role)))
	return nil
}

// GetByUsername implements store.UserStore.GetByUsername.
func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var (
		user        domain.User
		role        string
		lastLoginAt sql.NullTime
		lastLoginIP sql.NullString
	)

	err := s.db.QueryRowContext(ctx, getUserByUsernameQuery, username).Scan(
		&user.SSUUID,
		&user.Username,
		&user.HashedPassword,
		&role,
		&lastLoginAt,
		&lastLoginIP,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, store.NewStoreError("user", "get_by_username", "query failed", MapError(err))
	}

	user.Role = domain.Role(role)
	if lastLoginAt.Valid {
		t := lastLoginAt.Time
		user.LastLoginAt = &t
	}
	if lastLoginIP.Valid {
		ip := lastLoginIP.String
		user.LastLoginIP = &ip
	}
	return &user, nil
}

// UpdateLastLogin implements store.UserStore.UpdateLastLogin.
func (s *PostgresUserStore) UpdateLastLogin(ctx context.Context, ssuuid string, at time.Time, ip string) error {
	id, err := uuid.Parse(ssuuid)
	if err != nil {
		return fmt.Errorf("%w: %s", store.ErrUserNotFound, ssuuid)
	}

	var ipArg any
	if ip != "" {
		ipArg = ip
	}

	result, err := s.db.ExecContext(ctx, updateLastLoginQuery, id, at.UTC(), ipArg)
	if err != nil {
		return store.NewStoreError("user", "update_last_login", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}
