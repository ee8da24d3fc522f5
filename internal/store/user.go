package store

import (
	"context"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
)

// UserStore persists login principals.
type UserStore interface {
	// Create saves a user whose password has already been hashed.
	// Returns ErrUsernameExists on a username clash.
	Create(ctx context.Context, user *domain.User) error

	// GetByUsername returns ErrUserNotFound when no user matches.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// UpdateLastLogin stamps login metadata. Returns ErrUserNotFound if the
	// subject is unknown.
	UpdateLastLogin(ctx context.Context, ssuuid string, at time.Time, ip string) error
}
