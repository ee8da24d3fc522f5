package store

import (
	"context"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
)

// APILogStore is the audit sink. Writes are best-effort.
type APILogStore interface {
	Log(ctx context.Context, entry *domain.APILog) error
}
