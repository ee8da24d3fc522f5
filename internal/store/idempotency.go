package store

import (
	"context"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
)

// IdempotencyStore caches responses of mutating requests by request id.
type IdempotencyStore interface {
	// FindByRequestID returns the record for requestID or (nil, nil).
	FindByRequestID(ctx context.Context, requestID string) (*domain.IdempotencyRecord, error)

	// Create inserts a record. Returns ErrDuplicate if the request id is
	// already recorded; callers on the best-effort path ignore it.
	Create(ctx context.Context, record *domain.IdempotencyRecord) error

	// DeleteOlderThan removes records created before cutoff and reports how
	// many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
