package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/domain"
	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
	"github.com/scheduler-platform/scheduler-api/internal/store"
)

const (
	findIdempotencyRecordQuery = `
		SELECT request_id, owner_id, method, path, request_body, response_body, status_code, created_at
		FROM idempotency_records
		WHERE request_id = $1`

	insertIdempotencyRecordQuery = `
		INSERT INTO idempotency_records
			(request_id, owner_id, method, path, request_body, response_body, status_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	deleteIdempotencyRecordsQuery = `DELETE FROM idempotency_records WHERE created_at < $1`
)

// PostgresIdempotencyStore implements store.IdempotencyStore.
type PostgresIdempotencyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresIdempotencyStore creates an idempotency store. If logger is
// nil, slog.Default() is used.
func NewPostgresIdempotencyStore(db store.DBTX, logger *slog.Logger) *PostgresIdempotencyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresIdempotencyStore{
		db:     db,
		logger: logger.With(slog.String("component", "idempotency_store")),
	}
}

var _ store.IdempotencyStore = (*PostgresIdempotencyStore)(nil)

// FindByRequestID implements store.IdempotencyStore.FindByRequestID.
func (s *PostgresIdempotencyStore) FindByRequestID(
	ctx context.Context,
	requestID string,
) (*domain.IdempotencyRecord, error) {
	var rec domain.IdempotencyRecord
	err := s.db.QueryRowContext(ctx, findIdempotencyRecordQuery, requestID).Scan(
		&rec.RequestID,
		&rec.OwnerID,
		&rec.Method,
		&rec.Path,
		&rec.RequestBody,
		&rec.ResponseBody,
		&rec.StatusCode,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, store.NewStoreError("idempotency_record", "find", "query failed", MapError(err))
	}
	return &rec, nil
}

// Create implements store.IdempotencyStore.Create.
func (s *PostgresIdempotencyStore) Create(ctx context.Context, record *domain.IdempotencyRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, insertIdempotencyRecordQuery,
		record.RequestID,
		record.OwnerID,
		record.Method,
		record.Path,
		record.RequestBody,
		record.ResponseBody,
		record.StatusCode,
		createdAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: request id %s", store.ErrDuplicate, record.RequestID)
		}
		log.Error("failed to store idempotency record",
			slog.String("error", err.Error()),
			slog.String("request_id", record.RequestID))
		return store.NewStoreError("idempotency_record", "create", "insert failed", MapError(err))
	}
	return nil
}

// DeleteOlderThan implements store.IdempotencyStore.DeleteOlderThan.
func (s *PostgresIdempotencyStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, deleteIdempotencyRecordsQuery, cutoff.UTC())
	if err != nil {
		return 0, store.NewStoreError("idempotency_record", "delete_older_than", "delete failed", MapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
