package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// Sweeper removes idempotency records older than the retention window.
type Sweeper struct {
	records   store.IdempotencyStore
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewSweeper creates a sweeper. It does nothing until Run is called.
func NewSweeper(records store.IdempotencyStore, retention, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		records:   records,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		logger:    logger.With("component", "idempotency_sweeper"),
	}
}

// SweepOnce deletes every record created before now minus retention.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.records.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired idempotency records removed",
			"count", n,
			"cutoff", cutoff)
	}
	return n, nil
}

// Run sweeps on every interval tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("idempotency sweep failed", "error", err)
			}
		}
	}
}
