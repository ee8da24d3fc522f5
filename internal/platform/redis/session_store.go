// Package redis implements store.SessionStore on Redis keys with a TTL.
// A session exists exactly while its key does.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
	"github.com/scheduler-platform/scheduler-api/internal/store"
)

// DefaultSessionTTL is the sliding session window.
const DefaultSessionTTL = 5 * time.Minute

const sessionValue = "1"

// SessionStore implements store.SessionStore.
type SessionStore struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

var _ store.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a session store. The caller owns the client.
// A non-positive ttl falls back to DefaultSessionTTL.
func NewSessionStore(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *SessionStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

func sessionKey(subjectID, token string) string {
	return "session:" + subjectID + ":" + token
}

// Store implements store.SessionStore.Store.
func (s *SessionStore) Store(ctx context.Context, subjectID, token string) error {
	if err := s.client.Set(ctx, sessionKey(subjectID, token), sessionValue, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Debug("session stored",
		slog.String("subject", subjectID),
		slog.Duration("ttl", s.ttl))
	return nil
}

// IsValid implements store.SessionStore.IsValid. A key without an expiry
// is treated as invalid, since every session is written with one.
func (s *SessionStore) IsValid(ctx context.Context, subjectID, token string) (bool, error) {
	ttl, err := s.client.TTL(ctx, sessionKey(subjectID, token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read session ttl: %w", err)
	}
	return ttl > 0, nil
}

// Renew implements store.SessionStore.Renew.
func (s *SessionStore) Renew(ctx context.Context, subjectID, token string) error {
	ok, err := s.client.Expire(ctx, sessionKey(subjectID, token), s.ttl).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.ErrSessionNotFound
		}
		return fmt.Errorf("failed to renew session: %w", err)
	}
	if !ok {
		return store.ErrSessionNotFound
	}
	return nil
}

// Destroy implements store.SessionStore.Destroy.
func (s *SessionStore) Destroy(ctx context.Context, subjectID, token string) error {
	if err := s.client.Del(ctx, sessionKey(subjectID, token)).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
