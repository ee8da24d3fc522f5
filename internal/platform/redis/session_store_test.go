package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/scheduler-platform/scheduler-api/internal/platform/redis"
	"github.com/scheduler-platform/scheduler-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ttl time.Duration) (*redis.SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewSessionStore(client, ttl, nil), mr
}

func TestSessionStore_Lifecycle(t *testing.T) {
	s, mr := newStore(t, 5*time.Minute)
	ctx := context.Background()

	valid, err := s.IsValid(ctx, "u1", "tok")
	require.NoError(t, err)
	assert.False(t, valid, "absent session must be invalid")

	require.NoError(t, s.Store(ctx, "u1", "tok"))
	assert.True(t, mr.Exists("session:u1:tok"))
	assert.Equal(t, 5*time.Minute, mr.TTL("session:u1:tok"))

	valid, err = s.IsValid(ctx, "u1", "tok")
	require.NoError(t, err)
	assert.True(t, valid)

	// Sessions are per (subject, token).
	valid, err = s.IsValid(ctx, "u1", "other")
	require.NoError(t, err)
	assert.False(t, valid)

	require.NoError(t, s.Destroy(ctx, "u1", "tok"))
	assert.False(t, mr.Exists("session:u1:tok"))
	require.NoError(t, s.Destroy(ctx, "u1", "tok"), "destroying twice is not an error")
}

func TestSessionStore_RenewSlidesWindow(t *testing.T) {
	s, mr := newStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "u1", "tok"))
	mr.FastForward(50 * time.Second)
	assert.Equal(t, 10*time.Second, mr.TTL("session:u1:tok"))

	require.NoError(t, s.Renew(ctx, "u1", "tok"))
	assert.Equal(t, time.Minute, mr.TTL("session:u1:tok"))
}

func TestSessionStore_ExpiredSession(t *testing.T) {
	s, mr := newStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "u1", "tok"))
	mr.FastForward(2 * time.Minute)

	valid, err := s.IsValid(ctx, "u1", "tok")
	require.NoError(t, err)
	assert.False(t, valid)

	assert.ErrorIs(t, s.Renew(ctx, "u1", "tok"), store.ErrSessionNotFound)
}

func TestSessionStore_DefaultTTL(t *testing.T) {
	s, mr := newStore(t, 0)
	require.NoError(t, s.Store(context.Background(), "u1", "tok"))
	assert.Equal(t, redis.DefaultSessionTTL, mr.TTL("session:u1:tok"))
}

func TestSessionStore_BackendDown(t *testing.T) {
	s, mr := newStore(t, time.Minute)
	mr.Close()

	_, err := s.IsValid(context.Background(), "u1", "tok")
	assert.Error(t, err)

	err = s.Renew(context.Background(), "u1", "tok")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrSessionNotFound)
}
