package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("OLYMPUS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("OLYMPUS_TEST_REDIS_ADDR not set")
	}
	s, err := New(context.Background(), Options{Addr: addr, Prefix: "test:" + uuid.NewString() + ":", Grace: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	auth := types.Authorization{Username: "alice", Roles: []types.Role{types.RoleUser}, Expiration: time.Now().Add(time.Hour).Truncate(time.Second)}
	require.NoError(t, s.StoreCookie(ctx, "cookie-1", auth))

	got, err := s.LookupCookie(ctx, "cookie-1")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
	require.True(t, got.Expiration.Equal(auth.Expiration))

	require.NoError(t, s.DeleteCookie(ctx, "cookie-1"))
	_, err = s.LookupCookie(ctx, "cookie-1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestThrottle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.UnixMilli(1_700_000_000_123)

	c, err := s.GetThrottle(ctx, "alice", types.AttemptMFA)
	require.NoError(t, err)
	require.Zero(t, c.FailedAttempts)

	require.NoError(t, s.FailedAttempt(ctx, "alice", types.AttemptMFA, at))
	require.NoError(t, s.FailedAttempt(ctx, "alice", types.AttemptMFA, at))

	c, err = s.GetThrottle(ctx, "alice", types.AttemptMFA)
	require.NoError(t, err)
	require.Equal(t, 2, c.FailedAttempts)
	require.True(t, c.LastAttempt.Equal(at))

	c, _ = s.GetThrottle(ctx, "alice", types.AttemptAuth)
	require.Zero(t, c.FailedAttempts)

	require.NoError(t, s.ClearFailedAttempts(ctx, "alice", types.AttemptMFA))
	c, _ = s.GetThrottle(ctx, "alice", types.AttemptMFA)
	require.Zero(t, c.FailedAttempts)
}
