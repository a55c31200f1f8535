package store

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/store/memory"
	"github.com/stretchr/testify/require"
)

func TestOpen_MemoryDefaults(t *testing.T) {
	s, err := Open(context.Background(), Config{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	require.IsType(t, &memory.Store{}, s.Store)
	require.IsType(t, &memory.Sessions{}, s.Sessions)
	require.Nil(t, s.Redis)
	require.Nil(t, s.Postgres)
}

func TestOpen_UnknownDrivers(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	require.ErrorContains(t, err, "unsupported storage driver")

	_, err = Open(context.Background(), Config{Sessions: SessionsConfig{Driver: "memcached"}})
	require.ErrorContains(t, err, "unsupported sessions driver")
}

func TestWithThrottle_DelegatesCountersAndCleansUp(t *testing.T) {
	ctx := context.Background()
	base := memory.New()
	counters := memory.New()
	var dropped []string
	s := WithThrottle(base, counters, func(_ context.Context, u string) error {
		dropped = append(dropped, u)
		return nil
	})

	require.NoError(t, s.AddUser(ctx, "alice", "h"))
	require.NoError(t, s.FailedAttempt(ctx, "alice", types.AttemptMFA, time.Now()))

	c, err := counters.GetThrottle(ctx, "alice", types.AttemptMFA)
	require.NoError(t, err)
	require.Equal(t, 1, c.FailedAttempts)
	c, err = base.GetThrottle(ctx, "alice", types.AttemptMFA)
	require.NoError(t, err)
	require.Zero(t, c.FailedAttempts)

	deleted, err := s.DeleteUser(ctx, "alice")
	require.NoError(t, err)
	require.True(t, deleted)
	require.Equal(t, []string{"alice"}, dropped)

	deleted, err = s.DeleteUser(ctx, "ghost")
	require.NoError(t, err)
	require.False(t, deleted)
	require.Len(t, dropped, 1)
}
