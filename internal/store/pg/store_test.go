package pg

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/security/secretbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Requiere una base real: OLYMPUS_TEST_PG_DSN=postgres://...
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("OLYMPUS_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("OLYMPUS_TEST_PG_DSN not set")
	}
	box, err := secretbox.New("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	ctx := context.Background()
	s, err := New(ctx, dsn, Options{MaxOpenConns: 4, Box: box})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Migrate(ctx)
	require.NoError(t, err)
	return s
}

func TestStore_UserLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := "user-" + uuid.NewString()

	require.NoError(t, s.AddUser(ctx, u, "hash-1"))
	require.ErrorIs(t, s.AddUser(ctx, u, "hash-2"), repository.ErrConflict)

	ok, err := s.HasUser(ctx, u)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.SetPasswordHash(ctx, u, "hash-3"))
	h, err := s.GetPasswordHash(ctx, u)
	require.NoError(t, err)
	require.Equal(t, "hash-3", h)

	require.NoError(t, s.AddAttributes(ctx, u, map[string]types.Attribute{
		"Age":       types.NewInteger(25),
		"birthdate": types.NewDate(time.Date(2000, 5, 1, 0, 0, 0, 0, time.UTC)),
	}))
	attrs, err := s.GetAttributes(ctx, u)
	require.NoError(t, err)
	require.True(t, attrs["age"].Equal(types.NewInteger(25)))
	require.True(t, attrs["birthdate"].Equal(types.NewDate(time.Date(2000, 5, 1, 0, 0, 0, 0, time.UTC))))

	deleted, err := s.DeleteAttribute(ctx, u, "AGE")
	require.NoError(t, err)
	require.True(t, deleted)
	deleted, err = s.DeleteAttribute(ctx, u, "age")
	require.NoError(t, err)
	require.False(t, deleted)

	require.NoError(t, s.FailedAttempt(ctx, u, types.AttemptAuth, time.Now()))
	deleted, err = s.DeleteUser(ctx, u)
	require.NoError(t, err)
	require.True(t, deleted)

	c, err := s.GetThrottle(ctx, u, types.AttemptAuth)
	require.NoError(t, err)
	require.Zero(t, c.FailedAttempts)

	_, err = s.GetPasswordHash(ctx, u)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_MFASecretsAreSealed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := "mfa-" + uuid.NewString()
	require.NoError(t, s.AddUser(ctx, u, "h"))
	t.Cleanup(func() { _, _ = s.DeleteUser(ctx, u) })

	require.ErrorIs(t, s.ActivateMFA(ctx, u, "GOOGLE_AUTHENTICATOR"), repository.ErrNotFound)
	require.NoError(t, s.AssignMFASecret(ctx, u, "GOOGLE_AUTHENTICATOR", "JBSWY3DPEHPK3PXP"))

	var raw string
	require.NoError(t, s.Pool().QueryRow(ctx, `
		SELECT m.secret_encrypted FROM user_mfa m JOIN app_user u ON u.id = m.user_id
		WHERE u.username = $1`, u).Scan(&raw))
	require.NotEqual(t, "JBSWY3DPEHPK3PXP", raw)

	info, err := s.GetMFAInformation(ctx, u)
	require.NoError(t, err)
	require.Equal(t, types.MFAPending, types.StateOf(info, "GOOGLE_AUTHENTICATOR"))
	require.Equal(t, "JBSWY3DPEHPK3PXP", info["GOOGLE_AUTHENTICATOR"].Secret)

	require.NoError(t, s.ActivateMFA(ctx, u, "GOOGLE_AUTHENTICATOR"))
	info, err = s.GetMFAInformation(ctx, u)
	require.NoError(t, err)
	require.Equal(t, types.MFAActive, types.StateOf(info, "GOOGLE_AUTHENTICATOR"))

	require.NoError(t, s.DeleteMFA(ctx, u, "GOOGLE_AUTHENTICATOR"))
	info, err = s.GetMFAInformation(ctx, u)
	require.NoError(t, err)
	require.Empty(t, info)
}

func TestStore_ThrottleCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := "throttle-" + uuid.NewString()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.FailedAttempt(ctx, u, types.AttemptMFA, at))
	require.NoError(t, s.FailedAttempt(ctx, u, types.AttemptMFA, at.Add(time.Second)))

	c, err := s.GetThrottle(ctx, u, types.AttemptMFA)
	require.NoError(t, err)
	require.Equal(t, 2, c.FailedAttempts)
	require.True(t, c.LastAttempt.Equal(at.Add(time.Second)))

	other, err := s.GetThrottle(ctx, u, types.AttemptAuth)
	require.NoError(t, err)
	require.Zero(t, other.FailedAttempts)

	require.NoError(t, s.ClearFailedAttempts(ctx, u, types.AttemptMFA))
	c, err = s.GetThrottle(ctx, u, types.AttemptMFA)
	require.NoError(t, err)
	require.Zero(t, c.FailedAttempts)
}
