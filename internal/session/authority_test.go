package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/olympus/internal/domain/autherr"
	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/store/memory"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newAuthority(now *time.Time) (*Authority, *memory.Sessions) {
	clock := func() time.Time { return *now }
	st := memory.NewSessions(time.Hour).WithClock(clock)
	return NewAuthority(Deps{Store: st, Now: clock}), st
}

func userAuth(exp time.Time) types.Authorization {
	return types.Authorization{Username: "alice", Roles: []types.Role{types.RoleUser}, Expiration: exp}
}

func TestIssueAndValidate(t *testing.T) {
	now := t0
	a, _ := newAuthority(&now)
	ctx := context.Background()

	cookie, err := a.Issue(ctx, userAuth(t0.Add(time.Hour)))
	require.NoError(t, err)
	require.Len(t, cookie, 86) // 64 bytes base64url sin padding

	require.NoError(t, a.Validate(ctx, cookie, types.RoleUser))
	// OR: alcanza con uno
	require.NoError(t, a.Validate(ctx, cookie, types.RoleAdmin, types.RoleUser))

	err = a.Validate(ctx, cookie, types.RoleAdmin)
	require.ErrorIs(t, err, autherr.ErrAuthenticationFailed)

	err = a.Validate(ctx, "nope", types.RoleUser)
	require.ErrorIs(t, err, autherr.ErrAuthenticationFailed)
}

func TestValidate_ExpiredEvenIfPresent(t *testing.T) {
	now := t0
	a, st := newAuthority(&now)
	ctx := context.Background()

	cookie, err := a.Issue(ctx, userAuth(t0.Add(time.Minute)))
	require.NoError(t, err)

	now = t0.Add(2 * time.Minute)
	_, err = st.LookupCookie(ctx, cookie)
	require.NoError(t, err, "entry still physically present")

	err = a.Validate(ctx, cookie, types.RoleUser)
	require.ErrorIs(t, err, autherr.ErrAuthenticationFailed)

	// expiración == now todavía es válida
	now = t0.Add(time.Minute)
	require.NoError(t, a.Validate(ctx, cookie, types.RoleUser))
}

func TestRefresh_RotatesWithoutExtending(t *testing.T) {
	now := t0
	a, st := newAuthority(&now)
	ctx := context.Background()
	exp := t0.Add(time.Hour)

	old, err := a.Issue(ctx, userAuth(exp))
	require.NoError(t, err)

	now = t0.Add(30 * time.Minute)
	fresh, err := a.Refresh(ctx, old)
	require.NoError(t, err)
	require.NotEqual(t, old, fresh)

	got, err := st.LookupCookie(ctx, fresh)
	require.NoError(t, err)
	require.True(t, got.Expiration.Equal(exp))

	_, err = st.LookupCookie(ctx, old)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRefresh_UnknownCookieIsNoop(t *testing.T) {
	now := t0
	a, _ := newAuthority(&now)

	got, err := a.Refresh(context.Background(), "unknown-cookie")
	require.NoError(t, err)
	require.Equal(t, "unknown-cookie", got)
}

// failingDelete envuelve un store y falla en DeleteCookie.
type failingDelete struct {
	repository.SessionRepository
}

func (failingDelete) DeleteCookie(context.Context, string) error {
	return errors.New("redis: connection refused")
}

func TestRefresh_DeleteFailureIsSwallowed(t *testing.T) {
	clock := func() time.Time { return t0 }
	st := memory.NewSessions(time.Hour).WithClock(clock)
	a := NewAuthority(Deps{Store: failingDelete{st}, Now: clock})
	ctx := context.Background()

	old, err := a.Issue(ctx, userAuth(t0.Add(time.Hour)))
	require.NoError(t, err)

	fresh, err := a.Refresh(ctx, old)
	require.NoError(t, err)
	require.NotEqual(t, old, fresh)
	require.NoError(t, a.Validate(ctx, fresh, types.RoleUser))
}

type brokenRandom struct{}

func (brokenRandom) Bytes(int) ([]byte, error) { return nil, errors.New("no entropy") }

func TestIssue_RandomFailureIsOperationFailed(t *testing.T) {
	a := NewAuthority(Deps{Store: memory.NewSessions(0), Random: brokenRandom{}})
	_, err := a.Issue(context.Background(), userAuth(time.Now().Add(time.Hour)))
	require.ErrorIs(t, err, autherr.ErrOperationFailed)
}
