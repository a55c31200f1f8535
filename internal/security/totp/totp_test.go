package totp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuthenticator_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	a := New("olympus", 30*time.Second, WithClock(func() time.Time { return now }))

	secret, err := a.GenerateSecret("alice")
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	code, err := a.Code(secret)
	require.NoError(t, err)

	ok, err := a.IsValid(context.Background(), code, secret)
	require.NoError(t, err)
	require.True(t, ok)

	ok, _ = a.IsValid(context.Background(), "000000x", secret)
	require.False(t, ok)
	ok, _ = a.IsValid(context.Background(), code, "")
	require.False(t, ok)

	require.Equal(t, 30*time.Second, a.TimeoutPeriod())
}

func TestAuthenticator_SkewWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	gen := New("olympus", time.Second, WithClock(func() time.Time { return now }))
	secret, err := gen.GenerateSecret("bob")
	require.NoError(t, err)
	code, err := gen.Code(secret)
	require.NoError(t, err)

	later := New("olympus", time.Second, WithSkew(1), WithClock(func() time.Time { return now.Add(30 * time.Second) }))
	ok, _ := later.IsValid(context.Background(), code, secret)
	require.True(t, ok)

	muchLater := New("olympus", time.Second, WithClock(func() time.Time { return now.Add(5 * time.Minute) }))
	ok, _ = muchLater.IsValid(context.Background(), code, secret)
	require.False(t, ok)
}

func TestOTPAuthURL(t *testing.T) {
	a := New("olympus", time.Second)
	secret := EncodeSecret([]byte("12345678901234567890"))
	u, err := a.OTPAuthURL("alice", secret)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u, "otpauth://totp/"))
	require.Contains(t, u, "secret="+secret)
	require.Contains(t, u, "issuer=olympus")
}

func TestDummy(t *testing.T) {
	d := Dummy{Timeout: time.Second}
	ok, _ := d.IsValid(context.Background(), "x", "x")
	require.True(t, ok)
	ok, _ = d.IsValid(context.Background(), "", "")
	require.False(t, ok)
}
