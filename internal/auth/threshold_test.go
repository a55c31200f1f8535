package auth

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/olympus/internal/domain/autherr"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/mfa"
	"github.com/dropDatabas3/olympus/internal/security/totp"
	"github.com/dropDatabas3/olympus/internal/session"
	"github.com/dropDatabas3/olympus/internal/store/memory"
)

func newThreshold(t *testing.T, key []byte, backend ThresholdBackend) (*ThresholdOPRFScheme, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := mfa.NewService(mfa.Deps{
		Users:          st,
		MFA:            st,
		Throttle:       st,
		Authenticators: map[string]mfa.Authenticator{totp.Type: totp.New("olympus", time.Second)},
	})
	s, err := NewThresholdOPRFScheme(ThresholdDeps{
		Users:        st,
		Throttle:     st,
		MFA:          svc,
		Sessions:     session.NewAuthority(session.Deps{Store: memory.NewSessions(0)}),
		Backend:      backend,
		SharedMFAKey: key,
	})
	require.NoError(t, err)
	return s, st
}

func sign(priv ed25519.PrivateKey, username string, at time.Time) string {
	salt := at.UnixMilli()
	sig := ed25519.Sign(priv, SignatureMessage(username, salt))
	return strconv.FormatInt(salt, 10) + "." + base64.StdEncoding.EncodeToString(sig)
}

func TestThresholdScheme_EnrollAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	backend := NewSignatureBackend(time.Minute)
	s, _ := newThreshold(t, []byte("shared"), backend)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	require.NoError(t, s.Enroll(ctx, "alice", base64.StdEncoding.EncodeToString(pub)))
	require.ErrorIs(t, s.Enroll(ctx, "alice", base64.StdEncoding.EncodeToString(pub)), autherr.ErrOperationFailed)

	ok, err := s.Authenticate(ctx, "alice", sign(priv, "alice", time.Now()))
	require.NoError(t, err)
	require.True(t, ok)

	// firma de otro usuario
	ok, err = s.Authenticate(ctx, "alice", sign(priv, "bob", time.Now()))
	require.NoError(t, err)
	require.False(t, ok)

	// salt fuera de ventana
	_, otherPriv, _ := ed25519.GenerateKey(rand.Reader)
	ok, _ = backend.Verify(ctx, "alice", []byte(sign(otherPriv, "alice", time.Now())))
	require.False(t, ok)
	ok, _ = backend.Verify(ctx, "alice", []byte(sign(priv, "alice", time.Now().Add(-time.Hour))))
	require.False(t, ok)

	cookie, err := s.GenerateSessionCookie(ctx, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, cookie)
}

func TestThresholdScheme_MFASecretIsDeterministicAcrossNodes(t *testing.T) {
	ctx := context.Background()
	nodeA, stA := newThreshold(t, []byte("cluster-key"), NewSignatureBackend(0))
	nodeB, stB := newThreshold(t, []byte("cluster-key"), NewSignatureBackend(0))
	require.NoError(t, stA.AddUser(ctx, "alice", ""))
	require.NoError(t, stB.AddUser(ctx, "alice", ""))

	a, err := nodeA.RequestMFASecret(ctx, "alice", totp.Type)
	require.NoError(t, err)
	b, err := nodeB.RequestMFASecret(ctx, "alice", totp.Type)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, 32)

	info, err := stA.GetMFAInformation(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, types.MFAPending, types.StateOf(info, totp.Type))

	_, err = nodeA.RequestMFASecret(ctx, "alice", types.MFATypeNone)
	require.ErrorIs(t, err, mfa.ErrNoneType)
}

func TestThresholdScheme_RequiresKey(t *testing.T) {
	_, err := NewThresholdOPRFScheme(ThresholdDeps{})
	require.ErrorIs(t, err, ErrNoSharedKey)
}
