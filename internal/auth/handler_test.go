package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/olympus/internal/domain/autherr"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/jwt"
	"github.com/dropDatabas3/olympus/internal/mfa"
	"github.com/dropDatabas3/olympus/internal/security/password"
	"github.com/dropDatabas3/olympus/internal/security/totp"
	"github.com/dropDatabas3/olympus/internal/session"
	"github.com/dropDatabas3/olympus/internal/store/memory"
)

var fastParams = password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}

// mapProver acepta sólo el proof "valid" y agrega attrs.
type mapProver struct {
	store *memory.Store
	attrs map[string]types.Attribute
	err   error
}

func (p *mapProver) IsValid(_ context.Context, proof, _ string) (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	return proof == "valid", nil
}

func (p *mapProver) AddAttributes(ctx context.Context, _, username string) error {
	return p.store.AddAttributes(ctx, username, p.attrs)
}

type env struct {
	h      *Handler
	store  *memory.Store
	sess   *memory.Sessions
	keys   *jwt.KeySet
	now    time.Time
	prover *mapProver
}

func (e *env) clock() time.Time { return e.now }

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	e.store = memory.New()
	e.sess = memory.NewSessions(time.Minute).WithClock(e.clock)

	svc := mfa.NewService(mfa.Deps{
		Users:          e.store,
		MFA:            e.store,
		Throttle:       e.store,
		Authenticators: map[string]mfa.Authenticator{totp.DummyType: totp.Dummy{Timeout: time.Second}},
		Now:            e.clock,
	})
	authority := session.NewAuthority(session.Deps{Store: e.sess, Now: e.clock})
	scheme := NewPasswordScheme(PasswordDeps{
		Users:          e.store,
		Throttle:       e.store,
		MFA:            svc,
		Sessions:       authority,
		Params:         fastParams,
		Rules:          password.Rules{MinLength: 8},
		ThrottlePeriod: time.Second,
		SessionTTL:     time.Hour,
		Now:            e.clock,
	})

	keys, err := jwt.NewEd25519()
	require.NoError(t, err)
	e.keys = keys

	e.prover = &mapProver{store: e.store, attrs: map[string]types.Attribute{"age": types.NewInteger(25)}}
	e.h = NewHandler(Deps{
		Users:      e.store,
		Attributes: e.store,
		MFA:        svc,
		Sessions:   authority,
		Scheme:     scheme,
		Provers:    []IdentityProver{e.prover},
		Claims:     jwt.NewIssuer("olympus-test", keys, time.Minute),
	})
	return e
}

func agePolicy(min int64) *types.Policy {
	return &types.Policy{
		PolicyID: "nonce-1",
		Predicates: []types.Predicate{
			{AttributeName: "age", Operation: types.OpGreaterThanOrEqual, Value: types.NewInteger(min)},
		},
	}
}

func TestLogin_EndToEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.h.Enroll(ctx, "alice", "correct-horse", "valid"))

	res, err := e.h.Login(ctx, LoginRequest{Username: "alice", Credential: "correct-horse", Policy: agePolicy(18)})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"ageGT18": true}, res.Claims.Values())
	require.NotEmpty(t, res.Cookie)
	require.NoError(t, e.h.ValidateSession(ctx, res.Cookie, types.RoleUser))

	claims, err := jwt.ParseEdDSA(res.ClaimToken, e.keys.Pub, "olympus-test")
	require.NoError(t, err)
	require.Equal(t, "nonce-1", claims["nonce"])
	require.Equal(t, map[string]any{"ageGT18": true}, claims["claims"])

	_, err = e.h.Login(ctx, LoginRequest{Username: "alice", Credential: "correct-horse", Policy: agePolicy(30)})
	require.ErrorIs(t, err, autherr.ErrPolicyUnfulfilled)
	require.Equal(t, 1, e.sess.Len(), "no session minted on policy failure")
}

func TestLogin_BadCredentialsAndBackoff(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.h.Enroll(ctx, "alice", "correct-horse", ""))

	_, err := e.h.Login(ctx, LoginRequest{Username: "alice", Credential: "nope"})
	require.ErrorIs(t, err, autherr.ErrAuthenticationFailed)

	// bloqueado por 1s aun con la password correcta
	_, err = e.h.Login(ctx, LoginRequest{Username: "alice", Credential: "correct-horse"})
	require.ErrorIs(t, err, autherr.ErrAuthenticationFailed)

	e.now = e.now.Add(time.Second)
	_, err = e.h.Login(ctx, LoginRequest{Username: "alice", Credential: "correct-horse"})
	require.NoError(t, err)

	_, err = e.h.Login(ctx, LoginRequest{Username: "ghost", Credential: "whatever"})
	require.ErrorIs(t, err, autherr.ErrAuthenticationFailed)
}

func TestPasswordScheme_UnknownUserVerifiesDecoy(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.h.Scheme().(*PasswordScheme)

	// el decoy es un PHC real con los mismos parámetros que los usuarios
	require.True(t, strings.HasPrefix(s.decoy, "$argon2id$v=19$m=1024,t=1,p=1$"), s.decoy)
	require.True(t, password.Verify(decoyPassword, s.decoy))

	ok, err := s.Authenticate(ctx, "ghost", decoyPassword)
	require.NoError(t, err)
	require.False(t, ok)

	c, err := e.store.GetThrottle(ctx, "ghost", types.AttemptAuth)
	require.NoError(t, err)
	require.Zero(t, c.FailedAttempts)
}

func TestLogin_MFAFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.h.Enroll(ctx, "alice", "correct-horse", ""))

	secret, err := e.h.RequestMFASecret(ctx, "alice", totp.DummyType)
	require.NoError(t, err)

	// PENDING: el login sigue sin exigir MFA
	_, err = e.h.Login(ctx, LoginRequest{Username: "alice", Credential: "correct-horse"})
	require.NoError(t, err)

	ok, err := e.h.ActivateMFA(ctx, "alice", secret, totp.DummyType)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = e.h.Login(ctx, LoginRequest{Username: "alice", Credential: "correct-horse"})
	require.ErrorIs(t, err, autherr.ErrAuthenticationFailed)

	e.now = e.now.Add(time.Second)
	_, err = e.h.Login(ctx, LoginRequest{Username: "alice", Credential: "correct-horse", MFAToken: secret, MFAType: totp.DummyType})
	require.NoError(t, err)

	_, err = e.h.RequestMFASecret(ctx, "alice", types.MFATypeNone)
	require.ErrorIs(t, err, autherr.ErrOperationFailed)
}

func TestAddAttributes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	err := e.h.AddAttributes(ctx, "ghost", "valid")
	require.ErrorIs(t, err, autherr.ErrOperationFailed)

	require.NoError(t, e.h.Enroll(ctx, "alice", "correct-horse", ""))
	err = e.h.AddAttributes(ctx, "alice", "forged")
	require.ErrorIs(t, err, autherr.ErrOperationFailed)

	// un prover que falla no impide que el siguiente acepte
	broken := &mapProver{err: errors.New("remote down")}
	e.h.provers = []IdentityProver{broken, e.prover}
	require.NoError(t, e.h.AddAttributes(ctx, "alice", "valid"))

	attrs, err := e.h.GetAllAssertions(ctx, "alice")
	require.NoError(t, err)
	require.Contains(t, attrs, "age")
}

func TestAddAttributes_ProverFailureIsTheCause(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.h.Enroll(ctx, "alice", "correct-horse", ""))

	down := errors.New("remote down")
	e.h.provers = []IdentityProver{&mapProver{err: down}, &mapProver{err: errors.New("second")}, e.prover}

	err := e.h.AddAttributes(ctx, "alice", "forged")
	require.ErrorIs(t, err, autherr.ErrOperationFailed)
	require.ErrorIs(t, err, down)
	require.NotContains(t, err.Error(), "second")
}

func TestDeleteAttributes_PartialResult(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.h.Enroll(ctx, "alice", "correct-horse", ""))
	require.NoError(t, e.store.AddAttributes(ctx, "alice", map[string]types.Attribute{
		"name": types.NewString("Alice"),
		"age":  types.NewInteger(25),
	}))

	res, err := e.h.DeleteAttributes(ctx, "alice", []string{"NAME", "missing"})
	require.ErrorIs(t, err, autherr.ErrOperationFailed)
	require.Equal(t, []string{"name"}, res.Deleted)
	require.Equal(t, []string{"missing"}, res.Failed)

	res, err = e.h.DeleteAttributes(ctx, "alice", []string{"age"})
	require.NoError(t, err)
	require.Equal(t, []string{"age"}, res.Deleted)
	require.Empty(t, res.Failed)
}

func TestDeleteAccount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.h.Enroll(ctx, "alice", "correct-horse", ""))

	ok, err := e.h.DeleteAccount(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = e.h.DeleteAccount(ctx, "alice")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEnroll_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.ErrorIs(t, e.h.Enroll(ctx, "alice", "short", ""), autherr.ErrOperationFailed)
	require.NoError(t, e.h.Enroll(ctx, "alice", "correct-horse", ""))
	require.ErrorIs(t, e.h.Enroll(ctx, "alice", "correct-horse", ""), autherr.ErrOperationFailed)
}

func TestChangeCredential(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.h.Enroll(ctx, "alice", "correct-horse", ""))

	err := e.h.ChangeCredential(ctx, "alice", "wrong-horse", "battery-staple")
	require.ErrorIs(t, err, autherr.ErrAuthenticationFailed)

	e.now = e.now.Add(time.Second)
	require.NoError(t, e.h.ChangeCredential(ctx, "alice", "correct-horse", "battery-staple"))

	_, err = e.h.Login(ctx, LoginRequest{Username: "alice", Credential: "battery-staple"})
	require.NoError(t, err)
}

func TestSessionSurface(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	auth := types.Authorization{Username: "svc", Roles: []types.Role{types.RoleServer}, Expiration: e.now.Add(time.Hour)}
	require.NoError(t, e.h.StoreAuthorization(ctx, "external-cookie", auth))
	require.NoError(t, e.h.ValidateSession(ctx, "external-cookie", types.RoleServer))
	require.ErrorIs(t, e.h.ValidateSession(ctx, "external-cookie", types.RoleUser), autherr.ErrAuthenticationFailed)

	fresh, err := e.h.RefreshCookie(ctx, "external-cookie")
	require.NoError(t, err)
	require.NotEqual(t, "external-cookie", fresh)

	got, err := e.h.Session(ctx, fresh, types.RoleServer)
	require.NoError(t, err)
	require.Equal(t, "svc", got.Username)
	require.True(t, got.Expiration.Equal(auth.Expiration))

	require.NoError(t, e.h.Logout(ctx, fresh))
	require.ErrorIs(t, e.h.ValidateSession(ctx, fresh, types.RoleServer), autherr.ErrAuthenticationFailed)
}
