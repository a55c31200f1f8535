package auth

import (
	"context"
	"strings"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/autherr"
	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/metrics"
	"github.com/dropDatabas3/olympus/internal/mfa"
	"github.com/dropDatabas3/olympus/internal/observability/logger"
	"github.com/dropDatabas3/olympus/internal/security/password"
	"github.com/dropDatabas3/olympus/internal/session"
)

// PasswordSchemeName identifica el esquema en logs y métricas.
const PasswordSchemeName = "password"

// PasswordDeps agrupa las dependencias de PasswordScheme.
type PasswordDeps struct {
	Users    repository.UserRepository
	Throttle repository.ThrottleRepository
	MFA      *mfa.Service
	Sessions *session.Authority
	Metrics  metrics.Recorder

	Params password.Params
	Rules  password.Rules
	// ThrottlePeriod es el factor del backoff de intentos de login.
	ThrottlePeriod time.Duration
	SessionTTL     time.Duration
	Now            func() time.Time
}

// PasswordScheme autentica contra un hash argon2id guardado localmente.
type PasswordScheme struct {
	users    repository.UserRepository
	throttle *mfa.Throttle
	mfa      *mfa.Service
	minter   sessionMinter
	metrics  metrics.Recorder
	params   password.Params
	rules    password.Rules
	period   time.Duration
	// decoy se verifica con usuarios inexistentes: ambos caminos pagan un argon2.
	decoy    string
}

const decoyPassword = "olympus-unknown-user"

var _ Scheme = (*PasswordScheme)(nil)
var _ CredentialChanger = (*PasswordScheme)(nil)

func NewPasswordScheme(d PasswordDeps) *PasswordScheme {
	params := d.Params
	if params.KeyLen == 0 {
		params = password.Default
	}
	period := d.ThrottlePeriod
	if period <= 0 {
		period = time.Second
	}
	// Hash sólo falla con plain vacío
	decoy, _ := password.Hash(params, decoyPassword)
	return &PasswordScheme{
		users:    d.Users,
		throttle: mfa.NewThrottle(d.Throttle, d.Now),
		mfa:      d.MFA,
		minter:   newSessionMinter(d.Sessions, d.SessionTTL, d.Now),
		metrics:  metrics.OrNoop(d.Metrics),
		params:   params,
		rules:    d.Rules,
		period:   period,
		decoy:    decoy,
	}
}

func (s *PasswordScheme) Name() string { return PasswordSchemeName }

func (s *PasswordScheme) Enroll(ctx context.Context, username, credential string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("password.enroll"), logger.Username(username))

	if reasons := s.rules.Check(credential); len(reasons) > 0 {
		return autherr.ErrOperationFailed.WithDetail("weak password: " + strings.Join(reasons, ",")).WithCause(password.ErrWeak)
	}
	hash, err := password.Hash(s.params, credential)
	if err != nil {
		return autherr.Operation(err)
	}
	if err := s.users.AddUser(ctx, username, hash); err != nil {
		if repository.IsConflict(err) {
			return autherr.ErrOperationFailed.WithDetail("user already exists").WithCause(err)
		}
		log.Error("add user failed", logger.Err(err))
		return autherr.Operation(err)
	}
	log.Info("user enrolled")
	return nil
}

// Authenticate aplica el backoff de intentos de login antes de verificar.
// Un bloqueo por backoff no cuenta como intento fallido.
func (s *PasswordScheme) Authenticate(ctx context.Context, username, credential string) (bool, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("password.authenticate"), logger.Username(username))

	hash, err := s.users.GetPasswordHash(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			_ = password.Verify(credential, s.decoy)
			return false, nil
		}
		log.Error("get password hash failed", logger.Err(err))
		return false, autherr.Operation(err)
	}

	blocked, err := s.throttle.Blocked(ctx, username, types.AttemptAuth, s.period)
	if err != nil {
		log.Error("read auth throttle failed", logger.Err(err))
		return false, autherr.Operation(err)
	}
	if blocked {
		log.Info("too many failed login attempts")
		s.metrics.ThrottleBlocked(string(types.AttemptAuth))
		return false, nil
	}

	if hash == "" || !password.Verify(credential, hash) {
		if err := s.throttle.Fail(ctx, username, types.AttemptAuth); err != nil {
			log.Error("record failed auth attempt failed", logger.Err(err))
			return false, autherr.Operation(err)
		}
		return false, nil
	}
	if err := s.throttle.Clear(ctx, username, types.AttemptAuth); err != nil {
		log.Error("clear auth attempts failed", logger.Err(err))
		return false, autherr.Operation(err)
	}
	return true, nil
}

// ChangeCredential exige la password actual.
func (s *PasswordScheme) ChangeCredential(ctx context.Context, username, oldCredential, newCredential string) error {
	ok, err := s.Authenticate(ctx, username, oldCredential)
	if err != nil {
		return err
	}
	if !ok {
		return autherr.ErrAuthenticationFailed.WithDetail("invalid credentials")
	}
	if reasons := s.rules.Check(newCredential); len(reasons) > 0 {
		return autherr.ErrOperationFailed.WithDetail("weak password: " + strings.Join(reasons, ",")).WithCause(password.ErrWeak)
	}
	hash, err := password.Hash(s.params, newCredential)
	if err != nil {
		return autherr.Operation(err)
	}
	if err := s.users.SetPasswordHash(ctx, username, hash); err != nil {
		logger.From(ctx).Error("set password hash failed", logger.Op("password.change"), logger.Err(err))
		return autherr.Operation(err)
	}
	return nil
}

// RequestMFASecret genera el secreto con el autenticador del tipo.
func (s *PasswordScheme) RequestMFASecret(ctx context.Context, username, mfaType string) (string, error) {
	secret, err := s.mfa.GenerateSecret(username, mfaType)
	if err != nil {
		return "", err
	}
	if err := s.mfa.AssignSecret(ctx, username, mfaType, secret); err != nil {
		return "", err
	}
	return secret, nil
}

func (s *PasswordScheme) GenerateSessionCookie(ctx context.Context, username string) (string, error) {
	return s.minter.mint(ctx, username)
}
