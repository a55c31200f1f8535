package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/autherr"
	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/metrics"
	"github.com/dropDatabas3/olympus/internal/mfa"
	"github.com/dropDatabas3/olympus/internal/observability/logger"
	"github.com/dropDatabas3/olympus/internal/security/totp"
	"github.com/dropDatabas3/olympus/internal/session"
)

// ThresholdSchemeName identifica el esquema en logs y métricas.
const ThresholdSchemeName = "threshold-oprf"

// ThresholdBackend es el colaborador criptográfico del esquema threshold
// (evaluación OPRF y verificación de la prueba de posesión). Ningún nodo ve la
// password: sólo material derivado.
type ThresholdBackend interface {
	// FinishRegistration registra el material público del usuario.
	FinishRegistration(ctx context.Context, username string, credential []byte) error
	// Verify comprueba la prueba de posesión producida por el cliente.
	Verify(ctx context.Context, username string, proof []byte) (bool, error)
}

// ThresholdDeps agrupa las dependencias de ThresholdOPRFScheme.
type ThresholdDeps struct {
	Users    repository.UserRepository
	Throttle repository.ThrottleRepository
	MFA      *mfa.Service
	Sessions *session.Authority
	Backend  ThresholdBackend
	Metrics  metrics.Recorder

	// SharedMFAKey es común a todos los nodos: todos derivan el mismo secreto.
	SharedMFAKey   []byte
	ThrottlePeriod time.Duration
	SessionTTL     time.Duration
	Now            func() time.Time
}

// ThresholdOPRFScheme delega la autenticación en el backend threshold.
type ThresholdOPRFScheme struct {
	users    repository.UserRepository
	throttle *mfa.Throttle
	mfa      *mfa.Service
	backend  ThresholdBackend
	minter   sessionMinter
	metrics  metrics.Recorder
	key      []byte
	period   time.Duration
}

var _ Scheme = (*ThresholdOPRFScheme)(nil)

var ErrNoSharedKey = errors.New("auth: threshold scheme requires a shared mfa key")

func NewThresholdOPRFScheme(d ThresholdDeps) (*ThresholdOPRFScheme, error) {
	if len(d.SharedMFAKey) == 0 {
		return nil, ErrNoSharedKey
	}
	period := d.ThrottlePeriod
	if period <= 0 {
		period = time.Second
	}
	return &ThresholdOPRFScheme{
		users:    d.Users,
		throttle: mfa.NewThrottle(d.Throttle, d.Now),
		mfa:      d.MFA,
		backend:  d.Backend,
		minter:   newSessionMinter(d.Sessions, d.SessionTTL, d.Now),
		metrics:  metrics.OrNoop(d.Metrics),
		key:      append([]byte(nil), d.SharedMFAKey...),
		period:   period,
	}, nil
}

func (s *ThresholdOPRFScheme) Name() string { return ThresholdSchemeName }

// Enroll registra en el backend y crea el usuario sin credencial local.
func (s *ThresholdOPRFScheme) Enroll(ctx context.Context, username, credential string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("threshold.enroll"), logger.Username(username))

	exists, err := s.users.HasUser(ctx, username)
	if err != nil {
		log.Error("has user failed", logger.Err(err))
		return autherr.Operation(err)
	}
	if exists {
		return autherr.ErrOperationFailed.WithDetail("user already exists").WithCause(repository.ErrConflict)
	}
	if err := s.backend.FinishRegistration(ctx, username, []byte(credential)); err != nil {
		log.Error("threshold registration failed", logger.Err(err))
		return autherr.Operation(err)
	}
	if err := s.users.AddUser(ctx, username, ""); err != nil {
		log.Error("add user failed", logger.Err(err))
		return autherr.Operation(err)
	}
	return nil
}

func (s *ThresholdOPRFScheme) Authenticate(ctx context.Context, username, credential string) (bool, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("threshold.authenticate"), logger.Username(username))

	exists, err := s.users.HasUser(ctx, username)
	if err != nil {
		log.Error("has user failed", logger.Err(err))
		return false, autherr.Operation(err)
	}
	if !exists {
		return false, nil
	}

	blocked, err := s.throttle.Blocked(ctx, username, types.AttemptAuth, s.period)
	if err != nil {
		log.Error("read auth throttle failed", logger.Err(err))
		return false, autherr.Operation(err)
	}
	if blocked {
		s.metrics.ThrottleBlocked(string(types.AttemptAuth))
		return false, nil
	}

	ok, err := s.backend.Verify(ctx, username, []byte(credential))
	if err != nil {
		log.Error("threshold verify failed", logger.Err(err))
		return false, autherr.Operation(err)
	}
	if !ok {
		if err := s.throttle.Fail(ctx, username, types.AttemptAuth); err != nil {
			return false, autherr.Operation(err)
		}
		return false, nil
	}
	if err := s.throttle.Clear(ctx, username, types.AttemptAuth); err != nil {
		return false, autherr.Operation(err)
	}
	return true, nil
}

// RequestMFASecret deriva el secreto con HMAC-SHA256(key, username|type) para
// que todos los nodos asignen el mismo valor sin coordinarse.
func (s *ThresholdOPRFScheme) RequestMFASecret(ctx context.Context, username, mfaType string) (string, error) {
	if mfaType == types.MFATypeNone {
		return "", autherr.ErrOperationFailed.WithCause(mfa.ErrNoneType)
	}
	secret := s.deriveSecret(username, mfaType)
	if err := s.mfa.AssignSecret(ctx, username, mfaType, secret); err != nil {
		return "", err
	}
	return secret, nil
}

// deriveSecret no lleva nonce: tras DeleteMFA el mismo usuario recibe el mismo
// secreto. Rotarlo exige cambiar threshold.shared_mfa_key en todos los nodos.
func (s *ThresholdOPRFScheme) deriveSecret(username, mfaType string) string {
	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(username))
	m.Write([]byte{'|'})
	m.Write([]byte(mfaType))
	// 20 bytes: tamaño estándar de secreto TOTP
	return totp.EncodeSecret(m.Sum(nil)[:20])
}

func (s *ThresholdOPRFScheme) GenerateSessionCookie(ctx context.Context, username string) (string, error) {
	return s.minter.mint(ctx, username)
}
