// Package mfa implementa la validación MFA fail-closed y el throttling con
// backoff exponencial.
//
// Estados por (usuario, tipo): UNREGISTERED -> PENDING -> ACTIVE, y vuelta a
// UNREGISTERED con DeleteMFA. El tipo NONE es un centinela "sin MFA" que nunca
// cuenta como evidencia válida ni como MFA activo.
package mfa

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/autherr"
	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/metrics"
	"github.com/dropDatabas3/olympus/internal/observability/logger"
	"go.uber.org/zap"
)

// Authenticator valida tokens de un tipo de MFA. Uno por tipo.
type Authenticator interface {
	IsValid(ctx context.Context, token, secret string) (bool, error)
	// TimeoutPeriod es el factor del backoff para este tipo.
	TimeoutPeriod() time.Duration
}

// SecretGenerator es opcional: los autenticadores que lo implementan pueden
// generar secretos nuevos para el esquema de password.
type SecretGenerator interface {
	GenerateSecret(username string) (string, error)
}

var (
	ErrUnknownType   = errors.New("mfa: no authenticator registered for type")
	ErrNoneType      = errors.New("mfa: NONE cannot be assigned a secret")
	// ErrAlreadyActive: un tipo ACTIVE sólo sale de ese estado con DeleteMFA.
	ErrAlreadyActive = errors.New("mfa: type already active")
)

// Deps agrupa las dependencias del servicio.
type Deps struct {
	Users          repository.UserRepository
	MFA            repository.MFARepository
	Throttle       repository.ThrottleRepository
	Authenticators map[string]Authenticator
	Metrics        metrics.Recorder
	Now            func() time.Time
}

// Service es el subsistema MFA. Seguro para uso concurrente: el estado
// compartido vive en los repositorios.
type Service struct {
	users    repository.UserRepository
	mfa      repository.MFARepository
	throttle *Throttle
	auths    map[string]Authenticator
	metrics  metrics.Recorder
}

// NewService crea el servicio. El mapa de autenticadores se copia.
func NewService(d Deps) *Service {
	auths := make(map[string]Authenticator, len(d.Authenticators))
	for k, v := range d.Authenticators {
		auths[k] = v
	}
	return &Service{
		users:    d.Users,
		mfa:      d.MFA,
		throttle: NewThrottle(d.Throttle, d.Now),
		auths:    auths,
		metrics:  metrics.OrNoop(d.Metrics),
	}
}

// Authenticator devuelve el autenticador registrado para mfaType.
func (s *Service) Authenticator(mfaType string) (Authenticator, bool) {
	a, ok := s.auths[mfaType]
	return a, ok
}

// Types devuelve los tipos registrados.
func (s *Service) Types() []string {
	out := make([]string, 0, len(s.auths))
	for k := range s.auths {
		out = append(out, k)
	}
	return out
}

func (s *Service) logger(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(logger.Layer("service"), logger.Op(op))
}

// failed loguea la falla del colaborador y la envuelve como OperationFailed.
func failed(log *zap.Logger, msg string, err error) error {
	log.Error(msg, logger.Err(err))
	return autherr.Operation(err)
}

// IsAnyMFAActive es true si algún tipo distinto de NONE está activado.
func (s *Service) IsAnyMFAActive(ctx context.Context, username string) (bool, error) {
	info, err := s.mfa.GetMFAInformation(ctx, username)
	if err != nil {
		return false, failed(s.logger(ctx, "mfa.is_active"), "get mfa information failed", err)
	}
	return anyActive(info), nil
}

func anyActive(info map[string]types.MFAInformation) bool {
	for t, rec := range info {
		if t != types.MFATypeNone && rec.Activated {
			return true
		}
	}
	return false
}

// ValidateMFAToken: false si el usuario no existe; true si no hay MFA activo
// (todo token "vale"); si no, ConservativeValidate.
func (s *Service) ValidateMFAToken(ctx context.Context, username, token, mfaType string) (bool, error) {
	log := s.logger(ctx, "mfa.validate")

	ok, err := s.users.HasUser(ctx, username)
	if err != nil {
		return false, failed(log, "has user failed", err)
	}
	if !ok {
		return false, nil
	}

	active, err := s.IsAnyMFAActive(ctx, username)
	if err != nil {
		return false, err
	}
	if !active {
		return true, nil
	}
	return s.ConservativeValidate(ctx, username, token, mfaType)
}

// ConservativeValidate sólo acepta un tipo registrado, con autenticador y
// ACTIVO. Un tipo PENDING nunca es evidencia válida aunque el token coincida.
// Si el backoff bloquea, el token no se consume.
func (s *Service) ConservativeValidate(ctx context.Context, username, token, mfaType string) (bool, error) {
	log := s.logger(ctx, "mfa.conservative_validate").With(logger.Username(username), logger.MFAType(mfaType))

	ok, err := s.users.HasUser(ctx, username)
	if err != nil {
		return false, failed(log, "has user failed", err)
	}
	if !ok {
		return false, nil
	}

	auth, registered := s.auths[mfaType]
	if !registered {
		return false, nil
	}
	info, err := s.mfa.GetMFAInformation(ctx, username)
	if err != nil {
		return false, failed(log, "get mfa information failed", err)
	}
	rec, ok := info[mfaType]
	if !ok || !rec.Activated {
		log.Debug("mfa type not active")
		return false, nil
	}

	return s.checkToken(ctx, log, username, token, rec, auth)
}

// checkToken aplica backoff y valida. Fallo incrementa, éxito limpia.
func (s *Service) checkToken(ctx context.Context, log *zap.Logger, username, token string, rec types.MFAInformation, auth Authenticator) (bool, error) {
	blocked, err := s.throttle.Blocked(ctx, username, types.AttemptMFA, auth.TimeoutPeriod())
	if err != nil {
		return false, failed(log, "read mfa throttle failed", err)
	}
	if blocked {
		log.Info("too many failed mfa attempts")
		s.metrics.ThrottleBlocked(string(types.AttemptMFA))
		return false, nil
	}

	valid, err := auth.IsValid(ctx, token, rec.Secret)
	if err != nil {
		return false, failed(log, "mfa authenticator failed", err)
	}
	s.metrics.MFAValidated(rec.Type, valid)

	if !valid {
		if err := s.throttle.Fail(ctx, username, types.AttemptMFA); err != nil {
			return false, failed(log, "record failed mfa attempt failed", err)
		}
		log.Info("mfa token rejected")
		return false, nil
	}
	if err := s.throttle.Clear(ctx, username, types.AttemptMFA); err != nil {
		return false, failed(log, "clear mfa attempts failed", err)
	}
	return true, nil
}

// ActivateMFA pasa un tipo PENDING a ACTIVE si el token es válido. Desde ese
// momento NONE queda superado y todo login exige MFA.
func (s *Service) ActivateMFA(ctx context.Context, username, token, mfaType string) (bool, error) {
	log := s.logger(ctx, "mfa.activate").With(logger.Username(username), logger.MFAType(mfaType))

	ok, err := s.users.HasUser(ctx, username)
	if err != nil {
		return false, failed(log, "has user failed", err)
	}
	if !ok {
		log.Info("no such user")
		return false, nil
	}

	auth, registered := s.auths[mfaType]
	if !registered {
		log.Info("no authenticator for mfa type")
		return false, nil
	}
	info, err := s.mfa.GetMFAInformation(ctx, username)
	if err != nil {
		return false, failed(log, "get mfa information failed", err)
	}
	rec, ok := info[mfaType]
	if !ok {
		log.Info("mfa type not registered for user")
		return false, nil
	}

	valid, err := s.checkToken(ctx, log, username, token, rec, auth)
	if err != nil || !valid {
		return false, err
	}
	if err := s.mfa.ActivateMFA(ctx, username, mfaType); err != nil {
		return false, failed(log, "activate mfa failed", err)
	}
	log.Info("mfa activated")
	return true, nil
}

// DeleteMFA exige probar posesión del MFA actual (ConservativeValidate).
func (s *Service) DeleteMFA(ctx context.Context, username, token, mfaType string) (bool, error) {
	log := s.logger(ctx, "mfa.delete").With(logger.Username(username), logger.MFAType(mfaType))

	ok, err := s.ConservativeValidate(ctx, username, token, mfaType)
	if err != nil || !ok {
		if err == nil {
			log.Info("could not validate mfa token")
		}
		return false, err
	}
	if err := s.mfa.DeleteMFA(ctx, username, mfaType); err != nil {
		return false, failed(log, "delete mfa failed", err)
	}
	if err := s.throttle.Clear(ctx, username, types.AttemptMFA); err != nil {
		return false, failed(log, "clear mfa attempts failed", err)
	}
	log.Info("mfa deleted")
	return true, nil
}

// AssignSecret deja el tipo en PENDING con secret. Rechaza NONE, tipos sin
// autenticador y tipos ya ACTIVE: re-enrolar exige DeleteMFA con un token
// válido antes.
func (s *Service) AssignSecret(ctx context.Context, username, mfaType, secret string) error {
	log := s.logger(ctx, "mfa.assign_secret").With(logger.Username(username), logger.MFAType(mfaType))

	if mfaType == types.MFATypeNone {
		return autherr.ErrOperationFailed.WithCause(ErrNoneType)
	}
	if _, ok := s.auths[mfaType]; !ok {
		return autherr.ErrOperationFailed.WithCause(ErrUnknownType)
	}
	ok, err := s.users.HasUser(ctx, username)
	if err != nil {
		return failed(log, "has user failed", err)
	}
	if !ok {
		return autherr.ErrOperationFailed.WithDetail("unknown user")
	}
	info, err := s.mfa.GetMFAInformation(ctx, username)
	if err != nil {
		return failed(log, "get mfa information failed", err)
	}
	if types.StateOf(info, mfaType) == types.MFAActive {
		log.Warn("secret requested for active mfa type")
		return autherr.ErrOperationFailed.WithDetail("mfa type already active").WithCause(ErrAlreadyActive)
	}
	if err := s.mfa.AssignMFASecret(ctx, username, mfaType, secret); err != nil {
		return failed(log, "assign mfa secret failed", err)
	}
	return nil
}

// GenerateSecret usa el SecretGenerator del autenticador de mfaType.
func (s *Service) GenerateSecret(username, mfaType string) (string, error) {
	if mfaType == types.MFATypeNone {
		return "", autherr.ErrOperationFailed.WithCause(ErrNoneType)
	}
	a, ok := s.auths[mfaType]
	if !ok {
		return "", autherr.ErrOperationFailed.WithCause(ErrUnknownType)
	}
	gen, ok := a.(SecretGenerator)
	if !ok {
		return "", autherr.ErrOperationFailed.WithDetail("authenticator cannot generate secrets")
	}
	secret, err := gen.GenerateSecret(username)
	if err != nil {
		return "", autherr.Operation(err)
	}
	return secret, nil
}
