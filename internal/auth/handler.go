// Package auth orquesta el núcleo de autorización: políticas, MFA y sesiones
// detrás de un Scheme intercambiable (password o threshold OPRF).
//
// Toda falla de colaborador sale como autherr.ErrOperationFailed y se loguea
// una vez acá. Usuario inexistente se resuelve como false o denegado, nunca
// como un error que revele su existencia.
package auth

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dropDatabas3/olympus/internal/domain/autherr"
	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/jwt"
	"github.com/dropDatabas3/olympus/internal/metrics"
	"github.com/dropDatabas3/olympus/internal/mfa"
	"github.com/dropDatabas3/olympus/internal/observability/logger"
	"github.com/dropDatabas3/olympus/internal/policy"
	"github.com/dropDatabas3/olympus/internal/session"
)

// Deps agrupa las dependencias del Handler.
type Deps struct {
	Users      repository.UserRepository
	Attributes repository.AttributeRepository
	MFA        *mfa.Service
	Sessions   *session.Authority
	Scheme     Scheme
	Provers    []IdentityProver
	// Claims es opcional: sin issuer, Login no emite claim token.
	Claims  *jwt.Issuer
	Metrics metrics.Recorder
}

// Handler es el AuthenticationHandler.
type Handler struct {
	users    repository.UserRepository
	attrs    repository.AttributeRepository
	mfa      *mfa.Service
	sessions *session.Authority
	scheme   Scheme
	provers  []IdentityProver
	claims   *jwt.Issuer
	metrics  metrics.Recorder
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		users:    d.Users,
		attrs:    d.Attributes,
		mfa:      d.MFA,
		sessions: d.Sessions,
		scheme:   d.Scheme,
		provers:  append([]IdentityProver(nil), d.Provers...),
		claims:   d.Claims,
		metrics:  metrics.OrNoop(d.Metrics),
	}
}

func (h *Handler) log(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(logger.Layer("service"), logger.Op(op), logger.Scheme(h.scheme.Name()))
}

// Scheme devuelve el esquema configurado.
func (h *Handler) Scheme() Scheme { return h.scheme }

// MFA expone el servicio MFA (la capa HTTP lo usa para otpauth URLs).
func (h *Handler) MFA() *mfa.Service { return h.mfa }

// ─── Atributos y políticas ───

// AddAttributes prueba cada prover en orden y aplica el primero que acepta.
func (h *Handler) AddAttributes(ctx context.Context, username, proof string) error {
	log := h.log(ctx, "auth.add_attributes").With(logger.Username(username))

	exists, err := h.users.HasUser(ctx, username)
	if err != nil {
		log.Error("has user failed", logger.Err(err))
		return autherr.Operation(err)
	}
	if !exists {
		return autherr.ErrOperationFailed.WithDetail("user does not exist")
	}

	var proverErr error
	for _, p := range h.provers {
		ok, err := p.IsValid(ctx, proof, username)
		if err != nil {
			log.Warn("identity prover failed", logger.Err(err))
			if proverErr == nil {
				proverErr = err
			}
			continue
		}
		if !ok {
			continue
		}
		if err := p.AddAttributes(ctx, proof, username); err != nil {
			log.Error("identity prover could not add attributes", logger.Err(err))
			return autherr.Operation(err)
		}
		log.Info("attributes added")
		return nil
	}
	// la primera falla de un prover viaja como causa
	e := autherr.ErrOperationFailed.WithDetail("no identity prover accepted the proof")
	if proverErr != nil {
		return e.WithCause(proverErr)
	}
	return e
}

// ValidateAssertions evalúa pol contra los atributos actuales del usuario.
func (h *Handler) ValidateAssertions(ctx context.Context, username string, pol types.Policy) (types.Claims, error) {
	log := h.log(ctx, "auth.validate_assertions").With(logger.Username(username), logger.PolicyID(pol.PolicyID))

	attrs, err := h.attrs.GetAttributes(ctx, username)
	if err != nil {
		log.Error("get attributes failed", logger.Err(err))
		return nil, autherr.Operation(err)
	}
	claims, err := policy.Evaluate(attrs, pol)
	h.metrics.PolicyEvaluated(err == nil)
	if err != nil {
		log.Info("policy unfulfilled", logger.Err(err))
		return nil, err
	}
	return claims, nil
}

// GetAllAssertions devuelve todos los atributos guardados.
func (h *Handler) GetAllAssertions(ctx context.Context, username string) (map[string]types.Attribute, error) {
	attrs, err := h.attrs.GetAttributes(ctx, username)
	if err != nil {
		h.log(ctx, "auth.get_all_assertions").Error("get attributes failed", logger.Err(err))
		return nil, autherr.Operation(err)
	}
	return attrs, nil
}

// DeleteResult reporta el resultado por clave de DeleteAttributes.
type DeleteResult struct {
	Deleted []string `json:"deleted"`
	Failed  []string `json:"failed"`
}

// DeleteAttributes intenta borrar cada clave (normalizada) y reporta cuáles se
// borraron y cuáles no. Falla con OperationFailed si alguna no se pudo borrar;
// el resultado parcial se devuelve igual.
func (h *Handler) DeleteAttributes(ctx context.Context, username string, keys []string) (DeleteResult, error) {
	log := h.log(ctx, "auth.delete_attributes").With(logger.Username(username))

	res := DeleteResult{Deleted: []string{}, Failed: []string{}}
	var firstErr error
	for _, k := range keys {
		k = types.NormalizeKey(k)
		ok, err := h.attrs.DeleteAttribute(ctx, username, k)
		if err != nil {
			log.Error("delete attribute failed", logger.Key(k), logger.Err(err))
			if firstErr == nil {
				firstErr = err
			}
		}
		if ok {
			res.Deleted = append(res.Deleted, k)
		} else {
			res.Failed = append(res.Failed, k)
		}
	}
	if len(res.Failed) == 0 {
		return res, nil
	}
	e := autherr.ErrOperationFailed.WithDetail(fmt.Sprintf("could not delete: %s", strings.Join(res.Failed, ",")))
	if firstErr != nil {
		e = e.WithCause(firstErr)
	}
	return res, e
}

// DeleteAccount borra el usuario con todos sus datos. false si no existía.
func (h *Handler) DeleteAccount(ctx context.Context, username string) (bool, error) {
	ok, err := h.users.DeleteUser(ctx, username)
	if err != nil {
		h.log(ctx, "auth.delete_account").Error("delete user failed", logger.Username(username), logger.Err(err))
		return false, autherr.Operation(err)
	}
	return ok, nil
}

// ─── MFA ───

func (h *Handler) ValidateMFAToken(ctx context.Context, username, token, mfaType string) (bool, error) {
	return h.mfa.ValidateMFAToken(ctx, username, token, mfaType)
}

func (h *Handler) ActivateMFA(ctx context.Context, username, token, mfaType string) (bool, error) {
	return h.mfa.ActivateMFA(ctx, username, token, mfaType)
}

func (h *Handler) DeleteMFA(ctx context.Context, username, token, mfaType string) (bool, error) {
	return h.mfa.DeleteMFA(ctx, username, token, mfaType)
}

// RequestMFASecret delega en el esquema.
func (h *Handler) RequestMFASecret(ctx context.Context, username, mfaType string) (string, error) {
	return h.scheme.RequestMFASecret(ctx, username, mfaType)
}

// ─── Sesiones ───

// GenerateSessionCookie delega en el esquema.
func (h *Handler) GenerateSessionCookie(ctx context.Context, username string) (string, error) {
	return h.scheme.GenerateSessionCookie(ctx, username)
}

// StoreAuthorization asocia una cookie externa a auth (ej: sesiones
// replicadas desde otro nodo).
func (h *Handler) StoreAuthorization(ctx context.Context, cookie string, auth types.Authorization) error {
	return h.sessions.Store(ctx, cookie, auth)
}

func (h *Handler) RefreshCookie(ctx context.Context, cookie string) (string, error) {
	return h.sessions.Refresh(ctx, cookie)
}

func (h *Handler) ValidateSession(ctx context.Context, cookie string, roles ...types.Role) error {
	return h.sessions.Validate(ctx, cookie, roles...)
}

// Session valida y devuelve la autorización (la capa HTTP necesita el usuario).
func (h *Handler) Session(ctx context.Context, cookie string, roles ...types.Role) (types.Authorization, error) {
	return h.sessions.Authorization(ctx, cookie, roles...)
}

func (h *Handler) Logout(ctx context.Context, cookie string) error {
	return h.sessions.Revoke(ctx, cookie)
}
