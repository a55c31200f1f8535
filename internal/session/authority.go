// Package session emite, rota y valida cookies de sesión opacas.
//
// Una cookie mapea 1:1 a una Authorization inmutable. Refresh rota la cookie
// sin extender la sesión: la nueva cookie lleva la misma expiración.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/autherr"
	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/metrics"
	"github.com/dropDatabas3/olympus/internal/observability/logger"
	tokens "github.com/dropDatabas3/olympus/internal/security/token"
)

// DefaultCookieBytes es la entropía de una cookie (512 bits).
const DefaultCookieBytes = 64

// Deps agrupa las dependencias de Authority.
type Deps struct {
	Store       repository.SessionRepository
	Random      tokens.RandomSource
	CookieBytes int
	Metrics     metrics.Recorder
	Now         func() time.Time
}

// Authority es el SessionAuthority. Sin estado propio: todo vive en Store.
type Authority struct {
	store   repository.SessionRepository
	random  tokens.RandomSource
	nbytes  int
	metrics metrics.Recorder
	now     func() time.Time
}

func NewAuthority(d Deps) *Authority {
	a := &Authority{
		store:   d.Store,
		random:  d.Random,
		nbytes:  d.CookieBytes,
		metrics: metrics.OrNoop(d.Metrics),
		now:     d.Now,
	}
	if a.random == nil {
		a.random = tokens.CryptoSource{}
	}
	if a.nbytes <= 0 {
		a.nbytes = DefaultCookieBytes
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Issue genera una cookie nueva y la asocia a auth.
func (a *Authority) Issue(ctx context.Context, auth types.Authorization) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("session.issue"))

	cookie, err := tokens.GenerateOpaqueToken(a.random, a.nbytes)
	if err != nil {
		log.Error("random source failed", logger.Err(err))
		return "", autherr.Operation(err)
	}
	if err := a.store.StoreCookie(ctx, cookie, auth.Copy()); err != nil {
		log.Error("store cookie failed", logger.Err(err))
		return "", autherr.Operation(err)
	}
	a.metrics.SessionIssued()
	return cookie, nil
}

// Store asocia una cookie provista desde afuera (otro nodo) a auth.
func (a *Authority) Store(ctx context.Context, cookie string, auth types.Authorization) error {
	if cookie == "" {
		return autherr.ErrOperationFailed.WithDetail("empty cookie")
	}
	if err := a.store.StoreCookie(ctx, cookie, auth.Copy()); err != nil {
		logger.From(ctx).Error("store cookie failed", logger.Op("session.store"), logger.Err(err))
		return autherr.Operation(err)
	}
	return nil
}

// Validate falla con AuthenticationFailed si la cookie no existe, si expiró o
// si no concede ninguno de los roles pedidos (OR).
func (a *Authority) Validate(ctx context.Context, cookie string, required ...types.Role) error {
	_, err := a.Authorization(ctx, cookie, required...)
	return err
}

// Authorization es Validate devolviendo además la autorización validada.
func (a *Authority) Authorization(ctx context.Context, cookie string, required ...types.Role) (types.Authorization, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("session.validate"))

	auth, err := a.store.LookupCookie(ctx, cookie)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			a.metrics.SessionValidated(false)
			return types.Authorization{}, autherr.ErrAuthenticationFailed.WithDetail("unknown session")
		}
		log.Error("lookup cookie failed", logger.Err(err))
		return types.Authorization{}, autherr.Operation(err)
	}
	if auth.Expired(a.now()) {
		a.metrics.SessionValidated(false)
		return types.Authorization{}, autherr.ErrAuthenticationFailed.WithDetail("session expired")
	}
	if !auth.GrantsAny(required) {
		a.metrics.SessionValidated(false)
		log.Info("insufficient role", logger.Username(auth.Username))
		return types.Authorization{}, autherr.ErrAuthenticationFailed.WithDetail("insufficient role")
	}
	a.metrics.SessionValidated(true)
	return auth, nil
}

// Refresh emite una cookie nueva con la MISMA autorización y borra la vieja
// (best-effort). Si la cookie no existe devuelve la original sin error.
func (a *Authority) Refresh(ctx context.Context, cookie string) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("session.refresh"))

	auth, err := a.store.LookupCookie(ctx, cookie)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn("lookup cookie failed, refresh is a no-op", logger.Err(err))
		}
		a.metrics.SessionRefreshed(false)
		return cookie, nil
	}

	fresh, err := a.Issue(ctx, auth)
	if err != nil {
		return "", err
	}
	if err := a.store.DeleteCookie(ctx, cookie); err != nil {
		// la cookie nueva es válida igual
		log.Warn("delete old cookie failed", logger.Masked("cookie", cookie), logger.Err(err))
	}
	a.metrics.SessionRefreshed(true)
	return fresh, nil
}

// Revoke elimina la cookie (logout).
func (a *Authority) Revoke(ctx context.Context, cookie string) error {
	if err := a.store.DeleteCookie(ctx, cookie); err != nil {
		logger.From(ctx).Error("delete cookie failed", logger.Op("session.revoke"), logger.Err(err))
		return autherr.Operation(err)
	}
	return nil
}
