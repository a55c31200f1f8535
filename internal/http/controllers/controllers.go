// Package controllers implementa los endpoints v1 sobre auth.Handler.
// Cada método es un http.HandlerFunc; el router decide qué middlewares
// (sesión, rate limit, no-store) lo envuelven.
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/olympus/internal/auth"
	"github.com/dropDatabas3/olympus/internal/domain/types"
)

// AuthService es la superficie del núcleo que consume la capa HTTP.
type AuthService interface {
	Enroll(ctx context.Context, username, credential, proof string) error
	ChangeCredential(ctx context.Context, username, oldCredential, newCredential string) error
	Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error)

	ValidateAssertions(ctx context.Context, username string, pol types.Policy) (types.Claims, error)
	GetAllAssertions(ctx context.Context, username string) (map[string]types.Attribute, error)
	AddAttributes(ctx context.Context, username, proof string) error
	DeleteAttributes(ctx context.Context, username string, keys []string) (auth.DeleteResult, error)
	DeleteAccount(ctx context.Context, username string) (bool, error)

	RequestMFASecret(ctx context.Context, username, mfaType string) (string, error)
	ActivateMFA(ctx context.Context, username, token, mfaType string) (bool, error)
	DeleteMFA(ctx context.Context, username, token, mfaType string) (bool, error)

	RefreshCookie(ctx context.Context, cookie string) (string, error)
	Logout(ctx context.Context, cookie string) error
}

var _ AuthService = (*auth.Handler)(nil)

// OTPAuthURLFunc arma la URL otpauth:// para un secreto recién asignado.
// Devuelve "" si el tipo no tiene representación QR.
type OTPAuthURLFunc func(mfaType, username, secret string) string

// HealthCheck verifica un componente (db, redis).
type HealthCheck func(ctx context.Context) error

// CookieConfig define cómo se entrega la cookie de sesión al navegador.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type Deps struct {
	Auth       AuthService
	OTPAuthURL OTPAuthURLFunc
	Cookie     CookieConfig
	Checks     map[string]HealthCheck
	Version    string
}

type Controllers struct {
	Users      *UsersController
	Login      *LoginController
	Attributes *AttributesController
	MFA        *MFAController
	Session    *SessionController
	Health     *HealthController
}

func New(d Deps) *Controllers {
	return &Controllers{
		Users:      &UsersController{auth: d.Auth},
		Login:      &LoginController{auth: d.Auth, cookie: d.Cookie},
		Attributes: &AttributesController{auth: d.Auth},
		MFA:        &MFAController{auth: d.Auth, otpURL: d.OTPAuthURL},
		Session:    &SessionController{auth: d.Auth, cookie: d.Cookie},
		Health:     &HealthController{checks: d.Checks, version: d.Version},
	}
}

// setSessionCookie entrega cookie como HttpOnly. Vacío = borrar.
func setSessionCookie(w http.ResponseWriter, cfg CookieConfig, cookie string) {
	if cfg.Name == "" {
		return
	}
	c := &http.Cookie{
		Name:     cfg.Name,
		Value:    cookie,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if cookie == "" {
		c.MaxAge = -1
	} else if cfg.TTL > 0 {
		c.MaxAge = int(cfg.TTL.Seconds())
	}
	http.SetCookie(w, c)
}
