package auth

import (
	"context"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/session"
)

// Scheme es la estrategia de autenticación concreta. Aporta cómo se enrola y
// autentica un usuario, cómo se obtiene un secreto MFA y cómo se genera la
// cookie de sesión tras un login exitoso.
type Scheme interface {
	Name() string

	// Enroll crea el usuario con su credencial. ErrConflict si ya existe.
	Enroll(ctx context.Context, username, credential string) error

	// Authenticate es la etapa de autenticación propia del esquema.
	// Credencial incorrecta o usuario inexistente devuelven (false, nil).
	Authenticate(ctx context.Context, username, credential string) (bool, error)

	// RequestMFASecret asigna un secreto nuevo (PENDING) y lo devuelve.
	RequestMFASecret(ctx context.Context, username, mfaType string) (string, error)

	// GenerateSessionCookie emite una sesión USER para username.
	GenerateSessionCookie(ctx context.Context, username string) (string, error)
}

// CredentialChanger lo implementan los esquemas con credencial local.
type CredentialChanger interface {
	ChangeCredential(ctx context.Context, username, oldCredential, newCredential string) error
}

// sessionMinter emite sesiones USER con TTL fijo. Compartido por los esquemas.
type sessionMinter struct {
	sessions *session.Authority
	ttl      time.Duration
	now      func() time.Time
}

func newSessionMinter(a *session.Authority, ttl time.Duration, now func() time.Time) sessionMinter {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return sessionMinter{sessions: a, ttl: ttl, now: now}
}

func (m sessionMinter) mint(ctx context.Context, username string) (string, error) {
	return m.sessions.Issue(ctx, types.Authorization{
		Username:   username,
		Roles:      []types.Role{types.RoleUser},
		Expiration: m.now().Add(m.ttl),
	})
}
