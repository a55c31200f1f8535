package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/olympus/internal/domain/types"
	httperrors "github.com/dropDatabas3/olympus/internal/http/errors"
	"github.com/dropDatabas3/olympus/internal/observability/logger"
)

// SessionValidator es lo que RequireSession necesita del núcleo.
type SessionValidator interface {
	Session(ctx context.Context, cookie string, roles ...types.Role) (types.Authorization, error)
}

// SessionCookie extrae la cookie de sesión de Authorization: Bearer o de la
// cookie cookieName, en ese orden.
func SessionCookie(r *http.Request, cookieName string) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// RequireSession valida la sesión con al menos uno de roles antes de llegar
// al handler. La autorización queda en el contexto.
func RequireSession(v SessionValidator, cookieName string, roles ...types.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie := SessionCookie(r, cookieName)
			if cookie == "" {
				httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("session cookie missing"))
				return
			}
			auth, err := v.Session(r.Context(), cookie, roles...)
			if err != nil {
				httperrors.WriteError(w, err)
				return
			}
			ctx := WithSession(r.Context(), cookie, auth)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.Username(auth.Username)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
