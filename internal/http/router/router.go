// Package router arma el router chi de la API v1.
//
//	POST   /v1/users               alta (scheme.Enroll + proof opcional)
//	POST   /v1/login               scheme -> MFA -> política -> cookie
//	POST   /v1/session/refresh     rotación de cookie
//	-- con sesión (rol USER) --
//	GET    /v1/session
//	POST   /v1/logout
//	POST   /v1/users/credential
//	POST   /v1/assertions
//	GET    /v1/attributes
//	POST   /v1/attributes
//	DELETE /v1/attributes
//	DELETE /v1/account
//	POST   /v1/mfa/secret
//	POST   /v1/mfa/activate
//	POST   /v1/mfa/delete
//	-- infra --
//	GET    /healthz
//	GET    /metrics                si Metrics != nil y MetricsInline
//	GET    /.well-known/jwks.json  si hay claim issuer
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/http/controllers"
	httperrors "github.com/dropDatabas3/olympus/internal/http/errors"
	mw "github.com/dropDatabas3/olympus/internal/http/middlewares"
	"github.com/dropDatabas3/olympus/internal/metrics"
	"github.com/dropDatabas3/olympus/internal/rate"
)

type Deps struct {
	Controllers *controllers.Controllers
	Sessions    mw.SessionValidator
	CookieName  string

	// Limiter aplica a toda la API; LoginLimiter sólo a login, alta y MFA.
	Limiter      rate.Limiter
	LoginLimiter rate.Limiter

	Metrics       *metrics.Prometheus
	MetricsInline bool
	JWKS          []byte
}

// New devuelve el http.Handler completo.
func New(d Deps) http.Handler {
	c := d.Controllers
	r := chi.NewRouter()

	var observer mw.HTTPObserver
	if d.Metrics != nil {
		observer = d.Metrics
	}
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithMetrics(observer),
		mw.WithSecurityHeaders(),
		mw.WithRateLimit(mw.RateLimitConfig{
			Limiter:   d.Limiter,
			KeyFunc:   mw.IPOnlyRateKey,
			Whitelist: []string{"/healthz", "/metrics"},
		}),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	r.Get("/healthz", c.Health.Healthz)
	if d.Metrics != nil && d.MetricsInline {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	if len(d.JWKS) > 0 {
		jwks := d.JWKS
		r.Get("/.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Cache-Control", "public, max-age=300")
			_, _ = w.Write(jwks)
		})
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.WithNoStore())

		// Sin sesión
		r.Group(func(r chi.Router) {
			r.Use(mw.WithRateLimit(mw.RateLimitConfig{Limiter: d.LoginLimiter, KeyFunc: mw.IPPathRateKey}))
			r.Post("/users", c.Users.Enroll)
			r.Post("/login", c.Login.Login)
		})
		r.Post("/session/refresh", c.Session.Refresh)

		// Con sesión USER
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireSession(d.Sessions, d.CookieName, types.RoleUser))

			r.Get("/session", c.Session.Current)
			r.Post("/logout", c.Session.Logout)
			r.Post("/users/credential", c.Users.ChangeCredential)
			r.Delete("/account", c.Users.DeleteAccount)

			r.Post("/assertions", c.Attributes.Assertions)
			r.Get("/attributes", c.Attributes.List)
			r.Post("/attributes", c.Attributes.Add)
			r.Delete("/attributes", c.Attributes.Delete)

			r.Group(func(r chi.Router) {
				r.Use(mw.WithRateLimit(mw.RateLimitConfig{Limiter: d.LoginLimiter, KeyFunc: mw.IPPathRateKey}))
				r.Post("/mfa/secret", c.MFA.RequestSecret)
				r.Post("/mfa/activate", c.MFA.Activate)
				r.Post("/mfa/delete", c.MFA.Delete)
			})
		})
	})

	return r
}
