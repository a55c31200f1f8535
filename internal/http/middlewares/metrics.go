package middlewares

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPObserver recibe una observación por request (ver metrics.Prometheus).
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
	Inflight() func()
}

// WithMetrics mide cada request usando el patrón de ruta de chi para no
// explotar la cardinalidad con paths arbitrarios.
func WithMetrics(o HTTPObserver) Middleware {
	if o == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done := o.Inflight()
			defer done()

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			o.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
		})
	}
}
