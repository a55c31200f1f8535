// Package metrics define el colaborador de observabilidad que reciben los
// servicios del núcleo y su implementación Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder es lo que ven los servicios. Nunca afecta el resultado de una operación.
type Recorder interface {
	PolicyEvaluated(satisfied bool)
	MFAValidated(mfaType string, ok bool)
	ThrottleBlocked(kind string)
	SessionIssued()
	SessionRefreshed(rotated bool)
	SessionValidated(ok bool)
	LoginAttempt(scheme string, result string)
}

// Noop descarta todo. Default cuando no se inyecta un Recorder.
type Noop struct{}

func (Noop) PolicyEvaluated(bool)        {}
func (Noop) MFAValidated(string, bool)   {}
func (Noop) ThrottleBlocked(string)      {}
func (Noop) SessionIssued()              {}
func (Noop) SessionRefreshed(bool)       {}
func (Noop) SessionValidated(bool)       {}
func (Noop) LoginAttempt(string, string) {}

// OrNoop devuelve r o Noop si r es nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return Noop{}
	}
	return r
}

// Prometheus implementa Recorder y expone además las métricas HTTP.
type Prometheus struct {
	gatherer   prometheus.Gatherer
	registerer prometheus.Registerer
	namespace  string

	policyEvaluations *prometheus.CounterVec
	mfaValidations    *prometheus.CounterVec
	throttleBlocks    *prometheus.CounterVec
	sessionsIssued    prometheus.Counter
	sessionsRefreshed *prometheus.CounterVec
	sessionsValidated *prometheus.CounterVec
	loginAttempts     *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInflight prometheus.Gauge
}

// NewPrometheus registra las métricas en un registry propio (evita colisiones
// con el default en tests) e incluye los collectors de proceso y runtime.
func NewPrometheus(namespace string) (*Prometheus, error) {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		gatherer:   reg,
		registerer: reg,
		namespace:  namespace,
		policyEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_evaluations_total",
			Help:      "Evaluaciones de política por resultado",
		}, []string{"result"}),
		mfaValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mfa_validations_total",
			Help:      "Validaciones de token MFA por tipo y resultado",
		}, []string{"type", "result"}),
		throttleBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttle_blocks_total",
			Help:      "Intentos rechazados por backoff",
		}, []string{"kind"}),
		sessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_issued_total",
			Help:      "Cookies de sesión emitidas",
		}),
		sessionsRefreshed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_refreshed_total",
			Help:      "Refresh de cookies (rotated|noop)",
		}, []string{"result"}),
		sessionsValidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_validated_total",
			Help:      "Validaciones de sesión por resultado",
		}, []string{"result"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Intentos de login por esquema y resultado",
		}, []string{"scheme", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Número total de requests procesadas",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latencia de los requests HTTP",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_inflight_requests",
			Help:      "Requests en vuelo",
		}),
	}

	collectors := []prometheus.Collector{
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
		p.policyEvaluations, p.mfaValidations, p.throttleBlocks,
		p.sessionsIssued, p.sessionsRefreshed, p.sessionsValidated, p.loginAttempts,
		p.httpRequests, p.httpDuration, p.httpInflight,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "fail"
}

func (p *Prometheus) PolicyEvaluated(satisfied bool) {
	p.policyEvaluations.WithLabelValues(result(satisfied)).Inc()
}

func (p *Prometheus) MFAValidated(mfaType string, ok bool) {
	p.mfaValidations.WithLabelValues(mfaType, result(ok)).Inc()
}

func (p *Prometheus) ThrottleBlocked(kind string) {
	p.throttleBlocks.WithLabelValues(kind).Inc()
}

func (p *Prometheus) SessionIssued() { p.sessionsIssued.Inc() }

func (p *Prometheus) SessionRefreshed(rotated bool) {
	if rotated {
		p.sessionsRefreshed.WithLabelValues("rotated").Inc()
		return
	}
	p.sessionsRefreshed.WithLabelValues("noop").Inc()
}

func (p *Prometheus) SessionValidated(ok bool) {
	p.sessionsValidated.WithLabelValues(result(ok)).Inc()
}

func (p *Prometheus) LoginAttempt(scheme, res string) {
	p.loginAttempts.WithLabelValues(scheme, res).Inc()
}

// Handler expone /metrics.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// Gatherer expone el registry (tests).
func (p *Prometheus) Gatherer() prometheus.Gatherer { return p.gatherer }

// ObserveHTTP registra un request terminado. route es el patrón de chi, no el
// path crudo, para no explotar la cardinalidad.
func (p *Prometheus) ObserveHTTP(method, route string, status int, d time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Inflight devuelve la función que decrementa el gauge.
func (p *Prometheus) Inflight() func() {
	p.httpInflight.Inc()
	return p.httpInflight.Dec
}
