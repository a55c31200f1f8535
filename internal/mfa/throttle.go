package mfa

import (
	"context"
	"math"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
)

// maxBackoffExponent satura 2^(n-1) para que contadores enormes no desborden.
const maxBackoffExponent = 30

// CalculateTimeout devuelve factor * 2^(n-1), o 0 si n <= 0. Satura en MaxInt64.
func CalculateTimeout(failedAttempts int, factor time.Duration) time.Duration {
	if failedAttempts <= 0 || factor <= 0 {
		return 0
	}
	exp := failedAttempts - 1
	if exp > maxBackoffExponent {
		exp = maxBackoffExponent
	}
	mult := time.Duration(1) << uint(exp)
	if factor > time.Duration(math.MaxInt64)/mult {
		return time.Duration(math.MaxInt64)
	}
	return factor * mult
}

// MayNotAuthenticate es true mientras last + factor*2^(n-1) > now.
// Con n = 0 nunca bloquea. Se calcula en cada chequeo, sin cache.
func MayNotAuthenticate(last time.Time, failedAttempts int, factor time.Duration, now time.Time) bool {
	if failedAttempts <= 0 {
		return false
	}
	timeout := CalculateTimeout(failedAttempts, factor)
	// equivalente a last+timeout > now
	return now.Sub(last) < timeout
}

// Throttle aplica el backoff sobre un contador de ThrottleRepository. Lo usan
// el servicio MFA (AttemptMFA) y el esquema de password (AttemptAuth).
type Throttle struct {
	repo repository.ThrottleRepository
	now  func() time.Time
}

// NewThrottle crea un Throttle. now nil usa time.Now.
func NewThrottle(repo repository.ThrottleRepository, now func() time.Time) *Throttle {
	if now == nil {
		now = time.Now
	}
	return &Throttle{repo: repo, now: now}
}

// Blocked lee el contador y aplica MayNotAuthenticate con factor.
func (t *Throttle) Blocked(ctx context.Context, username string, kind types.AttemptKind, factor time.Duration) (bool, error) {
	c, err := t.repo.GetThrottle(ctx, username, kind)
	if err != nil {
		return false, err
	}
	return MayNotAuthenticate(c.LastAttempt, c.FailedAttempts, factor, t.now()), nil
}

// Fail registra un intento fallido ahora.
func (t *Throttle) Fail(ctx context.Context, username string, kind types.AttemptKind) error {
	return t.repo.FailedAttempt(ctx, username, kind, t.now())
}

// Clear vuelve el contador a cero.
func (t *Throttle) Clear(ctx context.Context, username string, kind types.AttemptKind) error {
	return t.repo.ClearFailedAttempts(ctx, username, kind)
}
