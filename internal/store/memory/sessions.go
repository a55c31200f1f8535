package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
)

// Sessions guarda cookie -> Authorization en go-cache. Cada entrada expira
// con la autorización (+ grace); la validez real la decide session.Authority.
type Sessions struct {
	c     *gocache.Cache
	grace time.Duration
	now   func() time.Time
}

var _ repository.SessionRepository = (*Sessions)(nil)

// NewSessions crea el store. grace extiende la vida física de la entrada más
// allá de la expiración lógica.
func NewSessions(grace time.Duration) *Sessions {
	return &Sessions{
		c:     gocache.New(gocache.NoExpiration, time.Minute),
		grace: grace,
		now:   time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Sessions) WithClock(now func() time.Time) *Sessions {
	s.now = now
	return s
}

func (s *Sessions) StoreCookie(_ context.Context, cookie string, auth types.Authorization) error {
	ttl := auth.Expiration.Sub(s.now()) + s.grace
	if ttl <= 0 {
		// ya expirada: no hay nada que guardar
		s.c.Delete(cookie)
		return nil
	}
	s.c.Set(cookie, auth.Copy(), ttl)
	return nil
}

func (s *Sessions) LookupCookie(_ context.Context, cookie string) (types.Authorization, error) {
	v, ok := s.c.Get(cookie)
	if !ok {
		return types.Authorization{}, repository.ErrNotFound
	}
	auth, _ := v.(types.Authorization)
	return auth.Copy(), nil
}

func (s *Sessions) DeleteCookie(_ context.Context, cookie string) error {
	s.c.Delete(cookie)
	return nil
}

// Len devuelve la cantidad de cookies guardadas (incluye las ya expiradas
// lógicamente que no fueron barridas).
func (s *Sessions) Len() int { return s.c.ItemCount() }
