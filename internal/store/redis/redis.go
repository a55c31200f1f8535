// Package redis implementa SessionRepository y ThrottleRepository sobre Redis.
// Sirve para compartir sesiones y contadores entre réplicas de un mismo nodo.
//
// Claves:
//
//	<prefix>session:<sha256(cookie)>        JSON de Authorization, PX = expiración + grace
//	<prefix>throttle:<kind>:<username>      hash {n, last}
//
// La cookie nunca se guarda en claro.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	tokens "github.com/dropDatabas3/olympus/internal/security/token"
)

// Store comparte un cliente entre sesiones y contadores.
type Store struct {
	c      *rdb.Client
	prefix string
	grace  time.Duration
	now    func() time.Time
}

var (
	_ repository.SessionRepository  = (*Store)(nil)
	_ repository.ThrottleRepository = (*Store)(nil)
)

// Options configura el Store.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Grace    time.Duration
}

// New crea el cliente y verifica conectividad con PING.
func New(ctx context.Context, o Options) (*Store, error) {
	c := rdb.NewClient(&rdb.Options{Addr: o.Addr, Password: o.Password, DB: o.DB})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return NewWithClient(c, o.Prefix, o.Grace), nil
}

// NewWithClient reusa un cliente existente (ej: el del rate limiter).
func NewWithClient(c *rdb.Client, prefix string, grace time.Duration) *Store {
	if prefix == "" {
		prefix = "olympus:"
	}
	return &Store{c: c, prefix: prefix, grace: grace, now: time.Now}
}

// Client expone el cliente subyacente.
func (s *Store) Client() *rdb.Client { return s.c }

func (s *Store) Close() error { return s.c.Close() }

func (s *Store) sessionKey(cookie string) string {
	return s.prefix + "session:" + tokens.SHA256Base64URL(cookie)
}

func (s *Store) throttleKey(username string, kind types.AttemptKind) string {
	return s.prefix + "throttle:" + string(kind) + ":" + username
}

// ─── Sessions ───

func (s *Store) StoreCookie(ctx context.Context, cookie string, auth types.Authorization) error {
	ttl := auth.Expiration.Sub(s.now()) + s.grace
	if ttl <= 0 {
		return s.c.Del(ctx, s.sessionKey(cookie)).Err()
	}
	b, err := json.Marshal(auth)
	if err != nil {
		return err
	}
	return s.c.Set(ctx, s.sessionKey(cookie), b, ttl).Err()
}

func (s *Store) LookupCookie(ctx context.Context, cookie string) (types.Authorization, error) {
	b, err := s.c.Get(ctx, s.sessionKey(cookie)).Bytes()
	if err != nil {
		if errors.Is(err, rdb.Nil) {
			return types.Authorization{}, repository.ErrNotFound
		}
		return types.Authorization{}, err
	}
	var auth types.Authorization
	if err := json.Unmarshal(b, &auth); err != nil {
		return types.Authorization{}, err
	}
	return auth, nil
}

func (s *Store) DeleteCookie(ctx context.Context, cookie string) error {
	return s.c.Del(ctx, s.sessionKey(cookie)).Err()
}

// ─── Throttle ───

// FailedAttempt incrementa y registra el instante en una sola transacción.
func (s *Store) FailedAttempt(ctx context.Context, username string, kind types.AttemptKind, at time.Time) error {
	key := s.throttleKey(username, kind)
	_, err := s.c.TxPipelined(ctx, func(p rdb.Pipeliner) error {
		p.HIncrBy(ctx, key, "n", 1)
		p.HSet(ctx, key, "last", at.UnixMilli())
		return nil
	})
	return err
}

func (s *Store) ClearFailedAttempts(ctx context.Context, username string, kind types.AttemptKind) error {
	return s.c.Del(ctx, s.throttleKey(username, kind)).Err()
}

func (s *Store) GetThrottle(ctx context.Context, username string, kind types.AttemptKind) (types.ThrottleCounter, error) {
	vals, err := s.c.HMGet(ctx, s.throttleKey(username, kind), "n", "last").Result()
	if err != nil {
		return types.ThrottleCounter{}, err
	}
	var c types.ThrottleCounter
	if v, ok := vals[0].(string); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return types.ThrottleCounter{}, err
		}
		c.FailedAttempts = n
	}
	if v, ok := vals[1].(string); ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return types.ThrottleCounter{}, err
		}
		c.LastAttempt = time.UnixMilli(ms)
	}
	return c, nil
}

// DeleteThrottle borra ambos contadores (baja de cuenta).
func (s *Store) DeleteThrottle(ctx context.Context, username string) error {
	return s.c.Del(ctx, s.throttleKey(username, types.AttemptMFA), s.throttleKey(username, types.AttemptAuth)).Err()
}
