// Package store arma los backends de almacenamiento a partir de la config.
//
// Store base (usuarios, atributos, MFA): memory | postgres.
// Sesiones y contadores de throttling: memory | redis. Cuando los contadores
// viven en Redis, DeleteUser también los borra de ahí.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/observability/logger"
	"github.com/dropDatabas3/olympus/internal/security/secretbox"
	"github.com/dropDatabas3/olympus/internal/store/memory"
	"github.com/dropDatabas3/olympus/internal/store/pg"
	"github.com/dropDatabas3/olympus/internal/store/redis"
)

type Config struct {
	Driver   string // memory | postgres
	DSN      string
	Postgres struct {
		MaxOpenConns    int
		MinConns        int
		ConnMaxLifetime time.Duration
	}
	AutoMigrate bool
	// SecretKey cifra los secretos MFA en Postgres. Vacío = texto plano.
	SecretKey string

	Sessions SessionsConfig
}

type SessionsConfig struct {
	Driver   string // memory | redis
	Addr     string
	Password string
	DB       int
	Prefix   string
	// Grace extiende la retención de una cookie más allá de su expiración.
	Grace time.Duration
}

// Stores agrupa lo que consume el resto de la aplicación.
type Stores struct {
	Store    repository.Store
	Sessions repository.SessionRepository
	// Redis es no-nil si se configuró redis (lo reutiliza el rate limiter).
	Redis *redis.Store
	// Postgres es no-nil con driver postgres (health checks, stats).
	Postgres *pg.Store
	closers  []func() error
}

// Close cierra todos los backends abiertos, en orden inverso.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open abre los backends. Ante un error cierra lo que ya se había abierto.
func Open(ctx context.Context, cfg Config) (_ *Stores, err error) {
	log := logger.From(ctx).With(logger.Layer("store"), logger.Op("store.open"))
	out := &Stores{}
	defer func() {
		if err != nil {
			_ = out.Close()
		}
	}()

	switch d := strings.ToLower(cfg.Driver); d {
	case "", "memory", "mem":
		out.Store = memory.New()
	case "postgres", "pg", "postgresql":
		opts := pg.Options{
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MinConns:        cfg.Postgres.MinConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}
		if cfg.SecretKey != "" {
			if opts.Box, err = secretbox.New(cfg.SecretKey); err != nil {
				return nil, err
			}
		} else {
			log.Warn("mfa secrets stored without encryption (security.secretbox_key empty)")
		}
		p, err := pg.New(ctx, cfg.DSN, opts)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		out.closers = append(out.closers, p.Close)
		if cfg.AutoMigrate {
			applied, err := p.Migrate(ctx)
			if err != nil {
				return nil, err
			}
			log.Info("migrations applied", logger.Count(len(applied)))
		}
		out.Store, out.Postgres = p, p
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}

	switch d := strings.ToLower(cfg.Sessions.Driver); d {
	case "", "memory", "mem":
		out.Sessions = memory.NewSessions(cfg.Sessions.Grace)
	case "redis":
		r, err := redis.New(ctx, redis.Options{
			Addr:     cfg.Sessions.Addr,
			Password: cfg.Sessions.Password,
			DB:       cfg.Sessions.DB,
			Prefix:   cfg.Sessions.Prefix,
			Grace:    cfg.Sessions.Grace,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		out.closers = append(out.closers, r.Close)
		out.Redis, out.Sessions = r, r
		out.Store = WithThrottle(out.Store, r, r.DeleteThrottle)
	default:
		return nil, fmt.Errorf("unsupported sessions driver: %s", cfg.Sessions.Driver)
	}

	log.Info("storage ready",
		logger.String("driver", strings.ToLower(cfg.Driver)),
		logger.String("sessions", strings.ToLower(cfg.Sessions.Driver)))
	return out, nil
}

// WithThrottle devuelve un Store que delega los contadores en t. drop se llama
// después de borrar un usuario para que no sobrevivan sus contadores.
func WithThrottle(base repository.Store, t repository.ThrottleRepository, drop func(ctx context.Context, username string) error) repository.Store {
	return &throttled{Store: base, throttle: t, drop: drop}
}

type throttled struct {
	repository.Store
	throttle repository.ThrottleRepository
	drop     func(ctx context.Context, username string) error
}

func (s *throttled) FailedAttempt(ctx context.Context, username string, kind types.AttemptKind, at time.Time) error {
	return s.throttle.FailedAttempt(ctx, username, kind, at)
}

func (s *throttled) ClearFailedAttempts(ctx context.Context, username string, kind types.AttemptKind) error {
	return s.throttle.ClearFailedAttempts(ctx, username, kind)
}

func (s *throttled) GetThrottle(ctx context.Context, username string, kind types.AttemptKind) (types.ThrottleCounter, error) {
	return s.throttle.GetThrottle(ctx, username, kind)
}

func (s *throttled) DeleteUser(ctx context.Context, username string) (bool, error) {
	deleted, err := s.Store.DeleteUser(ctx, username)
	if err != nil || !deleted || s.drop == nil {
		return deleted, err
	}
	if err := s.drop(ctx, username); err != nil {
		logger.From(ctx).Warn("throttle cleanup failed",
			logger.Layer("store"), logger.Op("store.delete_user"), logger.Err(err))
	}
	return true, nil
}
