// Package pg implementa repository.Store sobre PostgreSQL (pgx/v5).
//
// Los secretos MFA se guardan cifrados con secretbox cuando se configura una
// clave. Las migraciones viven en migrations/postgres y se aplican con Migrate.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/security/secretbox"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Options ajusta el pool. Los ceros usan los defaults de pgxpool salvo MaxConns.
type Options struct {
	MaxOpenConns    int
	MinConns        int
	ConnMaxLifetime time.Duration
	// Box cifra los secretos MFA en reposo. nil = texto plano.
	Box *secretbox.Box
}

type Store struct {
	pool *pgxpool.Pool
	box  *secretbox.Box
}

var _ repository.Store = (*Store)(nil)

// New abre el pool y verifica conectividad.
func New(ctx context.Context, dsn string, o Options) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if o.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(o.MaxOpenConns)
	}
	if o.MinConns > 0 {
		pcfg.MinConns = int32(o.MinConns)
	}
	if o.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = o.ConnMaxLifetime
		pcfg.MaxConnIdleTime = o.ConnMaxLifetime
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return &Store{pool: pool, box: o.Box}, nil
}

// Pool expone el pool interno (métricas, migraciones).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// PoolStats devuelve un snapshot del pool, o nil si no está inicializado.
func (s *Store) PoolStats() *pgxpool.Stat {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Stat()
}

// Close cierra el pool (idempotente).
func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// withTx ejecuta fn en una transacción; rollback si fn falla.
func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
