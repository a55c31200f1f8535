package pg

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/jackc/pgx/v5"
)

// FailedAttempt incrementa el contador en una sola sentencia.
func (s *Store) FailedAttempt(ctx context.Context, username string, kind types.AttemptKind, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auth_throttle (username, kind, failed_attempts, last_attempt)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (username, kind) DO UPDATE
		SET failed_attempts = auth_throttle.failed_attempts + 1,
		    last_attempt = EXCLUDED.last_attempt`,
		username, string(kind), at.UTC(),
	)
	return err
}

func (s *Store) ClearFailedAttempts(ctx context.Context, username string, kind types.AttemptKind) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM auth_throttle WHERE username = $1 AND kind = $2`, username, string(kind))
	return err
}

func (s *Store) GetThrottle(ctx context.Context, username string, kind types.AttemptKind) (types.ThrottleCounter, error) {
	var c types.ThrottleCounter
	err := s.pool.QueryRow(ctx, `
		SELECT failed_attempts, last_attempt FROM auth_throttle
		WHERE username = $1 AND kind = $2`,
		username, string(kind),
	).Scan(&c.FailedAttempts, &c.LastAttempt)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.ThrottleCounter{}, nil
	}
	return c, err
}
