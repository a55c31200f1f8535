package pg

import (
	"context"
	"errors"

	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (s *Store) HasUser(ctx context.Context, username string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM app_user WHERE username = $1)`, username,
	).Scan(&ok)
	return ok, err
}

func (s *Store) AddUser(ctx context.Context, username, passwordHash string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO app_user (id, username, password_hash)
		VALUES ($1, $2, $3)`,
		uuid.NewString(), username, passwordHash,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

func (s *Store) GetPasswordHash(ctx context.Context, username string) (string, error) {
	var hash string
	err := s.pool.QueryRow(ctx,
		`SELECT password_hash FROM app_user WHERE username = $1`, username,
	).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	return hash, err
}

func (s *Store) SetPasswordHash(ctx context.Context, username, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE app_user SET password_hash = $2, updated_at = now()
		WHERE username = $1`,
		username, passwordHash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteUser borra el usuario (atributos y MFA caen por cascada) y sus contadores.
func (s *Store) DeleteUser(ctx context.Context, username string) (bool, error) {
	var deleted bool
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM app_user WHERE username = $1`, username)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		_, err = tx.Exec(ctx, `DELETE FROM auth_throttle WHERE username = $1`, username)
		return err
	})
	return deleted, err
}
