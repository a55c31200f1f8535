package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/jackc/pgx/v5"
)

func (s *Store) GetMFAInformation(ctx context.Context, username string) (map[string]types.MFAInformation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.mfa_type, m.secret_encrypted, m.activated, m.created_at
		FROM user_mfa m
		JOIN app_user u ON u.id = m.user_id
		WHERE u.username = $1`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]types.MFAInformation{}
	for rows.Next() {
		var (
			info   types.MFAInformation
			sealed string
		)
		if err := rows.Scan(&info.Type, &sealed, &info.Activated, &info.CreatedAt); err != nil {
			return nil, err
		}
		if info.Secret, err = s.openSecret(sealed); err != nil {
			return nil, fmt.Errorf("mfa %s: %w", info.Type, err)
		}
		out[info.Type] = info
	}
	return out, rows.Err()
}

// AssignMFASecret reemplaza el registro: el secreto nuevo queda pendiente.
func (s *Store) AssignMFASecret(ctx context.Context, username, mfaType, secret string) error {
	sealed, err := s.sealSecret(secret)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		id, err := userID(ctx, tx, username)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO user_mfa (user_id, mfa_type, secret_encrypted, activated, created_at)
			VALUES ($1, $2, $3, false, $4)
			ON CONFLICT (user_id, mfa_type) DO UPDATE
			SET secret_encrypted = EXCLUDED.secret_encrypted,
			    activated = false,
			    created_at = EXCLUDED.created_at`,
			id, mfaType, sealed, time.Now().UTC(),
		)
		return err
	})
}

func (s *Store) ActivateMFA(ctx context.Context, username, mfaType string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE user_mfa m SET activated = true
		FROM app_user u
		WHERE u.id = m.user_id AND u.username = $1 AND m.mfa_type = $2`,
		username, mfaType,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMFA(ctx context.Context, username, mfaType string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM user_mfa m
		USING app_user u
		WHERE u.id = m.user_id AND u.username = $1 AND m.mfa_type = $2`,
		username, mfaType,
	)
	return err
}

func (s *Store) sealSecret(secret string) (string, error) {
	if s.box == nil {
		return secret, nil
	}
	return s.box.Seal(secret)
}

func (s *Store) openSecret(sealed string) (string, error) {
	if s.box == nil {
		return sealed, nil
	}
	return s.box.Open(sealed)
}
