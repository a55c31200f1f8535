package pg

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/jackc/pgx/v5"
)

func (s *Store) GetAttributes(ctx context.Context, username string) (map[string]types.Attribute, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.key, a.type, a.value
		FROM user_attribute a
		JOIN app_user u ON u.id = a.user_id
		WHERE u.username = $1`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]types.Attribute{}
	for rows.Next() {
		var (
			key, typ string
			raw      []byte
		)
		if err := rows.Scan(&key, &typ, &raw); err != nil {
			return nil, err
		}
		attr, err := types.ParseAttribute(types.AttributeType(typ), raw)
		if err != nil {
			return nil, err
		}
		out[key] = attr
	}
	return out, rows.Err()
}

// AddAttributes hace upsert de todas las claves en una sola transacción.
func (s *Store) AddAttributes(ctx context.Context, username string, attrs map[string]types.Attribute) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		id, err := userID(ctx, tx, username)
		if err != nil {
			return err
		}
		for k, v := range attrs {
			raw, err := json.Marshal(v.Value())
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO user_attribute (user_id, key, type, value)
				VALUES ($1, $2, $3, $4::jsonb)
				ON CONFLICT (user_id, key) DO UPDATE
				SET type = EXCLUDED.type, value = EXCLUDED.value, updated_at = now()`,
				id, types.NormalizeKey(k), string(v.Type()), string(raw),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) DeleteAttribute(ctx context.Context, username, key string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM user_attribute a
		USING app_user u
		WHERE u.id = a.user_id AND u.username = $1 AND a.key = $2`,
		username, types.NormalizeKey(key),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// userID resuelve el id interno de username dentro de tx.
func userID(ctx context.Context, tx pgx.Tx, username string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `SELECT id::text FROM app_user WHERE username = $1`, username).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	return id, err
}
