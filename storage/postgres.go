package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps values in the client_storage table (see migrations).
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Get(ctx context.Context, userID int64, key string) ([]byte, bool, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `
		SELECT value FROM client_storage WHERE user_id = $1 AND key = $2`,
		userID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, userID int64, key string, value []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO client_storage (user_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = now()`,
		userID, key, value,
	)
	return err
}

func (p *Postgres) Remove(ctx context.Context, userID int64, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM client_storage WHERE user_id = $1 AND key = $2`, userID, key)
	return err
}
