package challenges

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/dbx"
	"github.com/afocalor/rair-dapp/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Challenge) error {
	query := `INSERT INTO challenges (nonce, public_address, expires_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, c.Nonce, c.PublicAddress, c.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, nonce string) (*models.Challenge, error) {
	query := `DELETE FROM challenges WHERE nonce = $1 RETURNING nonce, public_address, expires_at`

	c := &models.Challenge{}
	if err := r.db.QueryRowContext(ctx, query, nonce).Scan(&c.Nonce, &c.PublicAddress, &c.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM challenges WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
