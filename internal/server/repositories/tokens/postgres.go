package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.MintedToken, error) {
	query :=
		`SELECT id, contract_id, offer_index, token, owner_address FROM minted_tokens
		 WHERE id = $1
		 `

	t := &models.MintedToken{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.ContractID, &t.Offer, &t.Token, &t.Owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
