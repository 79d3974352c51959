package users

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (public_address, nick_name, admin_nft, super_admin)
         VALUES ($1, $2, $3, $4)
		 ON CONFLICT (public_address) DO NOTHING
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.PublicAddress, user.NickName, user.AdminNFT, user.SuperAdmin).Scan(&user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByAddress(ctx context.Context, address string) (*models.User, error) {
	query :=
		`SELECT public_address, nick_name, admin_nft, super_admin, created_at FROM users
		 WHERE public_address = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, address).
		Scan(&user.PublicAddress, &user.NickName, &user.AdminNFT, &user.SuperAdmin, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
