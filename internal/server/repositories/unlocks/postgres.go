package unlocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/dbx"
	"github.com/afocalor/rair-dapp/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository stores unlocks in the unlocks and unlock_offers tables.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// newID is a seam for tests.
var newID = func() string { return uuid.NewString() }

func (r *PostgresRepository) Ensure(ctx context.Context, fileID string) error {
	query := `INSERT INTO unlocks (id, file_id, version) VALUES ($1, $2, 0)
		ON CONFLICT (file_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, newID(), fileID); err != nil {
		return fmt.Errorf("failed to create unlock: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByFile(ctx context.Context, fileID string) (*models.Unlock, error) {
	return r.get(ctx, `SELECT id, file_id, version FROM unlocks WHERE file_id = $1`, fileID)
}

func (r *PostgresRepository) GetByFileForUpdate(ctx context.Context, fileID string) (*models.Unlock, error) {
	return r.get(ctx, `SELECT id, file_id, version FROM unlocks WHERE file_id = $1 FOR UPDATE`, fileID)
}

func (r *PostgresRepository) get(ctx context.Context, query, fileID string) (*models.Unlock, error) {
	u := &models.Unlock{}
	if err := r.db.QueryRowContext(ctx, query, fileID).Scan(&u.ID, &u.FileID, &u.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT offer_id FROM unlock_offers WHERE unlock_id = $1 ORDER BY position`, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to select unlock offers: %w", err)
	}
	defer rows.Close()

	u.OfferIDs = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		u.OfferIDs = append(u.OfferIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) SaveOffers(ctx context.Context, u *models.Unlock) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE unlocks SET version = version + 1 WHERE id = $1 AND version = $2`, u.ID, u.Version)
	if err != nil {
		return fmt.Errorf("failed to bump unlock version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrVersionConflict
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM unlock_offers WHERE unlock_id = $1`, u.ID); err != nil {
		return fmt.Errorf("failed to clear unlock offers: %w", err)
	}
	for i, offerID := range u.OfferIDs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO unlock_offers (unlock_id, offer_id, position) VALUES ($1, $2, $3)`,
			u.ID, offerID, i); err != nil {
			return fmt.Errorf("failed to insert unlock offer: %w", err)
		}
	}

	u.Version++
	return nil
}

func (r *PostgresRepository) FileIDsContainingAll(ctx context.Context, offerIDs []string) ([]string, error) {
	if len(offerIDs) == 0 {
		return []string{}, nil
	}
	n := len(offerIDs)
	query := `SELECT u.file_id FROM unlocks u
		JOIN unlock_offers uo ON uo.unlock_id = u.id
		WHERE uo.offer_id IN (` + dbx.Placeholders(1, n) + `)
		GROUP BY u.file_id
		HAVING COUNT(DISTINCT uo.offer_id) = ` + fmt.Sprintf("$%d", n+1)

	args := append(dbx.Args(offerIDs), n)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select unlocked files: %w", err)
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
