package offers

import (
	"context"
	"fmt"

	"github.com/afocalor/rair-dapp/internal/dbx"
	"github.com/afocalor/rair-dapp/internal/server/models"
)

const selectOffers = `SELECT o.id, o.contract_id, o.diamond_range_index, o.offer_name, c.address, c.blockchain, c.title
	FROM offers o JOIN contracts c ON c.id = o.contract_id`

// PostgresRepository implements offer lookups over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Offer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select offers: %w", err)
	}
	defer rows.Close()

	result := []*models.Offer{}
	for rows.Next() {
		o := &models.Offer{Contract: &models.Contract{}}
		if err := rows.Scan(&o.ID, &o.ContractID, &o.DiamondRangeIndex, &o.OfferName,
			&o.Contract.Address, &o.Contract.Blockchain, &o.Contract.Title); err != nil {
			return nil, err
		}
		o.Contract.ID = o.ContractID
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) FindByRange(ctx context.Context, contractID string, rangeIndex int64) ([]*models.Offer, error) {
	return r.query(ctx, selectOffers+` WHERE o.contract_id = $1 AND o.diamond_range_index = $2 ORDER BY o.id`,
		contractID, rangeIndex)
}

func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Offer, error) {
	if len(ids) == 0 {
		return []*models.Offer{}, nil
	}
	found, err := r.query(ctx, selectOffers+` WHERE o.id IN (`+dbx.Placeholders(1, len(ids))+`)`, dbx.Args(ids)...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Offer, len(found))
	for _, o := range found {
		byID[o.ID] = o
	}
	result := make([]*models.Offer, 0, len(found))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			result = append(result, o)
			delete(byID, id)
		}
	}
	return result, nil
}
