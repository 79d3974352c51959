package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/server/models"
	"github.com/afocalor/rair-dapp/internal/server/repositories/repomanager"
)

// Resolver finds the files a minted token unlocks. A token unlocks a file
// when the file's Unlock holds every offer of the token's range.
type Resolver struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewResolver constructs a Resolver.
func NewResolver(db *sql.DB, m repomanager.RepositoryManager) *Resolver {
	return &Resolver{db: db, repomanager: m}
}

// FilesForToken returns the files unlocked by tokenID. Unknown tokens and
// tokens without matching offers unlock nothing.
func (r *Resolver) FilesForToken(ctx context.Context, tokenID string) ([]*models.File, error) {
	ids, err := r.fileIDsForToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return r.repomanager.Files(r.db).ListByIDs(ctx, ids)
}

// Unlocks reports whether tokenID unlocks fileID.
func (r *Resolver) Unlocks(ctx context.Context, tokenID, fileID string) (bool, error) {
	ids, err := r.fileIDsForToken(ctx, tokenID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == fileID {
			return true, nil
		}
	}
	return false, nil
}

func (r *Resolver) fileIDsForToken(ctx context.Context, tokenID string) ([]string, error) {
	token, err := r.repomanager.Tokens(r.db).GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	offers, err := r.repomanager.Offers(r.db).FindByRange(ctx, token.ContractID, token.Offer)
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return []string{}, nil
	}

	offerIDs := make([]string, len(offers))
	for i, o := range offers {
		offerIDs[i] = o.ID
	}
	return r.repomanager.Unlocks(r.db).FileIDsContainingAll(ctx, offerIDs)
}
