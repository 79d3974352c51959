// Package unlocks declares the storage contract for file/offer unlock links.
package unlocks

import (
	"context"

	"github.com/afocalor/rair-dapp/internal/server/models"
)

// Repository manages Unlock documents. Unlocks are never deleted; an
// Unlock whose offer set becomes empty stays in place.
type Repository interface {
	// Ensure creates an empty Unlock for fileID unless one exists.
	Ensure(ctx context.Context, fileID string) error

	// GetByFile returns the Unlock of a file with its ordered offer ids,
	// or common.ErrorNotFound.
	GetByFile(ctx context.Context, fileID string) (*models.Unlock, error)

	// GetByFileForUpdate is GetByFile with the Unlock row locked for the
	// rest of the enclosing transaction.
	GetByFileForUpdate(ctx context.Context, fileID string) (*models.Unlock, error)

	// SaveOffers replaces the offer set of u if its version is still current
	// and bumps the version. A stale version yields common.ErrVersionConflict.
	SaveOffers(ctx context.Context, u *models.Unlock) error

	// FileIDsContainingAll returns the files whose Unlock holds every one of offerIDs.
	FileIDsContainingAll(ctx context.Context, offerIDs []string) ([]string, error)
}
