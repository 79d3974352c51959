// Package tokens declares the storage contract for minted tokens.
package tokens

import (
	"context"

	"github.com/afocalor/rair-dapp/internal/server/models"
)

type Repository interface {
	// GetByID returns a minted token or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.MintedToken, error)
}
