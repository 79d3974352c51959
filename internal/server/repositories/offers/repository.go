// Package offers declares the storage contract for offer ranges.
package offers

import (
	"context"

	"github.com/afocalor/rair-dapp/internal/server/models"
)

// Repository looks up offers. Returned offers have their contract populated.
type Repository interface {
	// FindByRange returns the offers of a contract with the given diamond range index.
	FindByRange(ctx context.Context, contractID string, rangeIndex int64) ([]*models.Offer, error)

	// ListByIDs returns the offers with the given ids in the order of ids.
	// Unknown ids are skipped.
	ListByIDs(ctx context.Context, ids []string) ([]*models.Offer, error)
}
