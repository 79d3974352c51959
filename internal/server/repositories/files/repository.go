// Package files declares the storage contract for gated file metadata.
package files

import (
	"context"

	"github.com/afocalor/rair-dapp/internal/server/models"
)

// Repository reads and patches file records. Reads never return the
// content key except through GetKey.
type Repository interface {
	// GetByID returns the file with its category joined, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.File, error)

	// GetKey returns the content key of a file.
	GetKey(ctx context.Context, id string) (string, error)

	// List returns files matching filter sorted by title.
	List(ctx context.Context, filter models.FileFilter) ([]*models.File, error)

	// ListByIDs returns the files with the given ids sorted by title.
	ListByIDs(ctx context.Context, ids []string) ([]*models.File, error)

	// ListByCategory returns one page of a category in insertion order.
	ListByCategory(ctx context.Context, categoryID string, offset, limit int) ([]*models.File, error)

	// CountByCategory returns the number of files in a category.
	CountByCategory(ctx context.Context, categoryID string) (int64, error)

	// Update applies a merge patch keyed by API field name. Unknown keys
	// and badly typed values yield common.ErrorValidation.
	Update(ctx context.Context, id string, patch map[string]any) error

	// SetDemo sets the demo flag of a file.
	SetDemo(ctx context.Context, id string, demo bool) error
}
