package users

import (
	"context"

	"github.com/afocalor/rair-dapp/internal/server/models"
)

type Repository interface {
	// Create stores a new user. An existing address yields common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByAddress(ctx context.Context, address string) (*models.User, error)
}
