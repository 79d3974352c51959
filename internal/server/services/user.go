package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/ethx"
	"github.com/afocalor/rair-dapp/internal/server/models"
	"github.com/afocalor/rair-dapp/internal/server/repositories/repomanager"
)

// UserService registers wallet holders and looks them up.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m}
}

// Get returns the user registered for address.
func (s *UserService) Get(ctx context.Context, address string) (*models.User, error) {
	addr, err := ethx.NormalizeAddress(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	return s.repomanager.Users(s.db).GetByAddress(ctx, addr)
}

// Register creates a user for address. New users never start as super-admins.
func (s *UserService) Register(ctx context.Context, address, adminNFT string) (*models.User, error) {
	addr, err := ethx.NormalizeAddress(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{PublicAddress: addr, AdminNFT: adminNFT})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}
