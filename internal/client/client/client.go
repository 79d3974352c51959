package client

import (
	"context"

	"github.com/afocalor/rair-dapp/internal/client/models"
)

// Client is the backend API as the wallet client uses it.
type Client interface {
	Ping(ctx context.Context) error

	GetUser(ctx context.Context, address string) (*models.User, error)
	RegisterUser(ctx context.Context, address, adminNFT string) (*models.User, error)

	// GetChallenge returns EIP-712 typed data JSON to be signed.
	GetChallenge(ctx context.Context, address string) (string, error)
	CheckAdmin(ctx context.Context, challenge, signature string) (bool, error)
	IssueToken(ctx context.Context, challenge, signature string) (string, error)

	// SetToken sets the session token sent with later requests.
	SetToken(token string)

	FilesForToken(ctx context.Context, tokenID string) ([]*models.File, error)
	StreamLink(ctx context.Context, fileID, tokenID string) (*models.StreamLink, error)
}
