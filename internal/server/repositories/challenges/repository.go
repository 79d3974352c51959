// Package challenges declares the storage contract for login nonces.
package challenges

import (
	"context"
	"time"

	"github.com/afocalor/rair-dapp/internal/server/models"
)

// Repository stores single-use login challenges.
type Repository interface {
	Create(ctx context.Context, c *models.Challenge) error

	// Consume atomically removes and returns a challenge. A missing or
	// already used nonce yields common.ErrorNotFound.
	Consume(ctx context.Context, nonce string) (*models.Challenge, error)

	// DeleteExpired removes challenges that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
