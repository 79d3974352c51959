// Package metadata stores small client-side key/value facts, such as the
// cached session token and the wallet address it was issued to.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyToken       = "session_token"
	KeyAddress     = "session_address"
	KeyAdminAccess = "session_admin"
)

type Repository interface {
	// Get returns (nil, nil) for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
