// Package auth issues and verifies session tokens and wallet challenges.
package auth

import "context"

// AuthContext identifies the caller of a request. The zero value is an
// anonymous caller.
type AuthContext struct {
	PublicAddress string
	SuperAdmin    bool
}

// Authenticated reports whether the context carries a wallet address.
func (a AuthContext) Authenticated() bool {
	return a.PublicAddress != ""
}

type ctxKey struct{}

// WithAuthContext returns a copy of ctx carrying a.
func WithAuthContext(ctx context.Context, a AuthContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the AuthContext stored in ctx, if any.
func FromContext(ctx context.Context) (AuthContext, bool) {
	a, ok := ctx.Value(ctxKey{}).(AuthContext)
	return a, ok
}
