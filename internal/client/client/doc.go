// Package client contains client-side building blocks for the rair wallet
// client.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     user bootstrap, the wallet challenge login, and token-gated file lookups.
//  2. A concrete REST implementation (see HTTPClient) that attaches the
//     session token as the X-rair-token header and maps HTTP status codes to
//     sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     SQLite session cache, applying embedded goose migrations.
//
// # Error Handling
//
// Callers match ErrUnavailable, ErrUnauthorized, ErrForbidden and ErrNotFound
// with errors.Is. An expired session additionally wraps
// common.ErrTokenExpired. Other failures surface as *APIError.
package client
