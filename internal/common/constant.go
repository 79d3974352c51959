// Package common contains shared constants and sentinel errors used across
// the rair-dapp server and client.
package common

// AccessTokenHeaderName is the HTTP header carrying the session token when
// the client does not send an Authorization bearer.
const AccessTokenHeaderName = "X-rair-token"

// AuthorizationScheme prefixes the token inside the Authorization header.
const AuthorizationScheme = "Bearer "
