// Package cli provides the interactive rair wallet client.
//
// It wires configuration, the local session cache, the backend API client
// and a REPL. A user logs in by unlocking a private key, approving the
// signature of a server challenge, and can then list the files a token
// unlocks, fetch stream links and check how the route table treats a path.
//
// Key features:
//   - Login / Logout with a background token refresher
//   - Files unlocked by a token, stream links and downloads
//   - Route checks against the current session
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
