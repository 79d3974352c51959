// Package models defines server-side records persisted in the database and
// the JSON shapes returned to clients.
package models

import "time"

// User is a wallet holder known to the platform.
type User struct {
	PublicAddress string    `json:"publicAddress"`
	NickName      string    `json:"nickName,omitempty"`
	AdminNFT      string    `json:"adminNFT,omitempty"`
	SuperAdmin    bool      `json:"superAdmin"`
	CreatedAt     time.Time `json:"creationDate"`
}

// Challenge is a single-use login nonce bound to an address.
type Challenge struct {
	Nonce         string
	PublicAddress string
	ExpiresAt     time.Time
}
