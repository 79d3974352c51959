// Package models defines the records the wallet client receives from the
// rair backend.
package models

import "time"

// User is a wallet holder registered with the backend.
type User struct {
	PublicAddress string    `json:"publicAddress"`
	NickName      string    `json:"nickName,omitempty"`
	AdminNFT      string    `json:"adminNFT,omitempty"`
	SuperAdmin    bool      `json:"superAdmin"`
	CreatedAt     time.Time `json:"creationDate"`
}

type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// File is gated media metadata as served to clients.
type File struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Uploader  string    `json:"uploader"`
	Category  *Category `json:"category,omitempty"`
	Demo      bool      `json:"demo"`
	CreatedAt time.Time `json:"creationDate"`
}

// StreamLink is a presigned media URL. ExpiresIn is in seconds.
type StreamLink struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expiresIn"`
}
