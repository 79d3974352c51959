package models

import "time"

// Category groups files for browsing.
type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// File is gated media metadata. Key is the content secret and is never
// serialised back to clients.
type File struct {
	ID         string    `json:"_id"`
	Title      string    `json:"title"`
	Uploader   string    `json:"uploader"`
	CategoryID string    `json:"-"`
	Category   *Category `json:"category,omitempty"`
	Key        string    `json:"-"`
	Demo       bool      `json:"demo"`
	CreatedAt  time.Time `json:"creationDate"`
}

// FileFilter narrows ListFiles. Empty fields do not filter.
type FileFilter struct {
	Title      string
	CategoryID string
	Uploader   string
	Demo       *bool
}

// FilePage is one page of a category listing.
type FilePage struct {
	Files      []*File
	TotalCount int64
}
