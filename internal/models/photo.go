package models

import "time"

type Photo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// NewPhoto is the create input; ID and UploadedAt are assigned by the store.
type NewPhoto struct {
	Filename string
	URL      string
}
