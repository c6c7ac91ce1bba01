package model

import "time"

// Service is a catalog entry for an offered service.  ImagePath references
// an uploaded file under the uploads root and is nil until an image has been
// uploaded for the slot.
type Service struct {
	ID              uint64    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	LongDescription *string   `json:"long_description"`
	ImagePath       *string   `json:"image_path"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
