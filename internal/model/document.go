package model

import "time"

// Document is a previewable catalog entry.  DocumentPath always references a
// stored binary; ThumbnailPath is nil when no thumbnail was ever uploaded.
// Once a path is set, an update or delete removes the old file from disk
// before the reference changes, so rows never point at missing files.
type Document struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PreviewText   *string   `json:"preview_text"`
	Category      string    `json:"category"`
	DocumentPath  string    `json:"document_path"`
	ThumbnailPath *string   `json:"thumbnail_path"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
