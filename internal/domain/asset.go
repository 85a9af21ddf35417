package domain

import "time"

// AssetKind enumerates asset types.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
)

// Asset is a registered reference or source image. Each id resolves to
// exactly one storage key.
type Asset struct {
	ID         string         `json:"id"`
	Kind       AssetKind      `json:"type"`
	StorageKey string         `json:"storage_key"`
	Filename   string         `json:"filename"`
	MimeType   string         `json:"mime_type"`
	SizeBytes  int64          `json:"size_bytes"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	UploadedAt time.Time      `json:"uploaded_at"`
}
