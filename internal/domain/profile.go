package domain

import "time"

// ProfileRecord is a persisted style profile. Profile stays nil until the
// sources have been analyzed at least once.
type ProfileRecord struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	SourceAssetIDs []string      `json:"source_images"`
	Profile        *StyleProfile `json:"profile,omitempty"`
	Version        int           `json:"version"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
