package domain

import (
	"encoding/json"
	"time"
)

// JobKind enumerates the asynchronous work the worker understands.
type JobKind string

const (
	JobKindProfileAnalyze JobKind = "PROFILE_ANALYZE"
	JobKindRender         JobKind = "RENDER"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)

// Job is a queued unit of profile analysis or rendering.
type Job struct {
	ID           string          `json:"id"`
	Kind         JobKind         `json:"kind"`
	Status       JobStatus       `json:"status"`
	Payload      json.RawMessage `json:"payload"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProfileJobPayload is the payload of a PROFILE_ANALYZE job.
type ProfileJobPayload struct {
	ProfileID string `json:"profile_id"`
}
