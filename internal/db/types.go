package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusEmpty     = "empty"
	RunStatusFailed    = "failed"
)

// Run represents a scrape run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	SourceURL   string     `json:"source_url"`
	Status      string     `json:"status"`
	Provenance  *string    `json:"provenance,omitempty"`
	Shape       *string    `json:"shape,omitempty"`
	Namespace   *string    `json:"namespace,omitempty"`
	RecordCount int        `json:"record_count"`
	Detail      *string    `json:"detail,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunCompletion holds the fields written when a run finishes.
type RunCompletion struct {
	Status      string
	Provenance  string
	Shape       string
	Namespace   string
	RecordCount int
	Detail      string
}
