// Package state persists extraction results to a local SQLite database so
// runs can be inspected and compared after the fact.
package state

import "time"

// RunStatus is the lifecycle state of an extraction run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded extraction run.
type Run struct {
	ID          string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// RepositorySummary is the stored footprint of one repository's result.
type RepositorySummary struct {
	ID      string
	RunID   string
	Name    string
	Tables  int
	Queries int
}
