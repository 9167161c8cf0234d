package model

import "time"

// RunStatus tracks the lifecycle of one fact-table rebuild.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// BuildRun is an audit record for one wholesale rebuild of the fact table.
type BuildRun struct {
	ID         string
	Status     RunStatus
	Collisions int
	Buildings  int
	Pairs      int
	Skipped    int
	StartedAt  time.Time
	FinishedAt *time.Time
}
