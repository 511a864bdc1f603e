package models

import (
	"fmt"
	"time"
)

// Run records one batch invocation.
type Run struct {
	id               string
	Sequence         int
	Command          string
	StartedAt        time.Time
	FinishedAt       time.Time
	Total            int
	Rendered         int
	Failed           int
	CacheHits        int
	CacheMisses      int
	RemoteChecks     int
	Frozen           int
	Unfrozen         int
	PlaylistsRemoved int
	TracksRemoved    int
	ErrorMessage     string
}

// NewRun starts a run for command with the given id.
func NewRun(id, command string, started time.Time) *Run {
	return &Run{id: id, Command: command, StartedAt: started}
}

func (r *Run) ID() string           { return r.id }
func (r *Run) SetID(id string)      { r.id = id }
func (r *Run) CreatedAt() time.Time { return r.StartedAt }

// Elapsed returns the wall time of the run.
func (r *Run) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Run) Validate() error {
	if r.id == "" {
		return fmt.Errorf("run id is required")
	}
	if r.Command == "" {
		return fmt.Errorf("run command is required")
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("run start time is required")
	}
	if !r.FinishedAt.IsZero() && r.FinishedAt.Before(r.StartedAt) {
		return fmt.Errorf("run finished before it started")
	}
	return nil
}
