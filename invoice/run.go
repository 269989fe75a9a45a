package invoice

import (
	"context"
	"time"
)

// RunKind identifies the operation a run performed.
type RunKind string

const (
	RunExport   RunKind = "export"
	RunRender   RunKind = "render"
	RunReminder RunKind = "reminder"
)

// RunState is the lifecycle state of a tracked run.
type RunState string

const (
	StateQueued    RunState = "queued"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateFailed    RunState = "failed"
)

// RunCounts aggregates per-run progress.
type RunCounts struct {
	Processed int64 `json:"processed"`
	Total     int64 `json:"total"`
	Errors    int64 `json:"errors"`
}

// RunRecord is the operational history entry for one export, render, or
// reminder run. Target holds the export format or template name.
type RunRecord struct {
	ID       string      `json:"id"`
	Kind     RunKind     `json:"kind"`
	Target   string      `json:"target,omitempty"`
	State    RunState    `json:"state"`
	Counts   RunCounts   `json:"counts"`
	Artifact ArtifactRef `json:"artifact,omitempty"`
	Failure  string      `json:"failure,omitempty"`

	CreatedAt   time.Time `json:"created_at,omitempty"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// RunFilter narrows a run history listing.
type RunFilter struct {
	Kind  RunKind
	State RunState
	Since time.Time
	Until time.Time
}

// RunTracker records run lifecycle transitions for operational history.
type RunTracker interface {
	Start(ctx context.Context, record RunRecord) (string, error)
	SetState(ctx context.Context, id string, state RunState) error
	Complete(ctx context.Context, id string, counts RunCounts) error
	Fail(ctx context.Context, id string, cause error) error
	SetArtifact(ctx context.Context, id string, ref ArtifactRef) error
	Status(ctx context.Context, id string) (RunRecord, error)
	List(ctx context.Context, filter RunFilter) ([]RunRecord, error)
	Delete(ctx context.Context, id string) error
}
