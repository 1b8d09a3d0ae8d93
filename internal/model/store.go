package model

import (
	"context"
	"time"
)

// Store is the reconciliation pipeline's sole persistence boundary.
// Implementations must enforce the (employer_id, external_id) unique key
// on jobs.
type Store interface {
	ListActiveEmployers(ctx context.Context) ([]Employer, error)
	ListJobs(ctx context.Context, employerID string) ([]Job, error)
	ListJobLocations(ctx context.Context, employerID string) ([]JobLocation, error)
	UpsertJobs(ctx context.Context, jobs []Job) error
	AddJobLocations(ctx context.Context, locs []JobLocation) error
	RemoveJobLocations(ctx context.Context, locs []JobLocation) error
	InsertChanges(ctx context.Context, changes []JobChange) error
	ListRecentChanges(ctx context.Context, limit int) ([]JobChange, error)
	PruneChanges(ctx context.Context, olderThan time.Duration) (int64, error)
	UpdateEmployerCounts(ctx context.Context, upd EmployerUpdate) error
	ListDepartments(ctx context.Context) ([]Department, error)
	UpsertDepartment(ctx context.Context, d Department) error
	RecordUpstreamFailure(ctx context.Context, f UpstreamFailure) error
	Close() error
}

// UpstreamFailure is the telemetry record written when one employer's
// fetch or reconciliation fails for a cycle.
type UpstreamFailure struct {
	EmployerID   string
	EmployerName string
	Source       SourceKind
	Message      string
	OccurredAt   time.Time
}

// FailureSink receives upstream failure records. Fire-and-forget:
// implementations swallow their own errors.
type FailureSink interface {
	Record(ctx context.Context, f UpstreamFailure)
}
