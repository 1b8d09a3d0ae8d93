package model

import "time"

// ChangeType classifies a JobChange record.
type ChangeType string

const (
	ChangeAdded      ChangeType = "added"
	ChangeRemoved    ChangeType = "removed"
	ChangeModified   ChangeType = "modified"
	ChangeStale      ChangeType = "marked_stale"
	ChangeTrackStart ChangeType = "tracking_started"
	ChangeTrackStop  ChangeType = "tracking_stopped"
)

// JobChange is one immutable audit record. Only fields that actually
// changed are populated; everything else stays nil. JobID is empty for
// employer-level posting-count changes.
type JobChange struct {
	ID         string
	JobID      string
	EmployerID string
	Type       ChangeType

	PreviousTitle          *string
	NewTitle               *string
	PreviousLocation       *string
	NewLocation            *string
	PreviousDescription    *string
	NewDescription         *string
	PreviousSalaryMin      *int64
	NewSalaryMin           *int64
	PreviousSalaryMax      *int64
	NewSalaryMax           *int64
	PreviousSalaryCurrency *string
	NewSalaryCurrency      *string
	PreviousSalaryInterval *string
	NewSalaryInterval      *string
	PreviousJobsCount      *int
	NewJobsCount           *int

	CreatedAt time.Time
}

// Department is a canonical department with its matching keywords.
// Read-heavy; cached in-process by the classifier.
type Department struct {
	ID        string
	Name      string
	Keywords  []string
	CreatedAt time.Time
}
