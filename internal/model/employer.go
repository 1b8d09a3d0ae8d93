package model

import "time"

// EmployerStatus controls whether an employer is polled.
type EmployerStatus string

const (
	EmployerActive   EmployerStatus = "active"
	EmployerInactive EmployerStatus = "inactive"
)

// Employer is a tracked company whose job board is polled. Employers are
// created by an external admin workflow; the reconciliation engine only
// mutates the count and timestamp fields.
type Employer struct {
	ID                string
	Name              string
	Source            SourceKind
	BoardIdentifier   string // ATS-specific slug
	BoardURL          string
	Status            EmployerStatus
	TotalJobsCount    int
	PreviousJobsCount int
	LastUpdated       *time.Time
	CreatedAt         time.Time
}

// EmployerUpdate is the post-cycle count/timestamp mutation for one
// employer. CountChanged marks whether the counts moved this cycle;
// LastUpdated is always refreshed.
type EmployerUpdate struct {
	EmployerID        string
	TotalJobsCount    int
	PreviousJobsCount int
	CountChanged      bool
	LastUpdated       time.Time
}
