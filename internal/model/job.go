package model

import (
	"context"
	"strings"
	"time"
)

// SourceKind identifies the ATS a posting came from.
type SourceKind string

const (
	SourceAshby      SourceKind = "ashby"
	SourceGreenhouse SourceKind = "greenhouse"
)

// JobStatus is the lifecycle state of a persisted job.
// Transitions: active ⇄ inactive (removal/reappearance) and
// active → stale → active (60-day idleness, reappearance). There is no
// direct inactive ⇄ stale transition.
type JobStatus string

const (
	JobActive   JobStatus = "active"
	JobInactive JobStatus = "inactive"
	JobStale    JobStatus = "stale"
)

// SalaryInterval is the pay period of a salary range.
type SalaryInterval string

const (
	IntervalYearly  SalaryInterval = "yearly"
	IntervalMonthly SalaryInterval = "monthly"
	IntervalHourly  SalaryInterval = "hourly"
)

// SalaryRange is a normalized salary. All fields may be unset when the
// upstream posting carries no usable compensation data.
type SalaryRange struct {
	Min      *int64
	Max      *int64
	Currency string
	Interval SalaryInterval
}

// IsZero reports whether no salary information is present.
func (s SalaryRange) IsZero() bool {
	return s.Min == nil && s.Max == nil && s.Currency == "" && s.Interval == ""
}

// Equal compares two salary ranges field by field.
func (s SalaryRange) Equal(o SalaryRange) bool {
	return int64PtrEqual(s.Min, o.Min) &&
		int64PtrEqual(s.Max, o.Max) &&
		s.Currency == o.Currency &&
		s.Interval == o.Interval
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// RawPosting is the adapter output: one posting normalized out of an
// upstream API response. It is ephemeral and never persisted as-is.
// ExternalID is stable across polls for the same posting; everything
// else may change between polls.
type RawPosting struct {
	ExternalID  string
	Title       string
	Description string
	Locations   []string
	Department  string
	URL         string
	Salary      SalaryRange
}

// Location returns the denormalized joined location string.
func (p RawPosting) Location() string {
	return strings.Join(p.Locations, ", ")
}

// Job is the persisted canonical posting. (EmployerID, ExternalID) is the
// unique key joining fresh postings to stored state.
type Job struct {
	ID             string
	EmployerID     string
	ExternalID     string
	Title          string
	Description    string
	Location       string // joined string; atomic values live in JobLocation
	DepartmentID   string // empty = unclassified
	DepartmentRaw  string
	Salary         SalaryRange
	URL            string
	IsRemote       bool
	Status         JobStatus
	LastChange     time.Time
	LastSeenActive time.Time
	CreatedAt      time.Time
}

// JobLocation is one atomic location of a job, produced by splitting the
// job's raw location string.
type JobLocation struct {
	ID       string
	JobID    string
	Location string
	IsRemote bool
}

// SourceAdapter fetches postings from one employer's board on one ATS.
type SourceAdapter interface {
	Fetch(ctx context.Context) ([]RawPosting, error)
}
