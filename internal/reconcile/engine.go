// Package reconcile diffs a fresh snapshot of an employer's board against
// stored state and produces the writes that bring the store up to date:
// job upserts, atomic location adds/removals, change records, and the
// employer count update.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/boardwatch/boardwatch/internal/extract"
	"github.com/boardwatch/boardwatch/internal/model"
)

// DefaultStaleAfter is how long a job may go without any detected change
// before it is marked stale.
const DefaultStaleAfter = 60 * 24 * time.Hour

type storeReader interface {
	ListJobs(ctx context.Context, employerID string) ([]model.Job, error)
	ListJobLocations(ctx context.Context, employerID string) ([]model.JobLocation, error)
}

type classifier interface {
	Classify(ctx context.Context, rawDepartment, title, description string) (string, error)
}

// Result is one employer's reconciliation outcome. The groups partition
// the touched jobs; Changes, LocationAdds and LocationRemovals are the
// corresponding audit and location writes. Everything is computed, nothing
// is persisted.
type Result struct {
	Added   []model.Job
	Updated []model.Job // refreshed or modified, still active
	Removed []model.Job
	Stale   []model.Job

	Changes          []model.JobChange
	LocationAdds     []model.JobLocation
	LocationRemovals []model.JobLocation

	Employer model.EmployerUpdate
}

// Jobs returns every job touched this cycle, in apply order.
func (r *Result) Jobs() []model.Job {
	out := make([]model.Job, 0, len(r.Added)+len(r.Updated)+len(r.Removed)+len(r.Stale))
	out = append(out, r.Added...)
	out = append(out, r.Updated...)
	out = append(out, r.Removed...)
	out = append(out, r.Stale...)
	return out
}

// Engine computes reconciliation results. It reads stored state and
// classifies departments but never writes; applying a Result is the
// caller's job.
type Engine struct {
	store      storeReader
	classifier classifier
	staleAfter time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewEngine creates an engine. A non-positive staleAfter falls back to
// DefaultStaleAfter.
func NewEngine(store storeReader, classifier classifier, staleAfter time.Duration, logger *slog.Logger) *Engine {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Engine{
		store:      store,
		classifier: classifier,
		staleAfter: staleAfter,
		now:        time.Now,
		logger:     logger,
	}
}

// Reconcile diffs fresh postings against the employer's stored jobs.
//
// A posting new to the store is Added. A stored job matching a fresh
// posting is Updated; if a tracked field differs a modified change is
// recorded, and a previously inactive or stale job reappearing is recorded
// as added again. A stored active job absent from the snapshot is Removed.
// An active job whose last change is older than the stale window, and which
// this snapshot did not touch, is marked Stale. Unchanged active jobs get a
// silent last-seen refresh.
func (e *Engine) Reconcile(ctx context.Context, employer model.Employer, fresh []model.RawPosting) (*Result, error) {
	stored, err := e.store.ListJobs(ctx, employer.ID)
	if err != nil {
		return nil, fmt.Errorf("listing jobs for %s: %w", employer.Name, err)
	}
	storedLocs, err := e.store.ListJobLocations(ctx, employer.ID)
	if err != nil {
		return nil, fmt.Errorf("listing job locations for %s: %w", employer.Name, err)
	}

	now := e.now().UTC()
	byExternalID := make(map[string]model.Job, len(stored))
	for _, j := range stored {
		byExternalID[j.ExternalID] = j
	}

	res := &Result{}
	seen := make(map[string]bool, len(fresh))

	for _, p := range fresh {
		if p.ExternalID == "" {
			continue
		}
		if seen[p.ExternalID] {
			continue // duplicate posting in one snapshot
		}
		seen[p.ExternalID] = true

		existing, ok := byExternalID[p.ExternalID]
		if !ok {
			job, err := e.newJob(ctx, employer, p, now)
			if err != nil {
				return nil, err
			}
			res.Added = append(res.Added, job)
			res.Changes = append(res.Changes, addedChange(job, now))
			continue
		}

		if existing.Status != model.JobActive {
			// Reappearance of an inactive or stale job. Recorded as an
			// addition so the audit trail reads naturally.
			job, err := e.refreshJob(ctx, existing, p, now)
			if err != nil {
				return nil, err
			}
			res.Updated = append(res.Updated, job)
			res.Changes = append(res.Changes, addedChange(job, now))
			continue
		}

		if change, differs := diffJob(existing, p, now); differs {
			job, err := e.refreshJob(ctx, existing, p, now)
			if err != nil {
				return nil, err
			}
			res.Updated = append(res.Updated, job)
			res.Changes = append(res.Changes, change)
			continue
		}

		// Unchanged and active. Either it has idled past the stale window
		// or it just gets its last-seen timestamp refreshed. The window is
		// strict: a job exactly at the boundary is not yet stale.
		if now.Sub(existing.LastChange) > e.staleAfter {
			job := existing
			job.Status = model.JobStale
			job.LastChange = now
			job.LastSeenActive = now
			res.Stale = append(res.Stale, job)
			res.Changes = append(res.Changes, staleChange(job, existing.Title, now))
			continue
		}

		job := existing
		job.LastSeenActive = now
		res.Updated = append(res.Updated, job)
	}

	for _, existing := range stored {
		if seen[existing.ExternalID] || existing.Status != model.JobActive {
			continue
		}
		job := existing
		job.Status = model.JobInactive
		job.LastChange = now
		res.Removed = append(res.Removed, job)
		res.Changes = append(res.Changes, removedChange(job, existing, now))
	}

	adds, removals := diffLocations(res, fresh, stored, storedLocs, seen)
	res.LocationAdds = adds
	res.LocationRemovals = removals

	total := len(seen)
	res.Employer = model.EmployerUpdate{
		EmployerID:        employer.ID,
		TotalJobsCount:    total,
		PreviousJobsCount: employer.TotalJobsCount,
		CountChanged:      total != employer.TotalJobsCount,
		LastUpdated:       now,
	}
	if res.Employer.CountChanged {
		res.Changes = append(res.Changes, countChange(employer, total, now))
	}

	e.logger.Debug("reconciled employer",
		"employer", employer.Name,
		"fresh", total,
		"added", len(res.Added),
		"updated", len(res.Updated),
		"removed", len(res.Removed),
		"stale", len(res.Stale),
	)

	return res, nil
}

func (e *Engine) newJob(ctx context.Context, employer model.Employer, p model.RawPosting, now time.Time) (model.Job, error) {
	deptID, err := e.classifier.Classify(ctx, p.Department, p.Title, p.Description)
	if err != nil {
		return model.Job{}, fmt.Errorf("classifying %q: %w", p.Title, err)
	}
	return model.Job{
		ID:             uuid.NewString(),
		EmployerID:     employer.ID,
		ExternalID:     p.ExternalID,
		Title:          p.Title,
		Description:    p.Description,
		Location:       p.Location(),
		DepartmentID:   deptID,
		DepartmentRaw:  p.Department,
		Salary:         p.Salary,
		URL:            p.URL,
		IsRemote:       anyRemote(p.Locations),
		Status:         model.JobActive,
		LastChange:     now,
		LastSeenActive: now,
		CreatedAt:      now,
	}, nil
}

// refreshJob overlays fresh posting fields onto a stored job and
// reclassifies its department when the classification inputs moved.
func (e *Engine) refreshJob(ctx context.Context, existing model.Job, p model.RawPosting, now time.Time) (model.Job, error) {
	job := existing
	job.Title = p.Title
	job.Description = p.Description
	job.Location = p.Location()
	job.Salary = p.Salary
	job.URL = p.URL
	job.IsRemote = anyRemote(p.Locations)
	job.Status = model.JobActive
	job.LastChange = now
	job.LastSeenActive = now

	if existing.Title != p.Title || existing.Description != p.Description || existing.DepartmentRaw != p.Department {
		deptID, err := e.classifier.Classify(ctx, p.Department, p.Title, p.Description)
		if err != nil {
			return model.Job{}, fmt.Errorf("classifying %q: %w", p.Title, err)
		}
		job.DepartmentID = deptID
	}
	job.DepartmentRaw = p.Department

	return job, nil
}

func anyRemote(locations []string) bool {
	for _, loc := range atomicLocations(locations) {
		if extract.IsRemote(loc) {
			return true
		}
	}
	return false
}

// atomicLocations splits each raw location into atomic location strings,
// dropping duplicates while keeping first-seen order. Adapters may hand
// over combined strings like "New York, London"; the JobLocation set is
// always stored atomic.
func atomicLocations(raw []string) []string {
	var out []string
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		for _, loc := range extract.SplitLocation(r) {
			if !seen[loc] {
				seen[loc] = true
				out = append(out, loc)
			}
		}
	}
	return out
}

// diffJob compares the tracked fields of a stored job against a fresh
// posting and builds a modified change holding only the pairs that differ.
func diffJob(existing model.Job, p model.RawPosting, now time.Time) (model.JobChange, bool) {
	change := model.JobChange{
		ID:         uuid.NewString(),
		JobID:      existing.ID,
		EmployerID: existing.EmployerID,
		Type:       model.ChangeModified,
		CreatedAt:  now,
	}
	differs := false

	if existing.Title != p.Title {
		change.PreviousTitle = strPtr(existing.Title)
		change.NewTitle = strPtr(p.Title)
		differs = true
	}
	if loc := p.Location(); existing.Location != loc {
		change.PreviousLocation = strPtr(existing.Location)
		change.NewLocation = strPtr(loc)
		differs = true
	}
	if existing.Description != p.Description {
		change.PreviousDescription = strPtr(existing.Description)
		change.NewDescription = strPtr(p.Description)
		differs = true
	}
	if !existing.Salary.Equal(p.Salary) {
		change.PreviousSalaryMin = existing.Salary.Min
		change.NewSalaryMin = p.Salary.Min
		change.PreviousSalaryMax = existing.Salary.Max
		change.NewSalaryMax = p.Salary.Max
		if existing.Salary.Currency != "" {
			change.PreviousSalaryCurrency = strPtr(existing.Salary.Currency)
		}
		if p.Salary.Currency != "" {
			change.NewSalaryCurrency = strPtr(p.Salary.Currency)
		}
		if existing.Salary.Interval != "" {
			change.PreviousSalaryInterval = strPtr(string(existing.Salary.Interval))
		}
		if p.Salary.Interval != "" {
			change.NewSalaryInterval = strPtr(string(p.Salary.Interval))
		}
		differs = true
	}

	return change, differs
}

func addedChange(job model.Job, now time.Time) model.JobChange {
	c := model.JobChange{
		ID:             uuid.NewString(),
		JobID:          job.ID,
		EmployerID:     job.EmployerID,
		Type:           model.ChangeAdded,
		NewTitle:       strPtr(job.Title),
		NewLocation:    strPtr(job.Location),
		NewDescription: strPtr(job.Description),
		CreatedAt:      now,
	}
	if !job.Salary.IsZero() {
		c.NewSalaryMin = job.Salary.Min
		c.NewSalaryMax = job.Salary.Max
		if job.Salary.Currency != "" {
			c.NewSalaryCurrency = strPtr(job.Salary.Currency)
		}
		if job.Salary.Interval != "" {
			c.NewSalaryInterval = strPtr(string(job.Salary.Interval))
		}
	}
	return c
}

func removedChange(job, previous model.Job, now time.Time) model.JobChange {
	return model.JobChange{
		ID:               uuid.NewString(),
		JobID:            job.ID,
		EmployerID:       job.EmployerID,
		Type:             model.ChangeRemoved,
		PreviousTitle:    strPtr(previous.Title),
		PreviousLocation: strPtr(previous.Location),
		CreatedAt:        now,
	}
}

func staleChange(job model.Job, previousTitle string, now time.Time) model.JobChange {
	return model.JobChange{
		ID:            uuid.NewString(),
		JobID:         job.ID,
		EmployerID:    job.EmployerID,
		Type:          model.ChangeStale,
		PreviousTitle: strPtr(previousTitle),
		CreatedAt:     now,
	}
}

// countChange is the employer-level record emitted when the board's total
// posting count moves. JobID stays empty.
func countChange(employer model.Employer, total int, now time.Time) model.JobChange {
	prev := employer.TotalJobsCount
	return model.JobChange{
		ID:                uuid.NewString(),
		EmployerID:        employer.ID,
		Type:              model.ChangeModified,
		PreviousJobsCount: &prev,
		NewJobsCount:      &total,
		CreatedAt:         now,
	}
}

// diffLocations computes atomic location adds and removals for every job
// present in the fresh snapshot. Locations of removed jobs are left in
// place as history.
func diffLocations(res *Result, fresh []model.RawPosting, stored []model.Job, storedLocs []model.JobLocation, seen map[string]bool) (adds, removals []model.JobLocation) {
	jobIDByExternal := make(map[string]string, len(stored))
	for _, j := range stored {
		jobIDByExternal[j.ExternalID] = j.ID
	}
	for _, j := range res.Added {
		jobIDByExternal[j.ExternalID] = j.ID
	}

	locsByJob := make(map[string]map[string]model.JobLocation, len(storedLocs))
	for _, l := range storedLocs {
		m := locsByJob[l.JobID]
		if m == nil {
			m = make(map[string]model.JobLocation)
			locsByJob[l.JobID] = m
		}
		m[l.Location] = l
	}

	handled := make(map[string]bool, len(fresh))
	for _, p := range fresh {
		if p.ExternalID == "" || handled[p.ExternalID] || !seen[p.ExternalID] {
			continue
		}
		handled[p.ExternalID] = true

		jobID := jobIDByExternal[p.ExternalID]
		if jobID == "" {
			continue
		}

		atoms := atomicLocations(p.Locations)
		want := make(map[string]bool, len(atoms))
		for _, loc := range atoms {
			want[loc] = true
			if _, exists := locsByJob[jobID][loc]; !exists {
				adds = append(adds, model.JobLocation{
					ID:       uuid.NewString(),
					JobID:    jobID,
					Location: loc,
					IsRemote: extract.IsRemote(loc),
				})
			}
		}
		for loc, stored := range locsByJob[jobID] {
			if !want[loc] {
				removals = append(removals, stored)
			}
		}
	}

	return adds, removals
}

func strPtr(s string) *string {
	return &s
}
