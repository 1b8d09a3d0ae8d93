package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/boardwatch/boardwatch/internal/model"
	"github.com/boardwatch/boardwatch/internal/reconcile"
)

type fakeStore struct {
	employers []model.Employer

	upsertedJobs     []model.Job
	addedLocations   []model.JobLocation
	removedLocations []model.JobLocation
	insertedChanges  []model.JobChange
	countUpdates     []model.EmployerUpdate

	countUpdateErr error
	listErr        error
}

func (f *fakeStore) ListActiveEmployers(ctx context.Context) ([]model.Employer, error) {
	return f.employers, f.listErr
}
func (f *fakeStore) ListJobs(ctx context.Context, employerID string) ([]model.Job, error) {
	return nil, nil
}
func (f *fakeStore) ListJobLocations(ctx context.Context, employerID string) ([]model.JobLocation, error) {
	return nil, nil
}
func (f *fakeStore) UpsertJobs(ctx context.Context, jobs []model.Job) error {
	f.upsertedJobs = append(f.upsertedJobs, jobs...)
	return nil
}
func (f *fakeStore) AddJobLocations(ctx context.Context, locs []model.JobLocation) error {
	f.addedLocations = append(f.addedLocations, locs...)
	return nil
}
func (f *fakeStore) RemoveJobLocations(ctx context.Context, locs []model.JobLocation) error {
	f.removedLocations = append(f.removedLocations, locs...)
	return nil
}
func (f *fakeStore) InsertChanges(ctx context.Context, changes []model.JobChange) error {
	f.insertedChanges = append(f.insertedChanges, changes...)
	return nil
}
func (f *fakeStore) ListRecentChanges(ctx context.Context, limit int) ([]model.JobChange, error) {
	return nil, nil
}
func (f *fakeStore) PruneChanges(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}
func (f *fakeStore) UpdateEmployerCounts(ctx context.Context, upd model.EmployerUpdate) error {
	if f.countUpdateErr != nil {
		return f.countUpdateErr
	}
	f.countUpdates = append(f.countUpdates, upd)
	return nil
}
func (f *fakeStore) ListDepartments(ctx context.Context) ([]model.Department, error) {
	return nil, nil
}
func (f *fakeStore) UpsertDepartment(ctx context.Context, d model.Department) error {
	return nil
}
func (f *fakeStore) RecordUpstreamFailure(ctx context.Context, rec model.UpstreamFailure) error {
	return nil
}
func (f *fakeStore) Close() error { return nil }

type fakeEngine struct {
	results map[string]*reconcile.Result
	err     error
}

func (f *fakeEngine) Reconcile(ctx context.Context, employer model.Employer, fresh []model.RawPosting) (*reconcile.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if res, ok := f.results[employer.ID]; ok {
		return res, nil
	}
	return &reconcile.Result{Employer: model.EmployerUpdate{EmployerID: employer.ID}}, nil
}

type fakeSink struct {
	records []model.UpstreamFailure
}

func (f *fakeSink) Record(ctx context.Context, rec model.UpstreamFailure) {
	f.records = append(f.records, rec)
}

type stubAdapter struct {
	postings []model.RawPosting
	err      error
}

func (s *stubAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	return s.postings, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func twoEmployers() []model.Employer {
	return []model.Employer{
		{ID: "emp-1", Name: "Acme", Source: model.SourceAshby, BoardIdentifier: "acme", Status: model.EmployerActive},
		{ID: "emp-2", Name: "Globex", Source: model.SourceGreenhouse, BoardIdentifier: "globex", Status: model.EmployerActive},
	}
}

func factoryFor(adapters map[string]model.SourceAdapter) AdapterFactory {
	return func(emp model.Employer) (model.SourceAdapter, error) {
		a, ok := adapters[emp.ID]
		if !ok {
			return nil, errors.New("no adapter")
		}
		return a, nil
	}
}

func TestRun_AppliesResults(t *testing.T) {
	store := &fakeStore{employers: twoEmployers()}
	engine := &fakeEngine{results: map[string]*reconcile.Result{
		"emp-1": {
			Added:        []model.Job{{ID: "j1", EmployerID: "emp-1"}},
			Changes:      []model.JobChange{{ID: "c1", EmployerID: "emp-1", Type: model.ChangeAdded}},
			LocationAdds: []model.JobLocation{{ID: "l1", JobID: "j1", Location: "Remote"}},
			Employer:     model.EmployerUpdate{EmployerID: "emp-1", TotalJobsCount: 1, CountChanged: true},
		},
	}}
	sink := &fakeSink{}
	c := New(store, engine, factoryFor(map[string]model.SourceAdapter{
		"emp-1": &stubAdapter{},
		"emp-2": &stubAdapter{},
	}), sink, time.Millisecond, testLogger())

	sum, err := c.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if sum.Employers != 2 || sum.Failed != 0 || sum.Added != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if len(store.upsertedJobs) != 1 || store.upsertedJobs[0].ID != "j1" {
		t.Errorf("upserted jobs = %+v", store.upsertedJobs)
	}
	if len(store.addedLocations) != 1 {
		t.Errorf("added locations = %+v", store.addedLocations)
	}
	if len(store.insertedChanges) != 1 {
		t.Errorf("inserted changes = %+v", store.insertedChanges)
	}
	// Both employers commit a count update even when nothing changed.
	if len(store.countUpdates) != 2 {
		t.Errorf("count updates = %+v", store.countUpdates)
	}
	if len(sink.records) != 0 {
		t.Errorf("failure records = %+v", sink.records)
	}
}

func TestRun_FailureIsIsolated(t *testing.T) {
	store := &fakeStore{employers: twoEmployers()}
	sink := &fakeSink{}
	c := New(store, &fakeEngine{}, factoryFor(map[string]model.SourceAdapter{
		"emp-1": &stubAdapter{err: &model.UpstreamError{Source: model.SourceAshby, Status: 500}},
		"emp-2": &stubAdapter{},
	}), sink, time.Millisecond, testLogger())

	sum, err := c.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if sum.Employers != 2 || sum.Failed != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if len(sink.records) != 1 {
		t.Fatalf("failure records = %+v, want 1", sink.records)
	}
	rec := sink.records[0]
	if rec.EmployerID != "emp-1" || rec.Source != model.SourceAshby || rec.Message == "" {
		t.Errorf("record = %+v", rec)
	}
	// The healthy employer still committed.
	if len(store.countUpdates) != 1 || store.countUpdates[0].EmployerID != "emp-2" {
		t.Errorf("count updates = %+v", store.countUpdates)
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	store := &fakeStore{employers: twoEmployers()[:1]}
	engine := &fakeEngine{results: map[string]*reconcile.Result{
		"emp-1": {
			Added:    []model.Job{{ID: "j1", EmployerID: "emp-1"}},
			Changes:  []model.JobChange{{ID: "c1", Type: model.ChangeAdded}},
			Employer: model.EmployerUpdate{EmployerID: "emp-1", TotalJobsCount: 1, CountChanged: true},
		},
	}}
	c := New(store, engine, factoryFor(map[string]model.SourceAdapter{
		"emp-1": &stubAdapter{},
	}), &fakeSink{}, time.Millisecond, testLogger())

	sum, err := c.Run(context.Background(), Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if sum.Added != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if len(store.upsertedJobs)+len(store.insertedChanges)+len(store.countUpdates) != 0 {
		t.Error("dry run performed store writes")
	}
}

func TestRun_EmployerFilter(t *testing.T) {
	store := &fakeStore{employers: twoEmployers()}
	c := New(store, &fakeEngine{}, factoryFor(map[string]model.SourceAdapter{
		"emp-1": &stubAdapter{},
		"emp-2": &stubAdapter{},
	}), &fakeSink{}, time.Millisecond, testLogger())

	sum, err := c.Run(context.Background(), Options{Employer: "globex"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if sum.Employers != 1 {
		t.Errorf("summary = %+v, want one employer", sum)
	}
	if len(store.countUpdates) != 1 || store.countUpdates[0].EmployerID != "emp-2" {
		t.Errorf("count updates = %+v", store.countUpdates)
	}

	if _, err := c.Run(context.Background(), Options{Employer: "nope"}); err == nil {
		t.Error("unknown employer filter did not error")
	}
}

func TestRun_SingleFlight(t *testing.T) {
	c := New(&fakeStore{}, &fakeEngine{}, factoryFor(nil), &fakeSink{}, time.Millisecond, testLogger())

	c.mu.Lock()
	_, err := c.Run(context.Background(), Options{})
	c.mu.Unlock()

	if !errors.Is(err, ErrCollectionRunning) {
		t.Errorf("error = %v, want ErrCollectionRunning", err)
	}
}

func TestRun_ContextCancelBetweenEmployers(t *testing.T) {
	store := &fakeStore{employers: twoEmployers()}
	c := New(store, &fakeEngine{}, factoryFor(map[string]model.SourceAdapter{
		"emp-1": &stubAdapter{},
		"emp-2": &stubAdapter{},
	}), &fakeSink{}, 50*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	sum, err := c.Run(ctx, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if sum.Employers != 1 {
		t.Errorf("processed %d employers before cancel, want 1", sum.Employers)
	}
}
