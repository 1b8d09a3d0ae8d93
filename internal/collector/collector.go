// Package collector orchestrates a full collection cycle: it walks the
// active employers one by one, fetches each board through its source
// adapter, hands the snapshot to the reconciliation engine, and applies
// the resulting writes. One employer's failure never aborts the cycle.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/boardwatch/boardwatch/internal/model"
	"github.com/boardwatch/boardwatch/internal/reconcile"
	"github.com/boardwatch/boardwatch/internal/retry"
)

// ErrCollectionRunning is returned when a cycle is requested while another
// one is still in flight.
var ErrCollectionRunning = errors.New("collection cycle already running")

// DefaultEmployerDelay is the pause between consecutive employers within a
// cycle, keeping the upstream request pattern polite.
const DefaultEmployerDelay = 2 * time.Second

const (
	countUpdateAttempts = 3
	countUpdateBackoff  = 2 * time.Second
)

// AdapterFactory builds the source adapter for one employer.
type AdapterFactory func(employer model.Employer) (model.SourceAdapter, error)

type reconciler interface {
	Reconcile(ctx context.Context, employer model.Employer, fresh []model.RawPosting) (*reconcile.Result, error)
}

// Options tune a single cycle.
type Options struct {
	// Employer restricts the cycle to one employer, matched by id, name,
	// or board identifier (case-insensitive). Empty runs everyone.
	Employer string
	// DryRun computes and logs every diff but writes nothing.
	DryRun bool
}

// Summary aggregates one cycle's outcome across employers.
type Summary struct {
	Employers int
	Failed    int
	Added     int
	Updated   int
	Removed   int
	Stale     int
}

// Collector runs collection cycles. Safe for concurrent Run calls; only
// one cycle executes at a time and the rest are rejected with
// ErrCollectionRunning.
type Collector struct {
	store    model.Store
	engine   reconciler
	adapters AdapterFactory
	failures model.FailureSink
	delay    time.Duration
	logger   *slog.Logger

	mu sync.Mutex
}

// New creates a collector. A non-positive delay falls back to
// DefaultEmployerDelay.
func New(store model.Store, engine reconciler, adapters AdapterFactory, failures model.FailureSink, delay time.Duration, logger *slog.Logger) *Collector {
	if delay <= 0 {
		delay = DefaultEmployerDelay
	}
	return &Collector{
		store:    store,
		engine:   engine,
		adapters: adapters,
		failures: failures,
		delay:    delay,
		logger:   logger,
	}
}

// Busy reports whether a cycle is currently in flight. Best effort; a
// cycle may start right after it returns false.
func (c *Collector) Busy() bool {
	if c.mu.TryLock() {
		c.mu.Unlock()
		return false
	}
	return true
}

// Run executes one collection cycle.
func (c *Collector) Run(ctx context.Context, opts Options) (Summary, error) {
	if !c.mu.TryLock() {
		return Summary{}, ErrCollectionRunning
	}
	defer c.mu.Unlock()

	employers, err := c.store.ListActiveEmployers(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("listing employers: %w", err)
	}
	if opts.Employer != "" {
		employers = filterEmployers(employers, opts.Employer)
		if len(employers) == 0 {
			return Summary{}, fmt.Errorf("no active employer matches %q", opts.Employer)
		}
	}

	c.logger.Info("collection cycle starting", "employers", len(employers), "dry_run", opts.DryRun)
	started := time.Now()

	var sum Summary
	for i, emp := range employers {
		if i > 0 {
			if err := sleep(ctx, c.delay); err != nil {
				return sum, err
			}
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		sum.Employers++
		res, err := c.collectOne(ctx, emp, opts.DryRun)
		if err != nil {
			sum.Failed++
			c.logger.Error("employer collection failed",
				"employer", emp.Name,
				"source", emp.Source,
				"error", err,
			)
			c.failures.Record(ctx, model.UpstreamFailure{
				EmployerID:   emp.ID,
				EmployerName: emp.Name,
				Source:       emp.Source,
				Message:      err.Error(),
				OccurredAt:   time.Now().UTC(),
			})
			continue
		}

		sum.Added += len(res.Added)
		sum.Updated += len(res.Updated)
		sum.Removed += len(res.Removed)
		sum.Stale += len(res.Stale)
	}

	c.logger.Info("collection cycle finished",
		"employers", sum.Employers,
		"failed", sum.Failed,
		"added", sum.Added,
		"removed", sum.Removed,
		"stale", sum.Stale,
		"took", time.Since(started).Round(time.Millisecond),
	)
	return sum, nil
}

func (c *Collector) collectOne(ctx context.Context, emp model.Employer, dryRun bool) (*reconcile.Result, error) {
	adapter, err := c.adapters(emp)
	if err != nil {
		return nil, fmt.Errorf("building adapter: %w", err)
	}

	fresh, err := adapter.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching board: %w", err)
	}

	res, err := c.engine.Reconcile(ctx, emp, fresh)
	if err != nil {
		return nil, fmt.Errorf("reconciling: %w", err)
	}

	if dryRun {
		c.logger.Info("dry run, skipping writes",
			"employer", emp.Name,
			"added", len(res.Added),
			"updated", len(res.Updated),
			"removed", len(res.Removed),
			"stale", len(res.Stale),
			"changes", len(res.Changes),
		)
		return res, nil
	}

	if err := c.apply(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// apply persists a reconciliation result. Jobs go first so that location
// and change rows always reference persisted jobs; the employer count
// update goes last and is retried because it is the cycle's commit point.
func (c *Collector) apply(ctx context.Context, res *reconcile.Result) error {
	if jobs := res.Jobs(); len(jobs) > 0 {
		if err := c.store.UpsertJobs(ctx, jobs); err != nil {
			return fmt.Errorf("upserting jobs: %w", err)
		}
	}
	if len(res.LocationAdds) > 0 {
		if err := c.store.AddJobLocations(ctx, res.LocationAdds); err != nil {
			return fmt.Errorf("adding job locations: %w", err)
		}
	}
	if len(res.LocationRemovals) > 0 {
		if err := c.store.RemoveJobLocations(ctx, res.LocationRemovals); err != nil {
			return fmt.Errorf("removing job locations: %w", err)
		}
	}
	if len(res.Changes) > 0 {
		if err := c.store.InsertChanges(ctx, res.Changes); err != nil {
			return fmt.Errorf("inserting changes: %w", err)
		}
	}

	err := retry.Do(ctx, countUpdateAttempts, countUpdateBackoff, func() error {
		return c.store.UpdateEmployerCounts(ctx, res.Employer)
	})
	if err != nil {
		return fmt.Errorf("updating employer counts: %w", err)
	}
	return nil
}

func filterEmployers(employers []model.Employer, needle string) []model.Employer {
	needle = strings.ToLower(needle)
	var out []model.Employer
	for _, e := range employers {
		if strings.ToLower(e.ID) == needle ||
			strings.ToLower(e.Name) == needle ||
			strings.ToLower(e.BoardIdentifier) == needle {
			out = append(out, e)
		}
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
