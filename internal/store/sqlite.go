package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/boardwatch/boardwatch/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS employers (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	source              TEXT NOT NULL,
	board_identifier    TEXT NOT NULL,
	board_url           TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'active',
	total_jobs_count    INTEGER NOT NULL DEFAULT 0,
	previous_jobs_count INTEGER NOT NULL DEFAULT 0,
	last_updated        TEXT,
	created_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id               TEXT PRIMARY KEY,
	employer_id      TEXT NOT NULL REFERENCES employers(id),
	external_id      TEXT NOT NULL,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	department_id    TEXT NOT NULL DEFAULT '',
	department_raw   TEXT NOT NULL DEFAULT '',
	salary_min       INTEGER,
	salary_max       INTEGER,
	salary_currency  TEXT NOT NULL DEFAULT '',
	salary_interval  TEXT NOT NULL DEFAULT '',
	url              TEXT NOT NULL DEFAULT '',
	is_remote        INTEGER NOT NULL DEFAULT 0,
	status           TEXT NOT NULL DEFAULT 'active',
	last_change      TEXT NOT NULL,
	last_seen_active TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	UNIQUE (employer_id, external_id)
);

CREATE TABLE IF NOT EXISTS job_locations (
	id        TEXT PRIMARY KEY,
	job_id    TEXT NOT NULL REFERENCES jobs(id),
	location  TEXT NOT NULL,
	is_remote INTEGER NOT NULL DEFAULT 0,
	UNIQUE (job_id, location)
);

CREATE TABLE IF NOT EXISTS job_changes (
	id                        TEXT PRIMARY KEY,
	job_id                    TEXT,
	employer_id               TEXT NOT NULL,
	change_type               TEXT NOT NULL,
	previous_title            TEXT,
	new_title                 TEXT,
	previous_location         TEXT,
	new_location              TEXT,
	previous_description      TEXT,
	new_description           TEXT,
	previous_salary_min       INTEGER,
	new_salary_min            INTEGER,
	previous_salary_max       INTEGER,
	new_salary_max            INTEGER,
	previous_salary_currency  TEXT,
	new_salary_currency       TEXT,
	previous_salary_interval  TEXT,
	new_salary_interval       TEXT,
	previous_jobs_count       INTEGER,
	new_jobs_count            INTEGER,
	created_at                TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS departments (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	keywords   TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS api_errors (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	employer_id   TEXT NOT NULL,
	employer_name TEXT NOT NULL,
	source        TEXT NOT NULL,
	message       TEXT NOT NULL,
	occurred_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_employer ON jobs (employer_id);
CREATE INDEX IF NOT EXISTS idx_job_changes_created ON job_changes (created_at);
CREATE INDEX IF NOT EXISTS idx_job_changes_employer ON job_changes (employer_id);
`

// SQLite is the embedded model.Store implementation.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path and ensures
// the schema exists.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db at %s: %w", path, err)
	}
	// The driver serializes writes anyway; a single connection avoids
	// SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) ListActiveEmployers(ctx context.Context) ([]model.Employer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, source, board_identifier, board_url, status,
		       total_jobs_count, previous_jobs_count, last_updated, created_at
		FROM employers
		WHERE status = ?
		ORDER BY name`, string(model.EmployerActive))
	if err != nil {
		return nil, &model.PersistenceError{Op: "list employers", Err: err}
	}
	defer rows.Close()

	var out []model.Employer
	for rows.Next() {
		var e model.Employer
		var lastUpdated *string
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Name, &e.Source, &e.BoardIdentifier, &e.BoardURL,
			&e.Status, &e.TotalJobsCount, &e.PreviousJobsCount, &lastUpdated, &createdAt); err != nil {
			return nil, &model.PersistenceError{Op: "scan employer", Err: err}
		}
		e.LastUpdated = timePtrFromDB(lastUpdated)
		e.CreatedAt = timeFromDB(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

const jobColumns = `id, employer_id, external_id, title, description, location,
	department_id, department_raw, salary_min, salary_max, salary_currency,
	salary_interval, url, is_remote, status, last_change, last_seen_active, created_at`

func scanJob(rows *sql.Rows) (model.Job, error) {
	var j model.Job
	var interval string
	var lastChange, lastSeen, createdAt string
	err := rows.Scan(&j.ID, &j.EmployerID, &j.ExternalID, &j.Title, &j.Description,
		&j.Location, &j.DepartmentID, &j.DepartmentRaw, &j.Salary.Min, &j.Salary.Max,
		&j.Salary.Currency, &interval, &j.URL, &j.IsRemote, &j.Status,
		&lastChange, &lastSeen, &createdAt)
	if err != nil {
		return model.Job{}, err
	}
	j.Salary.Interval = model.SalaryInterval(interval)
	j.LastChange = timeFromDB(lastChange)
	j.LastSeenActive = timeFromDB(lastSeen)
	j.CreatedAt = timeFromDB(createdAt)
	return j, nil
}

func (s *SQLite) ListJobs(ctx context.Context, employerID string) ([]model.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE employer_id = ?`, employerID)
	if err != nil {
		return nil, &model.PersistenceError{Op: "list jobs", Err: err}
	}
	defer rows.Close()

	var out []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, &model.PersistenceError{Op: "scan job", Err: err}
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *SQLite) ListJobLocations(ctx context.Context, employerID string) ([]model.JobLocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.job_id, l.location, l.is_remote
		FROM job_locations l
		JOIN jobs j ON j.id = l.job_id
		WHERE j.employer_id = ?`, employerID)
	if err != nil {
		return nil, &model.PersistenceError{Op: "list job locations", Err: err}
	}
	defer rows.Close()

	var out []model.JobLocation
	for rows.Next() {
		var l model.JobLocation
		if err := rows.Scan(&l.ID, &l.JobID, &l.Location, &l.IsRemote); err != nil {
			return nil, &model.PersistenceError{Op: "scan job location", Err: err}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

const upsertJobSQL = `
INSERT INTO jobs (` + jobColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	title = excluded.title,
	description = excluded.description,
	location = excluded.location,
	department_id = excluded.department_id,
	department_raw = excluded.department_raw,
	salary_min = excluded.salary_min,
	salary_max = excluded.salary_max,
	salary_currency = excluded.salary_currency,
	salary_interval = excluded.salary_interval,
	url = excluded.url,
	is_remote = excluded.is_remote,
	status = excluded.status,
	last_change = excluded.last_change,
	last_seen_active = excluded.last_seen_active`

func (s *SQLite) UpsertJobs(ctx context.Context, jobs []model.Job) error {
	for _, batch := range chunk(jobs, writeChunkSize) {
		err := s.upsertJobBatch(ctx, batch)
		if err == nil {
			continue
		}
		s.logger.Warn("job batch upsert failed, retrying per record", "size", len(batch), "error", err)
		for _, j := range batch {
			if err := s.upsertJobBatch(ctx, []model.Job{j}); err != nil {
				return &model.PersistenceError{Op: fmt.Sprintf("upsert job %s", j.ID), Err: err}
			}
		}
	}
	return nil
}

func (s *SQLite) upsertJobBatch(ctx context.Context, jobs []model.Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertJobSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, j := range jobs {
		_, err := stmt.ExecContext(ctx,
			j.ID, j.EmployerID, j.ExternalID, j.Title, j.Description, j.Location,
			j.DepartmentID, j.DepartmentRaw, j.Salary.Min, j.Salary.Max,
			j.Salary.Currency, string(j.Salary.Interval), j.URL, j.IsRemote,
			string(j.Status), timeToDB(j.LastChange), timeToDB(j.LastSeenActive),
			timeToDB(j.CreatedAt))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLite) AddJobLocations(ctx context.Context, locs []model.JobLocation) error {
	for _, batch := range chunk(locs, writeChunkSize) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return &model.PersistenceError{Op: "add job locations", Err: err}
		}
		for _, l := range batch {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO job_locations (id, job_id, location, is_remote)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (job_id, location) DO NOTHING`,
				l.ID, l.JobID, l.Location, l.IsRemote)
			if err != nil {
				tx.Rollback()
				return &model.PersistenceError{Op: "add job location", Err: err}
			}
		}
		if err := tx.Commit(); err != nil {
			return &model.PersistenceError{Op: "add job locations", Err: err}
		}
	}
	return nil
}

func (s *SQLite) RemoveJobLocations(ctx context.Context, locs []model.JobLocation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &model.PersistenceError{Op: "remove job locations", Err: err}
	}
	for _, l := range locs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM job_locations WHERE id = ?`, l.ID); err != nil {
			tx.Rollback()
			return &model.PersistenceError{Op: "remove job location", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &model.PersistenceError{Op: "remove job locations", Err: err}
	}
	return nil
}

const insertChangeSQL = `
INSERT INTO job_changes (
	id, job_id, employer_id, change_type,
	previous_title, new_title, previous_location, new_location,
	previous_description, new_description,
	previous_salary_min, new_salary_min, previous_salary_max, new_salary_max,
	previous_salary_currency, new_salary_currency,
	previous_salary_interval, new_salary_interval,
	previous_jobs_count, new_jobs_count, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *SQLite) InsertChanges(ctx context.Context, changes []model.JobChange) error {
	for _, batch := range chunk(changes, writeChunkSize) {
		err := s.insertChangeBatch(ctx, batch)
		if err == nil {
			continue
		}
		s.logger.Warn("change batch insert failed, retrying per record", "size", len(batch), "error", err)
		for _, c := range batch {
			if err := s.insertChangeBatch(ctx, []model.JobChange{c}); err != nil {
				return &model.PersistenceError{Op: fmt.Sprintf("insert change %s", c.ID), Err: err}
			}
		}
	}
	return nil
}

func (s *SQLite) insertChangeBatch(ctx context.Context, changes []model.JobChange) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertChangeSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range changes {
		var jobID *string
		if c.JobID != "" {
			jobID = &c.JobID
		}
		_, err := stmt.ExecContext(ctx,
			c.ID, jobID, c.EmployerID, string(c.Type),
			c.PreviousTitle, c.NewTitle, c.PreviousLocation, c.NewLocation,
			c.PreviousDescription, c.NewDescription,
			c.PreviousSalaryMin, c.NewSalaryMin, c.PreviousSalaryMax, c.NewSalaryMax,
			c.PreviousSalaryCurrency, c.NewSalaryCurrency,
			c.PreviousSalaryInterval, c.NewSalaryInterval,
			c.PreviousJobsCount, c.NewJobsCount, timeToDB(c.CreatedAt))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

const changeColumns = `id, job_id, employer_id, change_type,
	previous_title, new_title, previous_location, new_location,
	previous_description, new_description,
	previous_salary_min, new_salary_min, previous_salary_max, new_salary_max,
	previous_salary_currency, new_salary_currency,
	previous_salary_interval, new_salary_interval,
	previous_jobs_count, new_jobs_count, created_at`

func (s *SQLite) ListRecentChanges(ctx context.Context, limit int) ([]model.JobChange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+changeColumns+` FROM job_changes ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, &model.PersistenceError{Op: "list changes", Err: err}
	}
	defer rows.Close()

	var out []model.JobChange
	for rows.Next() {
		var c model.JobChange
		var jobID *string
		var createdAt string
		err := rows.Scan(&c.ID, &jobID, &c.EmployerID, &c.Type,
			&c.PreviousTitle, &c.NewTitle, &c.PreviousLocation, &c.NewLocation,
			&c.PreviousDescription, &c.NewDescription,
			&c.PreviousSalaryMin, &c.NewSalaryMin, &c.PreviousSalaryMax, &c.NewSalaryMax,
			&c.PreviousSalaryCurrency, &c.NewSalaryCurrency,
			&c.PreviousSalaryInterval, &c.NewSalaryInterval,
			&c.PreviousJobsCount, &c.NewJobsCount, &createdAt)
		if err != nil {
			return nil, &model.PersistenceError{Op: "scan change", Err: err}
		}
		if jobID != nil {
			c.JobID = *jobID
		}
		c.CreatedAt = timeFromDB(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) PruneChanges(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := timeToDB(time.Now().Add(-olderThan))
	res, err := s.db.ExecContext(ctx, `DELETE FROM job_changes WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, &model.PersistenceError{Op: "prune changes", Err: err}
	}
	return res.RowsAffected()
}

func (s *SQLite) UpdateEmployerCounts(ctx context.Context, upd model.EmployerUpdate) error {
	var err error
	if upd.CountChanged {
		_, err = s.db.ExecContext(ctx, `
			UPDATE employers
			SET total_jobs_count = ?, previous_jobs_count = ?, last_updated = ?
			WHERE id = ?`,
			upd.TotalJobsCount, upd.PreviousJobsCount, timeToDB(upd.LastUpdated), upd.EmployerID)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE employers SET last_updated = ? WHERE id = ?`,
			timeToDB(upd.LastUpdated), upd.EmployerID)
	}
	if err != nil {
		return &model.PersistenceError{Op: "update employer counts", Err: err}
	}
	return nil
}

func (s *SQLite) ListDepartments(ctx context.Context) ([]model.Department, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, keywords, created_at FROM departments ORDER BY created_at, name`)
	if err != nil {
		return nil, &model.PersistenceError{Op: "list departments", Err: err}
	}
	defer rows.Close()

	var out []model.Department
	for rows.Next() {
		var d model.Department
		var keywords, createdAt string
		if err := rows.Scan(&d.ID, &d.Name, &keywords, &createdAt); err != nil {
			return nil, &model.PersistenceError{Op: "scan department", Err: err}
		}
		if err := json.Unmarshal([]byte(keywords), &d.Keywords); err != nil {
			return nil, &model.PersistenceError{Op: "decode department keywords", Err: err}
		}
		d.CreatedAt = timeFromDB(createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLite) UpsertDepartment(ctx context.Context, d model.Department) error {
	keywords, err := json.Marshal(d.Keywords)
	if err != nil {
		return &model.PersistenceError{Op: "encode department keywords", Err: err}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO departments (id, name, keywords, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET keywords = excluded.keywords`,
		d.ID, d.Name, string(keywords), timeToDB(d.CreatedAt))
	if err != nil {
		return &model.PersistenceError{Op: "upsert department", Err: err}
	}
	return nil
}

func (s *SQLite) RecordUpstreamFailure(ctx context.Context, f model.UpstreamFailure) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_errors (employer_id, employer_name, source, message, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		f.EmployerID, f.EmployerName, string(f.Source), f.Message, timeToDB(f.OccurredAt))
	if err != nil {
		return &model.PersistenceError{Op: "record upstream failure", Err: err}
	}
	return nil
}

// SeedEmployer inserts an employer if it does not exist yet. Used by local
// setups and tests; production employers come from the admin workflow.
func (s *SQLite) SeedEmployer(ctx context.Context, e model.Employer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employers (id, name, source, board_identifier, board_url, status,
			total_jobs_count, previous_jobs_count, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Name, string(e.Source), e.BoardIdentifier, e.BoardURL, string(e.Status),
		e.TotalJobsCount, e.PreviousJobsCount, timePtrToDB(e.LastUpdated), timeToDB(e.CreatedAt))
	if err != nil {
		return &model.PersistenceError{Op: "seed employer", Err: err}
	}
	return nil
}

// RetireEmployer marks an employer inactive so collection skips it. Its
// jobs and change history are kept.
func (s *SQLite) RetireEmployer(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE employers SET status = ? WHERE id = ?`,
		string(model.EmployerInactive), id)
	if err != nil {
		return &model.PersistenceError{Op: "retire employer", Err: err}
	}
	return nil
}
