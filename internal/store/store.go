// Package store persists schedules and their last computed results in a local
// SQLite database. It is the source and sink for batch recalculation.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/critpath/internal/cpm"
)

// ErrNotFound is returned when a schedule or activity does not exist.
var ErrNotFound = errors.New("not found")

// ErrStale is returned when a result no longer matches the stored activities,
// as when the schedule was re-imported while it was being computed.
var ErrStale = errors.New("stale result")

// Schedule statuses. Only active schedules are picked up by recalculation.
const (
	StatusDraft     = "Draft"
	StatusActive    = "Active"
	StatusOnHold    = "On Hold"
	StatusCompleted = "Completed"
)

// dateLayout is the text encoding used for every calendar date column.
const dateLayout = time.DateOnly

const schema = `
CREATE TABLE IF NOT EXISTS schedules (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT 'Draft',
    use_cpm              INTEGER NOT NULL DEFAULT 1,
    start_date           TEXT NOT NULL,
    target_end_date      TEXT,
    end_date             TEXT,
    percent_complete     REAL NOT NULL DEFAULT 0,
    critical_path_length INTEGER NOT NULL DEFAULT 0,
    total_float          INTEGER NOT NULL DEFAULT 0,
    variance             INTEGER NOT NULL DEFAULT 0,
    infeasible           INTEGER NOT NULL DEFAULT 0,
    computed_at          TIMESTAMP,
    updated_at           TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS activities (
    schedule_id  TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
    id           TEXT NOT NULL,
    position     INTEGER NOT NULL,
    name         TEXT NOT NULL DEFAULT '',
    duration     INTEGER NOT NULL DEFAULT 0,
    dependencies TEXT NOT NULL DEFAULT '',
    milestone    INTEGER NOT NULL DEFAULT 0,
    status       TEXT NOT NULL DEFAULT '',
    start_date   TEXT,
    end_date     TEXT,
    early_start  INTEGER,
    early_finish INTEGER,
    late_start   INTEGER,
    late_finish  INTEGER,
    total_float  INTEGER,
    free_float   INTEGER,
    is_critical  INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (schedule_id, id)
);

CREATE INDEX IF NOT EXISTS idx_schedules_active ON schedules(status, use_cpm);
`

// Record is a schedule together with the bookkeeping fields that decide
// whether it takes part in batch recalculation.
type Record struct {
	Schedule cpm.Schedule
	Name     string
	Status   string
	UseCPM   bool
}

// Summary is the stored headline state of a schedule.
type Summary struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Status             string     `json:"status"`
	UseCPM             bool       `json:"use_cpm"`
	StartDate          time.Time  `json:"start_date"`
	TargetEndDate      *time.Time `json:"target_end_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	Activities         int        `json:"activities"`
	PercentComplete    float64    `json:"percent_complete"`
	CriticalPathLength int        `json:"critical_path_length"`
	TotalFloat         int        `json:"total_float"`
	Variance           int        `json:"variance"`
	Infeasible         bool       `json:"infeasible"`
	ComputedAt         *time.Time `json:"computed_at,omitempty"`
}

// Store is a SQLite-backed schedule repository in WAL mode.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, enables WAL mode, a busy
// timeout and foreign keys, and creates the schema if needed.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite has a single writer. One connection keeps the PRAGMAs below in
	// effect for every statement and serialises concurrent saves.
	db.SetMaxOpenConns(1)

	pragmas := []struct {
		stmt string
		what string
	}{
		{"PRAGMA journal_mode=WAL", "enable WAL mode"},
		{"PRAGMA busy_timeout=5000", "set busy timeout"},
		{"PRAGMA foreign_keys=ON", "enable foreign keys"},
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p.stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p.what, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutSchedule inserts or replaces a schedule definition. Activities keep
// their last computed values when their id survives; activities missing from
// rec are removed.
func (s *Store) PutSchedule(ctx context.Context, rec Record) error {
	sc := rec.Schedule
	if sc.ID == "" {
		return errors.New("store: put schedule: empty id")
	}
	status := rec.Status
	if status == "" {
		status = StatusDraft
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx for schedule %q: %w", sc.ID, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const upsertSchedule = `
		INSERT INTO schedules (id, name, status, use_cpm, start_date, target_end_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name            = excluded.name,
			status          = excluded.status,
			use_cpm         = excluded.use_cpm,
			start_date      = excluded.start_date,
			target_end_date = excluded.target_end_date,
			updated_at      = CURRENT_TIMESTAMP`
	if _, err := tx.ExecContext(ctx, upsertSchedule,
		sc.ID, rec.Name, status, rec.UseCPM, formatDate(sc.StartDate), formatDatePtr(sc.TargetEndDate),
	); err != nil {
		return fmt.Errorf("store: put schedule %q: %w", sc.ID, err)
	}

	// Mark every existing row; the upsert below claims the survivors.
	if _, err := tx.ExecContext(ctx, "UPDATE activities SET position = -1 WHERE schedule_id = ?", sc.ID); err != nil {
		return fmt.Errorf("store: mark activities of %q: %w", sc.ID, err)
	}

	const upsertActivity = `
		INSERT INTO activities (schedule_id, id, position, name, duration, dependencies, milestone, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(schedule_id, id) DO UPDATE SET
			position     = excluded.position,
			name         = excluded.name,
			duration     = excluded.duration,
			dependencies = excluded.dependencies,
			milestone    = excluded.milestone,
			status       = excluded.status`
	stmt, err := tx.PrepareContext(ctx, upsertActivity)
	if err != nil {
		return fmt.Errorf("store: prepare activity upsert: %w", err)
	}
	defer stmt.Close()

	for i, a := range sc.Activities {
		if _, err := stmt.ExecContext(ctx,
			sc.ID, a.ID, i, a.Name, a.Duration, a.Dependencies, a.Milestone, string(a.Status),
		); err != nil {
			return fmt.Errorf("store: put activity %q/%q: %w", sc.ID, a.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM activities WHERE schedule_id = ? AND position < 0", sc.ID); err != nil {
		return fmt.Errorf("store: prune activities of %q: %w", sc.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit schedule %q: %w", sc.ID, err)
	}
	return nil
}

// GetSchedule returns the stored record for id, or ErrNotFound.
func (s *Store) GetSchedule(ctx context.Context, id string) (Record, error) {
	const q = `SELECT name, status, use_cpm, start_date, target_end_date FROM schedules WHERE id = ?`

	var (
		rec    Record
		start  string
		target sql.NullString
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(&rec.Name, &rec.Status, &rec.UseCPM, &start, &target)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("store: schedule %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("store: get schedule %q: %w", id, err)
	}

	rec.Schedule.ID = id
	if rec.Schedule.StartDate, err = parseDate(start); err != nil {
		return Record{}, fmt.Errorf("store: schedule %q start date: %w", id, err)
	}
	if rec.Schedule.TargetEndDate, err = parseDatePtr(target); err != nil {
		return Record{}, fmt.Errorf("store: schedule %q target end date: %w", id, err)
	}

	acts, err := s.activities(ctx, id)
	if err != nil {
		return Record{}, err
	}
	rec.Schedule.Activities = acts
	return rec, nil
}

// LoadSchedule returns the engine input for id, or ErrNotFound.
func (s *Store) LoadSchedule(ctx context.Context, id string) (cpm.Schedule, error) {
	rec, err := s.GetSchedule(ctx, id)
	if err != nil {
		return cpm.Schedule{}, err
	}
	return rec.Schedule, nil
}

func (s *Store) activities(ctx context.Context, scheduleID string) ([]cpm.Activity, error) {
	const q = `SELECT id, name, duration, dependencies, milestone, status
		FROM activities WHERE schedule_id = ? ORDER BY position`
	rows, err := s.db.QueryContext(ctx, q, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("store: query activities of %q: %w", scheduleID, err)
	}
	defer rows.Close()

	var acts []cpm.Activity
	for rows.Next() {
		var (
			a      cpm.Activity
			status string
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Duration, &a.Dependencies, &a.Milestone, &status); err != nil {
			return nil, fmt.Errorf("store: scan activity: %w", err)
		}
		a.Status = cpm.Status(status)
		acts = append(acts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate activities: %w", err)
	}
	return acts, nil
}

// ListActive returns the ids of schedules that are Active and CPM-enabled,
// sorted by id.
func (s *Store) ListActive(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM schedules WHERE status = ? AND use_cpm = 1 ORDER BY id", StatusActive)
	if err != nil {
		return nil, fmt.Errorf("store: list active: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan schedule id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate schedules: %w", err)
	}
	return ids, nil
}

// SaveResult writes a computed result: the schedule summary and every
// activity's timing and calendar dates. The write is atomic so a schedule is
// never left with a mix of old and new values. A result whose activities no
// longer match the stored schedule fails with ErrStale and writes nothing.
func (s *Store) SaveResult(ctx context.Context, res *cpm.Result) error {
	return s.inTx(ctx, res.ScheduleID, func(tx *sql.Tx) error {
		return saveResult(ctx, tx, res)
	})
}

// SaveMove records a Gantt drag. The moved activity's duration is taken from
// res, which the caller computed from the schedule with the new duration
// applied, and is written together with the result in one transaction.
func (s *Store) SaveMove(ctx context.Context, res *cpm.Result, activityID string) error {
	a, ok := res.Activity(activityID)
	if !ok {
		return fmt.Errorf("store: activity %q/%q: %w", res.ScheduleID, activityID, ErrNotFound)
	}
	return s.inTx(ctx, res.ScheduleID, func(tx *sql.Tx) error {
		out, err := tx.ExecContext(ctx,
			"UPDATE activities SET duration = ? WHERE schedule_id = ? AND id = ?",
			a.Duration, res.ScheduleID, activityID)
		if err != nil {
			return fmt.Errorf("store: move activity %q/%q: %w", res.ScheduleID, activityID, err)
		}
		if err := expectRow(out, res.ScheduleID, activityID, ErrNotFound); err != nil {
			return err
		}
		return saveResult(ctx, tx, res)
	})
}

func (s *Store) inTx(ctx context.Context, scheduleID string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx for %q: %w", scheduleID, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit %q: %w", scheduleID, err)
	}
	return nil
}

// expectRow fails with sentinel unless exactly one row was changed.
func expectRow(out sql.Result, scheduleID, activityID string, sentinel error) error {
	n, err := out.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		if activityID == "" {
			return fmt.Errorf("store: schedule %q: %w", scheduleID, sentinel)
		}
		return fmt.Errorf("store: activity %q/%q: %w", scheduleID, activityID, sentinel)
	}
	return nil
}

func saveResult(ctx context.Context, tx *sql.Tx, res *cpm.Result) error {
	const updateSchedule = `
		UPDATE schedules SET
			end_date             = ?,
			percent_complete     = ?,
			critical_path_length = ?,
			total_float          = ?,
			variance             = ?,
			infeasible           = ?,
			computed_at          = CURRENT_TIMESTAMP
		WHERE id = ?`
	out, err := tx.ExecContext(ctx, updateSchedule,
		formatDate(res.EndDate), res.PercentComplete, res.CriticalPathLength,
		res.TotalFloat, res.Variance, res.Infeasible, res.ScheduleID,
	)
	if err != nil {
		return fmt.Errorf("store: save result %q: %w", res.ScheduleID, err)
	}
	if err := expectRow(out, res.ScheduleID, "", ErrNotFound); err != nil {
		return err
	}

	var stored int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM activities WHERE schedule_id = ?", res.ScheduleID,
	).Scan(&stored); err != nil {
		return fmt.Errorf("store: count activities %q: %w", res.ScheduleID, err)
	}
	if stored != len(res.Activities) {
		return fmt.Errorf("store: schedule %q has %d activities, result has %d: %w",
			res.ScheduleID, stored, len(res.Activities), ErrStale)
	}

	const updateActivity = `
		UPDATE activities SET
			start_date   = ?,
			end_date     = ?,
			early_start  = ?,
			early_finish = ?,
			late_start   = ?,
			late_finish  = ?,
			total_float  = ?,
			free_float   = ?,
			is_critical  = ?
		WHERE schedule_id = ? AND id = ?`
	stmt, err := tx.PrepareContext(ctx, updateActivity)
	if err != nil {
		return fmt.Errorf("store: prepare activity update: %w", err)
	}
	defer stmt.Close()

	for _, a := range res.Activities {
		out, err := stmt.ExecContext(ctx,
			formatDate(res.DateOf(a.EarlyStart)), formatDate(res.FinishDate(a)),
			a.EarlyStart, a.EarlyFinish, a.LateStart, a.LateFinish,
			a.TotalFloat, a.FreeFloat, a.Critical,
			res.ScheduleID, a.ID,
		)
		if err != nil {
			return fmt.Errorf("store: save activity %q/%q: %w", res.ScheduleID, a.ID, err)
		}
		if err := expectRow(out, res.ScheduleID, a.ID, ErrStale); err != nil {
			return err
		}
	}
	return nil
}

// Status returns the stored summary for a schedule, or ErrNotFound.
func (s *Store) Status(ctx context.Context, id string) (Summary, error) {
	const q = `
		SELECT s.name, s.status, s.use_cpm, s.start_date, s.target_end_date, s.end_date,
		       s.percent_complete, s.critical_path_length, s.total_float, s.variance,
		       s.infeasible, s.computed_at,
		       (SELECT COUNT(*) FROM activities a WHERE a.schedule_id = s.id)
		FROM schedules s WHERE s.id = ?`

	var (
		sum                Summary
		start              string
		target, end, stamp sql.NullString
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&sum.Name, &sum.Status, &sum.UseCPM, &start, &target, &end,
		&sum.PercentComplete, &sum.CriticalPathLength, &sum.TotalFloat, &sum.Variance,
		&sum.Infeasible, &stamp, &sum.Activities,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, fmt.Errorf("store: schedule %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("store: status %q: %w", id, err)
	}

	sum.ID = id
	if sum.StartDate, err = parseDate(start); err != nil {
		return Summary{}, fmt.Errorf("store: schedule %q start date: %w", id, err)
	}
	if sum.TargetEndDate, err = parseDatePtr(target); err != nil {
		return Summary{}, fmt.Errorf("store: schedule %q target end date: %w", id, err)
	}
	if sum.EndDate, err = parseDatePtr(end); err != nil {
		return Summary{}, fmt.Errorf("store: schedule %q end date: %w", id, err)
	}
	if stamp.Valid {
		ts, err := parseTimestamp(stamp.String)
		if err != nil {
			return Summary{}, fmt.Errorf("store: schedule %q computed_at: %w", id, err)
		}
		sum.ComputedAt = &ts
	}
	return sum, nil
}

// DeleteSchedule removes a schedule and its activities.
func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	out, err := s.db.ExecContext(ctx, "DELETE FROM schedules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("store: delete schedule %q: %w", id, err)
	}
	if n, err := out.RowsAffected(); err != nil {
		return fmt.Errorf("store: delete schedule rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("store: schedule %q: %w", id, ErrNotFound)
	}
	return nil
}
