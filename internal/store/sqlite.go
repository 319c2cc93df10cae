package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/seantiz/tempo/internal/model"

	_ "modernc.org/sqlite"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    suite       TEXT NOT NULL,
    key         TEXT NOT NULL,
    name        TEXT NOT NULL,
    workload    TEXT NOT NULL,
    environment TEXT NOT NULL,
    params      TEXT,
    idx         INTEGER NOT NULL,
    status      TEXT NOT NULL,
    duration_s  REAL,
    timeout_s   REAL NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    traceback   TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL,
    started_at  DATETIME,
    finished_at DATETIME
)`

const createRunsKeyIndex = `CREATE INDEX IF NOT EXISTS idx_runs_key ON runs (key, created_at)`

const createRunEventsTable = `
CREATE TABLE IF NOT EXISTS run_events (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id     TEXT NOT NULL,
    seq        INTEGER NOT NULL,
    line       TEXT NOT NULL,
    created_at DATETIME NOT NULL
)`

const runColumns = `id, suite, key, name, workload, environment, params, idx,
	status, duration_s, timeout_s, error, traceback,
	created_at, started_at, finished_at`

// ErrNotFound is returned when a run is not found.
var ErrNotFound = errors.New("run not found")

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	for _, stmt := range []string{createRunsTable, createRunsKeyIndex, createRunEventsTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run record.
func (s *SQLiteStore) CreateRun(ctx context.Context, r *model.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Suite, r.Key, r.Name, r.Workload, r.Environment, nullString(r.Params), r.Index,
		r.Status, r.DurationS, r.TimeoutS, r.Error, r.Traceback,
		r.CreatedAt, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns a paginated list of runs ordered by created_at DESC,
// along with the total count of all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]*model.Run, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, total, nil
}

// UpdateRunStatus moves a run to status. Entering running sets started_at;
// entering a terminal status sets finished_at.
func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, id, status string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := checkTransition(ctx, tx, id, status); err != nil {
		return err
	}

	now := time.Now().UTC()
	switch {
	case status == model.StatusRunning:
		_, err = tx.ExecContext(ctx,
			"UPDATE runs SET status = ?, started_at = ? WHERE id = ?", status, now, id)
	case model.IsTerminal(status):
		_, err = tx.ExecContext(ctx,
			"UPDATE runs SET status = ?, finished_at = ? WHERE id = ?", status, now, id)
	default:
		_, err = tx.ExecContext(ctx,
			"UPDATE runs SET status = ? WHERE id = ?", status, id)
	}
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}

	return tx.Commit()
}

// UpdateRun writes every mutable field of r. A status change must be a
// valid transition.
func (s *SQLiteStore) UpdateRun(ctx context.Context, r *model.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := checkTransition(ctx, tx, r.ID, r.Status); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, duration_s = ?, error = ?, traceback = ?,
			started_at = COALESCE(?, started_at), finished_at = COALESCE(?, finished_at)
		WHERE id = ?`,
		r.Status, r.DurationS, r.Error, r.Traceback, r.StartedAt, r.FinishedAt, r.ID,
	); err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	return tx.Commit()
}

// checkTransition loads the current status of id and rejects a move to
// status that the run lifecycle does not allow. Rewriting the same status
// is allowed.
func checkTransition(ctx context.Context, tx *sql.Tx, id, status string) error {
	var current string
	err := tx.QueryRowContext(ctx, "SELECT status FROM runs WHERE id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get run status: %w", err)
	}
	if current != status && !model.ValidTransition(current, status) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, current, status)
	}
	return nil
}

// FindFinished returns the most recent run with the given key that reached
// a terminal status.
func (s *SQLiteStore) FindFinished(ctx context.Context, key string) (*model.Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs
		WHERE key = ? AND status IN (?, ?, ?)
		ORDER BY created_at DESC LIMIT 1`,
		key, model.StatusSuccess, model.StatusTimeout, model.StatusFailure,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find finished run: %w", err)
	}
	return r, nil
}

// GetRunStats returns aggregate counts and the mean duration of
// successful runs.
func (s *SQLiteStore) GetRunStats(ctx context.Context) (*RunStats, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	stats := &RunStats{
		CountByStatus:   make(map[string]int),
		CountByWorkload: make(map[string]int),
	}

	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	if err := countBy(ctx, tx, "status", stats.CountByStatus); err != nil {
		return nil, err
	}
	if err := countBy(ctx, tx, "workload", stats.CountByWorkload); err != nil {
		return nil, err
	}

	var mean sql.NullFloat64
	if err := tx.QueryRowContext(ctx,
		"SELECT AVG(duration_s) FROM runs WHERE status = ? AND duration_s IS NOT NULL",
		model.StatusSuccess,
	).Scan(&mean); err != nil {
		return nil, fmt.Errorf("average duration: %w", err)
	}
	stats.MeanSuccessS = mean.Float64

	return stats, nil
}

// countBy fills dst with per-value counts of column. column is never
// user-supplied.
func countBy(ctx context.Context, tx *sql.Tx, column string, dst map[string]int) error {
	rows, err := tx.QueryContext(ctx, "SELECT "+column+", COUNT(*) FROM runs GROUP BY "+column)
	if err != nil {
		return fmt.Errorf("count by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var value string
		var n int
		if err := rows.Scan(&value, &n); err != nil {
			return fmt.Errorf("scan %s count: %w", column, err)
		}
		dst[value] = n
	}
	return rows.Err()
}

// InsertEvent persists one progress line for a run.
func (s *SQLiteStore) InsertEvent(ctx context.Context, runID string, seq int, line string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO run_events (run_id, seq, line, created_at) VALUES (?, ?, ?, ?)",
		runID, seq, line, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvents returns all progress lines for a run ordered by seq. The result
// is never nil.
func (s *SQLiteStore) GetEvents(ctx context.Context, runID string) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, seq, line, created_at FROM run_events WHERE run_id = ? ORDER BY seq ASC",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Seq, &ev.Line, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	r := &model.Run{}
	var params sql.NullString
	if err := row.Scan(
		&r.ID, &r.Suite, &r.Key, &r.Name, &r.Workload, &r.Environment, &params, &r.Index,
		&r.Status, &r.DurationS, &r.TimeoutS, &r.Error, &r.Traceback,
		&r.CreatedAt, &r.StartedAt, &r.FinishedAt,
	); err != nil {
		return nil, err
	}
	if params.Valid {
		r.Params = []byte(params.String)
	}
	return r, nil
}

func nullString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
