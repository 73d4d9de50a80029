package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	defaultListLimit = 20
)

var runColumns = []string{
	"run_id", "league_id", "season", "week", "started_at", "finished_at", "status",
	"verdict", "initial_verdict", "issue_count", "patched", "degraded",
	"estimated_cost", "recap_path", "error_message",
}

// Store persists runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the ledger at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Begin records a started run.
func (s *Store) Begin(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	query, args, err := sq.Insert("runs").
		Columns("run_id", "league_id", "season", "week", "started_at", "status").
		Values(run.ID, run.LeagueID, run.Season, run.Week, formatTime(run.StartedAt), StatusRunning).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if err := s.exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish stores the outcome of a run. Status is derived from Error when
// unset.
func (s *Store) Finish(ctx context.Context, run Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = StatusCompleted
		if run.Error != "" {
			run.Status = StatusFailed
		}
	}
	query, args, err := sq.Update("runs").
		SetMap(map[string]any{
			"finished_at":     formatTime(run.FinishedAt),
			"status":          run.Status,
			"verdict":         nullString(run.Verdict),
			"initial_verdict": nullString(run.InitialVerdict),
			"issue_count":     run.IssueCount,
			"patched":         boolInt(run.Patched),
			"degraded":        boolInt(run.Degraded),
			"estimated_cost":  run.EstimatedCost,
			"recap_path":      nullString(run.RecapPath),
			"error_message":   nullString(run.Error),
		}).
		Where(sq.Eq{"run_id": run.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if err := s.exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// List returns runs newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	builder := sq.Select(runColumns...).From("runs").OrderBy("started_at DESC").Limit(uint64(limit))
	if filter.LeagueID != "" {
		builder = builder.Where(sq.Eq{"league_id": filter.LeagueID})
	}
	if filter.Season > 0 {
		builder = builder.Where(sq.Eq{"season": filter.Season})
	}
	if filter.Week > 0 {
		builder = builder.Where(sq.Eq{"week": filter.Week})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Latest returns the most recent run for a league week, or nil.
func (s *Store) Latest(ctx context.Context, leagueID string, season, week int) (*Run, error) {
	runs, err := s.List(ctx, Filter{LeagueID: leagueID, Season: season, Week: week, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                                       Run
		started                                   string
		finished, verdict, initial, recap, errMsg sql.NullString
		patched, degraded                         int
		status                                    string
	)
	if err := row.Scan(
		&run.ID, &run.LeagueID, &run.Season, &run.Week, &started, &finished, &status,
		&verdict, &initial, &run.IssueCount, &patched, &degraded,
		&run.EstimatedCost, &recap, &errMsg,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	run.Status = Status(status)
	run.Verdict = verdict.String
	run.InitialVerdict = initial.String
	run.Patched = patched != 0
	run.Degraded = degraded != 0
	run.RecapPath = recap.String
	run.Error = errMsg.String
	return run, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
