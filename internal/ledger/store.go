package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Kanjirito/mokuro/internal/batch"
	"github.com/Kanjirito/mokuro/internal/config"
	"github.com/Kanjirito/mokuro/internal/volume"
)

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the ledger database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.LedgerPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the ledger database file.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// BeginRun inserts the run row before any volume is processed.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is empty")
	}
	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO runs (id, started_at, total, succeeded, model, ocr_disabled)
         VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		startedAt.UTC().Format(time.RFC3339Nano),
		run.Total,
		0,
		nullableString(run.Model),
		boolToInt(run.OCRDisabled),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the final tallies for a run.
func (s *Store) FinishRun(ctx context.Context, runID string, succeeded int) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE runs SET finished_at = ?, succeeded = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		succeeded,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run: unknown run %q", runID)
	}
	return nil
}

// RecordVolume appends one attempted volume outcome to a run. It satisfies
// the batch runner's Recorder interface.
func (s *Store) RecordVolume(ctx context.Context, runID string, result batch.VolumeResult) error {
	status := StatusSucceeded
	var message string
	if result.Err != nil {
		status = StatusFailed
		message = result.Err.Error()
	}
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO volumes (run_id, path, title, status, error_message, pages, duration_ms, processed_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		result.Path,
		nullableString(volume.Name(result.Path)),
		status,
		nullableString(message),
		result.Pages,
		result.Duration.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert volume: %w", err)
	}
	return nil
}

const runColumns = "id, started_at, finished_at, total, succeeded, model, ocr_disabled"

// RunByID fetches a run by identifier. It returns nil when the run is unknown.
func (s *Store) RunByID(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// RecentRuns returns the newest runs first, at most limit of them.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const volumeColumns = "id, run_id, path, title, status, error_message, pages, duration_ms, processed_at"

// VolumesForRun returns every recorded volume of a run in insertion order.
func (s *Store) VolumesForRun(ctx context.Context, runID string) ([]*Volume, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+volumeColumns+` FROM volumes WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query volumes: %w", err)
	}
	defer rows.Close()

	var volumes []*Volume
	for rows.Next() {
		vol, err := scanVolume(rows)
		if err != nil {
			return nil, err
		}
		volumes = append(volumes, vol)
	}
	return volumes, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id          string
		startedRaw  sql.NullString
		finishedRaw sql.NullString
		total       sql.NullInt64
		succeeded   sql.NullInt64
		model       sql.NullString
		ocrDisabled sql.NullInt64
	)
	if err := scanner.Scan(&id, &startedRaw, &finishedRaw, &total, &succeeded, &model, &ocrDisabled); err != nil {
		return nil, err
	}

	run := &Run{
		ID:        id,
		Total:     int(total.Int64),
		Succeeded: int(succeeded.Int64),
		Model:     model.String,
	}
	if ocrDisabled.Valid {
		run.OCRDisabled = ocrDisabled.Int64 != 0
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func scanVolume(scanner interface{ Scan(dest ...any) error }) (*Volume, error) {
	var (
		id           int64
		runID        string
		path         string
		title        sql.NullString
		statusStr    string
		errorMessage sql.NullString
		pages        sql.NullInt64
		durationMS   sql.NullInt64
		processedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &runID, &path, &title, &statusStr, &errorMessage, &pages, &durationMS, &processedRaw); err != nil {
		return nil, err
	}

	vol := &Volume{
		ID:           id,
		RunID:        runID,
		Path:         path,
		Title:        title.String,
		Status:       Status(statusStr),
		ErrorMessage: errorMessage.String,
		Pages:        int(pages.Int64),
		Duration:     time.Duration(durationMS.Int64) * time.Millisecond,
	}
	if processed, err := parseTimeString(processedRaw.String); err == nil {
		vol.ProcessedAt = processed
	}
	return vol, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
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

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
