package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status values persisted for each result row.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run summarizes one batch invocation.
type Run struct {
	ID         string    `json:"id"`
	Selection  string    `json:"selection"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Requested  int       `json:"requested"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

// timeLayout keeps a fixed fraction width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is the persisted outcome of one entry render.
type Record struct {
	ID               int64         `json:"id"`
	RunID            string        `json:"run_id"`
	EntryID          int           `json:"entry_id"`
	EntryName        string        `json:"entry_name"`
	Slug             string        `json:"slug"`
	Status           string        `json:"status"`
	OutputPath       string        `json:"output_path,omitempty"`
	EstimatedSeconds float64       `json:"estimated_seconds"`
	MeasuredSeconds  float64       `json:"measured_seconds,omitempty"`
	FadeOutcome      string        `json:"fade_outcome,omitempty"`
	ErrorKind        string        `json:"error_kind,omitempty"`
	ErrorMessage     string        `json:"error_message,omitempty"`
	Elapsed          time.Duration `json:"elapsed"`
	FinishedAt       time.Time     `json:"finished_at"`
}

const recordColumns = `id, run_id, entry_id, entry_name, slug, status, output_path,
	estimated_seconds, measured_seconds, fade_outcome, error_kind, error_message,
	elapsed_ms, finished_at`

// BeginRun inserts the run row that subsequent records attach to.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("begin run: id is required")
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, selection, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Selection, formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun stores the final counts for a run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	res, err := s.exec(ctx,
		`UPDATE runs SET finished_at = ?, requested = ?, succeeded = ?, failed = ? WHERE id = ?`,
		formatTime(run.FinishedAt), run.Requested, run.Succeeded, run.Failed, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %q", run.ID)
	}
	return nil
}

// Record appends one entry outcome and returns its row id.
func (s *Store) Record(ctx context.Context, rec Record) (int64, error) {
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}
	res, err := s.exec(ctx,
		`INSERT INTO results (run_id, entry_id, entry_name, slug, status, output_path,
			estimated_seconds, measured_seconds, fade_outcome, error_kind, error_message,
			elapsed_ms, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.EntryID, rec.EntryName, rec.Slug, rec.Status, nullString(rec.OutputPath),
		rec.EstimatedSeconds, rec.MeasuredSeconds, nullString(rec.FadeOutcome),
		nullString(rec.ErrorKind), nullString(rec.ErrorMessage),
		rec.Elapsed.Milliseconds(), formatTime(rec.FinishedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("record result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record result id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit results, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM results ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LastSuccess returns the newest successful render per entry id.
func (s *Store) LastSuccess(ctx context.Context) (map[int]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM results WHERE status = ? ORDER BY finished_at ASC, id ASC`, StatusSucceeded)
	if err != nil {
		return nil, fmt.Errorf("list successes: %w", err)
	}
	defer rows.Close()

	out := make(map[int]Record)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out[rec.EntryID] = rec
	}
	return out, rows.Err()
}

// GetRun fetches a run by id; a missing run returns nil without error.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, selection, started_at, finished_at, requested, succeeded, failed FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Selection, &started, &finished, &run.Requested, &run.Succeeded, &run.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec                                      Record
		output, fadeOutcome, errKind, errMessage sql.NullString
		elapsedMS                                int64
		finished                                 string
	)
	if err := row.Scan(
		&rec.ID, &rec.RunID, &rec.EntryID, &rec.EntryName, &rec.Slug, &rec.Status, &output,
		&rec.EstimatedSeconds, &rec.MeasuredSeconds, &fadeOutcome, &errKind, &errMessage,
		&elapsedMS, &finished,
	); err != nil {
		return Record{}, err
	}
	rec.OutputPath = output.String
	rec.FadeOutcome = fadeOutcome.String
	rec.ErrorKind = errKind.String
	rec.ErrorMessage = errMessage.String
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	rec.FinishedAt = parseTime(finished)
	return rec, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
