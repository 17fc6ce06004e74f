package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the outcome of a run.
type RunStatus string

const (
	StatusOK     RunStatus = "ok"
	StatusFailed RunStatus = "failed"
	StatusDryRun RunStatus = "dry_run"
)

// Run is one ledger row.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     RunStatus `json:"status"`
	Stage      string    `json:"stage,omitempty"` // failing stage
	ErrorCode  string    `json:"error_code,omitempty"`
	Error      string    `json:"error,omitempty"`

	BaseJSON         string `json:"base_json"`
	BaseImagePath    string `json:"base_image_path"`
	AddJSON          string `json:"add_json"`
	AddImagePath     string `json:"add_image_path"`
	UnifiedJSON      string `json:"unified_json"`
	UnifiedImagePath string `json:"unified_image_path"`
	RemapPolicy      string `json:"remap_policy"`

	ImagesAdded      int `json:"images_added"`
	ImagesSkipped    int `json:"images_skipped"`
	CategoriesAdded  int `json:"categories_added"`
	AnnotationsAdded int `json:"annotations_added"`
	FilesCopied      int `json:"files_copied"`
	FilesOverwritten int `json:"files_overwritten"`

	// Remaps is filled by GetRun only.
	Remaps []CategoryRemap `json:"remaps,omitempty"`
}

// CategoryRemap is one row of a run's category remap table.
type CategoryRemap struct {
	AddID     int64  `json:"add_id"`
	UnifiedID int64  `json:"unified_id"`
	Name      string `json:"name"`
	New       bool   `json:"new"`
}

// RecordRun stores a run and its remap table in one transaction.
// Recording the same id twice fails.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("record run: empty id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, finished_at, status, stage, error_code, error,
		 base_json, base_image_path, add_json, add_image_path, unified_json, unified_image_path, remap_policy,
		 images_added, images_skipped, categories_added, annotations_added, files_copied, files_overwritten)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		string(run.Status),
		run.Stage,
		run.ErrorCode,
		run.Error,
		run.BaseJSON,
		run.BaseImagePath,
		run.AddJSON,
		run.AddImagePath,
		run.UnifiedJSON,
		run.UnifiedImagePath,
		run.RemapPolicy,
		run.ImagesAdded,
		run.ImagesSkipped,
		run.CategoriesAdded,
		run.AnnotationsAdded,
		run.FilesCopied,
		run.FilesOverwritten,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	for _, r := range run.Remaps {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO category_remaps (run_id, add_id, unified_id, name, is_new)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, r.AddID, r.UnifiedID, r.Name, boolToInt(r.New))
		if err != nil {
			return fmt.Errorf("record run: remap %d: %w", r.AddID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

const runColumns = `
	id, started_at, finished_at, status, stage, error_code, error,
	base_json, base_image_path, add_json, add_image_path, unified_json, unified_image_path, remap_policy,
	images_added, images_skipped, categories_added, annotations_added, files_copied, files_overwritten`

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
// Remap tables are not loaded.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run including its remap table.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT add_id, unified_id, name, is_new
		FROM category_remaps
		WHERE run_id = ?
		ORDER BY add_id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r CategoryRemap
		var isNew int
		if err := rows.Scan(&r.AddID, &r.UnifiedID, &r.Name, &isNew); err != nil {
			return nil, fmt.Errorf("get run %s: %w", id, err)
		}
		r.New = isNew == 1
		run.Remaps = append(run.Remaps, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var started, finished, status string
	err := sc.Scan(
		&run.ID, &started, &finished, &status, &run.Stage, &run.ErrorCode, &run.Error,
		&run.BaseJSON, &run.BaseImagePath, &run.AddJSON, &run.AddImagePath,
		&run.UnifiedJSON, &run.UnifiedImagePath, &run.RemapPolicy,
		&run.ImagesAdded, &run.ImagesSkipped, &run.CategoriesAdded, &run.AnnotationsAdded,
		&run.FilesCopied, &run.FilesOverwritten,
	)
	if err != nil {
		return run, err
	}
	run.Status = RunStatus(status)
	if run.StartedAt, err = parseTime(started); err != nil {
		return run, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return run, err
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
