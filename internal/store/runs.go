package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/strataspec/strata/internal/diag"
)

// Run is one recorded validation run.
type Run struct {
	ID          string            `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	Root        string            `json:"root"`
	Pass        bool              `json:"pass"`
	ErrorCount  int               `json:"error_count"`
	InfoCount   int               `json:"info_count"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

// RecordRun inserts a run record. Uses ON CONFLICT(id) DO NOTHING for
// idempotency - re-recording the same run id is silently ignored.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	diagJSON, err := json.Marshal(run.Diagnostics)
	if err != nil {
		return fmt.Errorf("record run: marshal diagnostics: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at, root, pass, error_count, info_count, diagnostics)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.Root,
		boolToInt(run.Pass),
		run.ErrorCount,
		run.InfoCount,
		string(diagJSON),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	return nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
// A limit of zero or less means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, created_at, root, pass, error_count, info_count, diagnostics
		FROM runs
		ORDER BY created_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
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
		return nil, fmt.Errorf("list runs: %w", err)
	}

	return runs, nil
}

// GetRun fetches a single run by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, root, pass, error_count, info_count, diagnostics
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var createdAt string
	var pass int
	var diagJSON string

	if err := row.Scan(&run.ID, &createdAt, &run.Root, &pass, &run.ErrorCount, &run.InfoCount, &diagJSON); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: parse created_at: %w", err)
	}
	run.CreatedAt = t
	run.Pass = pass != 0

	if err := json.Unmarshal([]byte(diagJSON), &run.Diagnostics); err != nil {
		return Run{}, fmt.Errorf("scan run: unmarshal diagnostics: %w", err)
	}

	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
