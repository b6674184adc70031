// CLAUDE:SUMMARY Run lifecycle and tooltip persistence: create, save batch, finish/fail, query history.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// CreateRun opens a new run in the running state and returns it.
func (s *Store) CreateRun(ctx context.Context, url, chartTitle string) (*Run, error) {
	run := &Run{
		ID:         s.newID(),
		URL:        url,
		ChartTitle: chartTitle,
		Status:     StatusRunning,
		StartedAt:  time.Now().UnixMilli(),
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO runs (id, url, chart_title, status, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.URL, run.ChartTitle, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// SaveTooltips stores a batch of raw tooltip texts for a run, in the
// given order. The whole batch goes in one transaction; a half-saved
// capture is worse than none.
func (s *Store) SaveTooltips(ctx context.Context, runID string, texts []string) error {
	if len(texts) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	for i, text := range texts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tooltips (id, run_id, seq, text, captured_at)
			VALUES (?, ?, ?, ?, ?)`,
			s.newID(), runID, i, text, now,
		); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET tooltip_count = ? WHERE id = ?`,
		len(texts), runID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// FinishRun marks a run finished with its outcome.
func (s *Store) FinishRun(ctx context.Context, runID, dialect string, recordCount int) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE runs SET status = ?, dialect = ?, record_count = ?, finished_at = ?
		WHERE id = ?`,
		StatusFinished, dialect, recordCount, time.Now().UnixMilli(), runID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// FailRun marks a run failed with an error message.
func (s *Store) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		StatusFailed, msg, time.Now().UnixMilli(), runID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, url, chart_title, dialect, status, error,
		tooltip_count, record_count, started_at, finished_at
		FROM runs WHERE id = ?`, id)

	run := &Run{}
	err := row.Scan(&run.ID, &run.URL, &run.ChartTitle, &run.Dialect,
		&run.Status, &run.Error, &run.TooltipCount, &run.RecordCount,
		&run.StartedAt, &run.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, url, chart_title, dialect, status, error,
		tooltip_count, record_count, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(&run.ID, &run.URL, &run.ChartTitle, &run.Dialect,
			&run.Status, &run.Error, &run.TooltipCount, &run.RecordCount,
			&run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// TooltipsForRun returns a run's raw tooltip texts in capture order.
func (s *Store) TooltipsForRun(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT text FROM tooltips WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

// DeleteRun removes a run (cascades to its tooltips).
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}
