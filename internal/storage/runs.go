package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/ecomap/internal/common"
	"github.com/Veraticus/ecomap/internal/model"
)

// SaveRun stores a run and its labels in a single transaction.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *model.Run, labels model.Labels) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run, labels); err != nil {
		return err
	}

	partitions, err := json.Marshal(run.Partitions)
	if err != nil {
		return fmt.Errorf("failed to marshal partitions: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, ecotope_config, substratum, partitions,
			points, unique_codes, wildcard_points, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.EcotopeConfig, run.Substratum, string(partitions),
		run.Points, run.UniqueCodes, run.WildcardPoints, run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO labels (run_id, seq, x, y, code) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, l := range labels {
		if _, err := stmt.ExecContext(ctx, run.ID, i, l.Point.X, l.Point.Y, l.Code); err != nil {
			return fmt.Errorf("failed to save label %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun returns a stored run.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, ecotope_config, substratum, partitions,
			points, unique_codes, wildcard_points, duration_ms
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the stored runs, most recent first.
func (s *SQLiteStorage) ListRuns(ctx context.Context) ([]model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, ecotope_config, substratum, partitions,
			points, unique_codes, wildcard_points, duration_ms
		FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRunLabels returns the labels of a run in production order.
func (s *SQLiteStorage) GetRunLabels(ctx context.Context, id string) (model.Labels, error) {
	if _, err := s.GetRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT x, y, code FROM labels WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var labels model.Labels
	for rows.Next() {
		var l model.Label
		if err := rows.Scan(&l.Point.X, &l.Point.Y, &l.Code); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// DeleteRun removes a run and its labels.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.Run, error) {
	var (
		run        model.Run
		substratum sql.NullString
		partitions string
		durationMS int64
	)
	err := row.Scan(&run.ID, &run.StartedAt, &run.EcotopeConfig, &substratum, &partitions,
		&run.Points, &run.UniqueCodes, &run.WildcardPoints, &durationMS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Substratum = substratum.String
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if err := json.Unmarshal([]byte(partitions), &run.Partitions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal partitions of run %s: %w", run.ID, err)
	}
	return &run, nil
}
