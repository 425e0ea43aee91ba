package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"querybench/internal/domain"
)

var _ domain.BenchmarkRunRepository = (*BenchmarkRunRepo)(nil)

// BenchmarkRunRepo stores benchmark run lifecycle state in SQLite. Mutations
// go through the serialized write pool; GetByID and List read from the
// concurrent read pool.
type BenchmarkRunRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewBenchmarkRunRepo creates a new BenchmarkRunRepo on a write/read pool pair.
func NewBenchmarkRunRepo(writeDB, readDB *sql.DB) *BenchmarkRunRepo {
	return &BenchmarkRunRepo{write: writeDB, read: readDB}
}

// Create inserts a new benchmark run.
func (r *BenchmarkRunRepo) Create(ctx context.Context, run *domain.BenchmarkRun) (*domain.BenchmarkRun, error) {
	if run == nil {
		return nil, domain.ErrValidation("benchmark run is required")
	}
	if run.SuiteName == "" {
		return nil, domain.ErrValidation("suite name is required")
	}
	if run.ID == "" {
		run.ID = domain.NewID()
	}
	if run.Status == "" {
		run.Status = domain.RunStatusQueued
	}
	if run.TriggerType == "" {
		run.TriggerType = domain.TriggerTypeManual
	}

	_, err := r.write.ExecContext(ctx, `
		INSERT INTO benchmark_runs (id, suite_name, trigger_type, status, concurrency, query_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.SuiteName, string(run.TriggerType), string(run.Status), run.Concurrency, run.QueryCount)
	if err != nil {
		return nil, mapDBError(err)
	}

	return r.GetByID(ctx, run.ID)
}

// GetByID returns a benchmark run by ID.
func (r *BenchmarkRunRepo) GetByID(ctx context.Context, id string) (*domain.BenchmarkRun, error) {
	row := r.read.QueryRowContext(ctx, `
		SELECT id, suite_name, trigger_type, status, concurrency, query_count,
		       error_message, created_at, started_at, completed_at, updated_at
		FROM benchmark_runs WHERE id = ?
	`, id)
	return scanRun(row.Scan)
}

// List returns the most recent runs, newest first.
func (r *BenchmarkRunRepo) List(ctx context.Context, limit int) ([]domain.BenchmarkRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.read.QueryContext(ctx, `
		SELECT id, suite_name, trigger_type, status, concurrency, query_count,
		       error_message, created_at, started_at, completed_at, updated_at
		FROM benchmark_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []domain.BenchmarkRun
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

// MarkRunning updates a queued run to running.
func (r *BenchmarkRunRepo) MarkRunning(ctx context.Context, id string) error {
	res, err := r.write.ExecContext(ctx, `
		UPDATE benchmark_runs
		SET status = ?, started_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, string(domain.RunStatusRunning), id, string(domain.RunStatusQueued))
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrConflict("run %q is not in QUEUED state", id)
	}
	return nil
}

// MarkFinished records a run's terminal status. Terminal states are sticky:
// a run that already completed is never transitioned again.
func (r *BenchmarkRunRepo) MarkFinished(ctx context.Context, id string, status domain.RunStatus, errorMessage *string) error {
	switch status {
	case domain.RunStatusSucceeded, domain.RunStatusFailed, domain.RunStatusCanceled:
	default:
		return domain.ErrValidation("status %q is not terminal", status)
	}

	res, err := r.write.ExecContext(ctx, `
		UPDATE benchmark_runs
		SET status = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (?, ?)
	`, string(status), nullString(errorMessage), id,
		string(domain.RunStatusQueued), string(domain.RunStatusRunning))
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrConflict("run %q is not in a non-terminal state", id)
	}
	return nil
}

func scanRun(scan func(dest ...any) error) (*domain.BenchmarkRun, error) {
	var (
		run                    domain.BenchmarkRun
		triggerType, status    string
		errorMessage           sql.NullString
		startedAt, completedAt sql.NullTime
		createdAt, updatedAt   time.Time
	)

	err := scan(
		&run.ID,
		&run.SuiteName,
		&triggerType,
		&status,
		&run.Concurrency,
		&run.QueryCount,
		&errorMessage,
		&createdAt,
		&startedAt,
		&completedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, mapDBError(err)
	}

	run.TriggerType = domain.TriggerType(triggerType)
	run.Status = domain.RunStatus(status)
	run.CreatedAt = createdAt
	run.UpdatedAt = updatedAt
	if errorMessage.Valid {
		msg := errorMessage.String
		run.ErrorMessage = &msg
	}
	if startedAt.Valid {
		t := startedAt.Time
		run.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}

	return &run, nil
}
