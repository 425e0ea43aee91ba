package repository

import (
	"context"
	"database/sql"
	"time"

	"querybench/internal/domain"
)

var _ domain.QueryResultRepository = (*QueryResultRepo)(nil)

// QueryResultRepo stores per-query terminal records in SQLite. Inserts go
// through the serialized write pool; ListByRun reads from the read pool.
type QueryResultRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewQueryResultRepo creates a new QueryResultRepo on a write/read pool pair.
func NewQueryResultRepo(writeDB, readDB *sql.DB) *QueryResultRepo {
	return &QueryResultRepo{write: writeDB, read: readDB}
}

// Create inserts a terminal query record.
func (r *QueryResultRepo) Create(ctx context.Context, res *domain.QueryResult) (*domain.QueryResult, error) {
	if res == nil {
		return nil, domain.ErrValidation("query result is required")
	}
	if res.RunID == "" || res.QueryName == "" {
		return nil, domain.ErrValidation("run id and query name are required")
	}
	if !res.Outcome.Terminal() {
		return nil, domain.ErrValidation("outcome %q is not terminal", res.Outcome)
	}
	if res.ID == "" {
		res.ID = domain.NewID()
	}

	_, err := r.write.ExecContext(ctx, `
		INSERT INTO query_results (
			id, run_id, query_name, sql_text, outcome, elapsed_ms,
			processed_rows, processed_bytes, cpu_time_ms, wall_time_ms, elapsed_time_ms,
			error_message, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, res.ID, res.RunID, res.QueryName, res.SQLText, string(res.Outcome), res.ElapsedMS,
		res.Metrics.ProcessedRows, res.Metrics.ProcessedBytes, res.Metrics.CPUTimeMillis,
		res.Metrics.WallTimeMillis, res.Metrics.ElapsedMillis,
		nullString(res.ErrorMessage))
	if err != nil {
		return nil, mapDBError(err)
	}

	rows, err := r.ListByRun(ctx, res.RunID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].ID == res.ID {
			return &rows[i], nil
		}
	}
	return res, nil
}

// ListByRun returns all recorded results for a run in query-name order.
func (r *QueryResultRepo) ListByRun(ctx context.Context, runID string) ([]domain.QueryResult, error) {
	rows, err := r.read.QueryContext(ctx, `
		SELECT id, run_id, query_name, sql_text, outcome, elapsed_ms,
		       processed_rows, processed_bytes, cpu_time_ms, wall_time_ms, elapsed_time_ms,
		       error_message, created_at, completed_at
		FROM query_results
		WHERE run_id = ?
		ORDER BY query_name
	`, runID)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []domain.QueryResult
	for rows.Next() {
		var (
			res          domain.QueryResult
			outcome      string
			errorMessage sql.NullString
			createdAt    time.Time
			completedAt  sql.NullTime
		)
		if err := rows.Scan(
			&res.ID,
			&res.RunID,
			&res.QueryName,
			&res.SQLText,
			&outcome,
			&res.ElapsedMS,
			&res.Metrics.ProcessedRows,
			&res.Metrics.ProcessedBytes,
			&res.Metrics.CPUTimeMillis,
			&res.Metrics.WallTimeMillis,
			&res.Metrics.ElapsedMillis,
			&errorMessage,
			&createdAt,
			&completedAt,
		); err != nil {
			return nil, mapDBError(err)
		}
		res.Outcome = domain.QueryOutcome(outcome)
		res.CreatedAt = createdAt
		if errorMessage.Valid {
			msg := errorMessage.String
			res.ErrorMessage = &msg
		}
		if completedAt.Valid {
			t := completedAt.Time
			res.CompletedAt = &t
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
