package domain

import "context"

// StatementRunner drives a single query from submission to terminal state
// against a coordinator. Implementations block until one of the four terminal
// outcomes is reached; only context cancellation returns an error.
type StatementRunner interface {
	SubmitAndWait(ctx context.Context, sql string) (*QueryJobResult, error)
}

// BenchmarkRunRepository persists benchmark run lifecycle state.
type BenchmarkRunRepository interface {
	Create(ctx context.Context, run *BenchmarkRun) (*BenchmarkRun, error)
	GetByID(ctx context.Context, id string) (*BenchmarkRun, error)
	List(ctx context.Context, limit int) ([]BenchmarkRun, error)
	MarkRunning(ctx context.Context, id string) error
	MarkFinished(ctx context.Context, id string, status RunStatus, errorMessage *string) error
}

// QueryResultRepository persists per-query terminal records.
type QueryResultRepository interface {
	Create(ctx context.Context, res *QueryResult) (*QueryResult, error)
	ListByRun(ctx context.Context, runID string) ([]QueryResult, error)
}

// SuiteSource resolves named suites. Implementations load from a directory of
// manifests, embedded defaults, or both.
type SuiteSource interface {
	Suite(name string) (*Suite, error)
	List() ([]Suite, error)
}
