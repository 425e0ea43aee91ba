package domain

import "time"

// RunStatus represents the lifecycle state of a benchmark run.
type RunStatus string

// Benchmark run lifecycle statuses.
const (
	RunStatusQueued    RunStatus = "QUEUED"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusCanceled  RunStatus = "CANCELED"
)

// TriggerType distinguishes how a run was started.
type TriggerType string

// Run trigger types.
const (
	TriggerTypeManual    TriggerType = "manual"
	TriggerTypeScheduled TriggerType = "scheduled"
)

// BenchmarkRun stores durable state for one execution of a query suite.
type BenchmarkRun struct {
	ID           string
	SuiteName    string
	TriggerType  TriggerType
	Status       RunStatus
	Concurrency  int
	QueryCount   int
	ErrorMessage *string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	UpdatedAt    time.Time
}

// QueryResult stores the terminal record of one query within a run.
type QueryResult struct {
	ID           string
	RunID        string
	QueryName    string
	SQLText      string
	Outcome      QueryOutcome
	ElapsedMS    int64
	Metrics      QueryMetrics
	ErrorMessage *string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// RunReport aggregates a finished run's query results for downstream
// consumption (benchmark summaries, dashboards).
type RunReport struct {
	RunID     string    `json:"run_id"`
	SuiteName string    `json:"suite_name"`
	Status    RunStatus `json:"status"`

	Queries   int `json:"queries"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	TimedOut  int `json:"timed_out"`
	Errored   int `json:"errored"` // submission errors

	TotalElapsedMS int64   `json:"total_elapsed_ms"`
	MinElapsedMS   int64   `json:"min_elapsed_ms"`
	MaxElapsedMS   int64   `json:"max_elapsed_ms"`
	MeanElapsedMS  float64 `json:"mean_elapsed_ms"`

	TotalRows     int64 `json:"total_rows"`
	TotalBytes    int64 `json:"total_bytes"`
	TotalCPUMS    int64 `json:"total_cpu_ms"`
	WallTimeMS    int64 `json:"wall_time_ms"`    // sum of engine wall time
	ElapsedTimeMS int64 `json:"elapsed_time_ms"` // sum of engine elapsed time
}
