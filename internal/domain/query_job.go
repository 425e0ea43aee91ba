package domain

import "time"

// QueryOutcome is the terminal classification of one submitted query.
type QueryOutcome string

// Terminal outcomes of a query job. Exactly one is produced per submission.
const (
	// OutcomeSuccess means the coordinator reported FINISHED.
	OutcomeSuccess QueryOutcome = "SUCCESS"
	// OutcomeFailed means the coordinator reported FAILED. Authoritative, not retried.
	OutcomeFailed QueryOutcome = "FAILED"
	// OutcomeTimeout means no terminal state was observed within the wait
	// budget. The coordinator-side query may still be running.
	OutcomeTimeout QueryOutcome = "TIMEOUT"
	// OutcomeSubmitError means the initial submission did not yield a
	// continuation URI. No polling was attempted.
	OutcomeSubmitError QueryOutcome = "SUBMIT_ERROR"
)

// Terminal reports whether o is a valid terminal outcome value.
func (o QueryOutcome) Terminal() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailed, OutcomeTimeout, OutcomeSubmitError:
		return true
	}
	return false
}

// QueryMetrics holds the engine-reported statistics from the final statement
// response. Fields the coordinator omits stay zero.
type QueryMetrics struct {
	ProcessedRows  int64 `json:"processed_rows"`
	ProcessedBytes int64 `json:"processed_bytes"`
	CPUTimeMillis  int64 `json:"cpu_time_millis"`
	WallTimeMillis int64 `json:"wall_time_millis"`
	ElapsedMillis  int64 `json:"elapsed_time_millis"`
}

// QueryJobResult is the terminal record of one submitted query, as observed
// by the poller. Elapsed is measured by the poller's own clock, never taken
// from the coordinator.
type QueryJobResult struct {
	Outcome      QueryOutcome  `json:"outcome"`
	Elapsed      time.Duration `json:"elapsed"`
	Metrics      QueryMetrics  `json:"metrics"`
	ErrorMessage string        `json:"error_message,omitempty"`
}
