package coordinator

// Coordinator statement states with special meaning to the poller. Any other
// value reported by the server is treated as still-in-progress.
const (
	stateFinished = "FINISHED"
	stateFailed   = "FAILED"
)

// defaultErrorMessage is used when a FAILED response carries no error block.
const defaultErrorMessage = "Unknown error"

// statementStats is the subset of the coordinator's stats block the poller
// consumes. Counters the server omits decode to zero.
type statementStats struct {
	State             string `json:"state"`
	ProcessedRows     int64  `json:"processedRows"`
	ProcessedBytes    int64  `json:"processedBytes"`
	CPUTimeMillis     int64  `json:"cpuTimeMillis"`
	WallTimeMillis    int64  `json:"wallTimeMillis"`
	ElapsedTimeMillis int64  `json:"elapsedTimeMillis"`
}

// statementError is the coordinator's error block, present only on FAILED.
type statementError struct {
	Message   string `json:"message"`
	ErrorCode int    `json:"errorCode"`
	ErrorName string `json:"errorName"`
	ErrorType string `json:"errorType"`
}

// statementResponse models a /v1/statement response. The continuation URI is
// absent once the query reaches a terminal state.
type statementResponse struct {
	ID      string          `json:"id"`
	InfoURI string          `json:"infoUri"`
	NextURI string          `json:"nextUri"`
	Stats   statementStats  `json:"stats"`
	Error   *statementError `json:"error"`
}

// errorMessage returns the server-reported failure message, falling back to
// defaultErrorMessage when the error block or its message is absent.
func (r *statementResponse) errorMessage() string {
	if r.Error == nil || r.Error.Message == "" {
		return defaultErrorMessage
	}
	return r.Error.Message
}
