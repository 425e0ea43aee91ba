package api

import (
	"time"

	"querybench/internal/domain"
)

func runToAPI(run *domain.BenchmarkRun) runResponse {
	return runResponse{
		ID:           run.ID,
		Suite:        run.SuiteName,
		TriggerType:  string(run.TriggerType),
		Status:       string(run.Status),
		Concurrency:  run.Concurrency,
		QueryCount:   run.QueryCount,
		ErrorMessage: run.ErrorMessage,
		CreatedAt:    run.CreatedAt.UTC().Format(time.RFC3339),
		StartedAt:    timePtrToAPI(run.StartedAt),
		CompletedAt:  timePtrToAPI(run.CompletedAt),
	}
}

func queryResultToAPI(qr *domain.QueryResult) queryResultResponse {
	return queryResultResponse{
		QueryName:    qr.QueryName,
		Outcome:      string(qr.Outcome),
		ElapsedMS:    qr.ElapsedMS,
		Rows:         qr.Metrics.ProcessedRows,
		Bytes:        qr.Metrics.ProcessedBytes,
		CPUTimeMS:    qr.Metrics.CPUTimeMillis,
		WallTimeMS:   qr.Metrics.WallTimeMillis,
		EngineMS:     qr.Metrics.ElapsedMillis,
		ErrorMessage: qr.ErrorMessage,
	}
}

func timePtrToAPI(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
