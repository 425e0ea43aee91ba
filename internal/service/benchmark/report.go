package benchmark

import "querybench/internal/domain"

// BuildReport aggregates a run's recorded query results into a RunReport.
func BuildReport(run *domain.BenchmarkRun, results []domain.QueryResult) domain.RunReport {
	report := domain.RunReport{
		RunID:     run.ID,
		SuiteName: run.SuiteName,
		Status:    run.Status,
		Queries:   len(results),
	}

	for i, r := range results {
		switch r.Outcome {
		case domain.OutcomeSuccess:
			report.Succeeded++
		case domain.OutcomeFailed:
			report.Failed++
		case domain.OutcomeTimeout:
			report.TimedOut++
		case domain.OutcomeSubmitError:
			report.Errored++
		}

		report.TotalElapsedMS += r.ElapsedMS
		if i == 0 || r.ElapsedMS < report.MinElapsedMS {
			report.MinElapsedMS = r.ElapsedMS
		}
		if r.ElapsedMS > report.MaxElapsedMS {
			report.MaxElapsedMS = r.ElapsedMS
		}

		report.TotalRows += r.Metrics.ProcessedRows
		report.TotalBytes += r.Metrics.ProcessedBytes
		report.TotalCPUMS += r.Metrics.CPUTimeMillis
		report.WallTimeMS += r.Metrics.WallTimeMillis
		report.ElapsedTimeMS += r.Metrics.ElapsedMillis
	}

	if len(results) > 0 {
		report.MeanElapsedMS = float64(report.TotalElapsedMS) / float64(len(results))
	}

	return report
}
