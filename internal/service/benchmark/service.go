// Package benchmark orchestrates benchmark runs: suite resolution, bounded
// concurrent query execution through the coordinator poller, and run/result
// persistence.
package benchmark

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"querybench/internal/domain"
	"querybench/internal/metrics"
)

// Service drives benchmark runs end to end.
type Service struct {
	runs    domain.BenchmarkRunRepository
	results domain.QueryResultRepository
	suites  domain.SuiteSource
	runner  domain.StatementRunner

	defaultConcurrency int
	submitRPS          float64
	logger             *slog.Logger
}

// Config holds the service's tunables.
type Config struct {
	// DefaultConcurrency applies when a trigger does not specify one.
	DefaultConcurrency int
	// SubmitRPS bounds the statement submission rate per run (0 = unlimited).
	SubmitRPS float64
}

// NewService creates a benchmark Service.
func NewService(
	runs domain.BenchmarkRunRepository,
	results domain.QueryResultRepository,
	suites domain.SuiteSource,
	runner domain.StatementRunner,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.DefaultConcurrency <= 0 {
		cfg.DefaultConcurrency = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		runs:               runs,
		results:            results,
		suites:             suites,
		runner:             runner,
		defaultConcurrency: cfg.DefaultConcurrency,
		submitRPS:          cfg.SubmitRPS,
		logger:             logger,
	}
}

// TriggerOptions overrides per-run execution parameters.
type TriggerOptions struct {
	Concurrency int
	TriggerType domain.TriggerType
}

// TriggerRun creates a run for the named suite and starts executing it in the
// background. The returned run is in QUEUED state; callers observe progress
// through GetRun.
func (s *Service) TriggerRun(ctx context.Context, suiteName string, opts TriggerOptions) (*domain.BenchmarkRun, error) {
	st, err := s.suites.Suite(suiteName)
	if err != nil {
		return nil, err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = s.defaultConcurrency
	}
	triggerType := opts.TriggerType
	if triggerType == "" {
		triggerType = domain.TriggerTypeManual
	}

	run, err := s.runs.Create(ctx, &domain.BenchmarkRun{
		SuiteName:   st.Name,
		TriggerType: triggerType,
		Status:      domain.RunStatusQueued,
		Concurrency: concurrency,
		QueryCount:  len(st.Queries),
	})
	if err != nil {
		return nil, err
	}

	go s.executeRun(run.ID, st, concurrency)

	return run, nil
}

// GetRun returns a run by ID.
func (s *Service) GetRun(ctx context.Context, id string) (*domain.BenchmarkRun, error) {
	return s.runs.GetByID(ctx, id)
}

// ListRuns returns the most recent runs.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]domain.BenchmarkRun, error) {
	return s.runs.List(ctx, limit)
}

// Results returns the recorded query results for a run.
func (s *Service) Results(ctx context.Context, runID string) ([]domain.QueryResult, error) {
	if _, err := s.runs.GetByID(ctx, runID); err != nil {
		return nil, err
	}
	return s.results.ListByRun(ctx, runID)
}

// Report aggregates a run's results.
func (s *Service) Report(ctx context.Context, runID string) (*domain.RunReport, error) {
	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	results, err := s.results.ListByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	report := BuildReport(run, results)
	return &report, nil
}

// CancelQueued cancels a run that has not started executing yet.
func (s *Service) CancelQueued(ctx context.Context, runID string) error {
	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status != domain.RunStatusQueued {
		return domain.ErrConflict("run %q is %s, only QUEUED runs can be canceled", runID, run.Status)
	}
	return s.runs.MarkFinished(ctx, runID, domain.RunStatusCanceled, nil)
}

// Suites lists the available suites.
func (s *Service) Suites() ([]domain.Suite, error) {
	return s.suites.List()
}

// executeRun processes a benchmark run in a background goroutine and records
// its terminal status.
func (s *Service) executeRun(runID string, st *domain.Suite, concurrency int) {
	ctx := context.Background()
	logger := s.logger.With("run_id", runID, "suite", st.Name)

	metrics.RunStarted()
	defer metrics.RunEnded()

	// Recover from panics.
	defer func() {
		if r := recover(); r != nil {
			errMsg := fmt.Sprintf("panic: %v", r)
			logger.Error("benchmark run panicked", "error", errMsg)
			_ = s.runs.MarkFinished(ctx, runID, domain.RunStatusFailed, &errMsg)
		}
	}()

	if err := s.runs.MarkRunning(ctx, runID); err != nil {
		// Canceled between creation and start.
		logger.Warn("run did not start", "error", err)
		return
	}
	logger.Info("benchmark run started", "queries", len(st.Queries), "concurrency", concurrency)

	var limiter *rate.Limiter
	if s.submitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.submitRPS), 1)
	}

	results, err := Execute(ctx, s.runner, st, ExecuteOptions{
		RunID:       runID,
		Concurrency: concurrency,
		SubmitRate:  limiter,
		Logger:      logger,
		OnResult: func(res domain.QueryResult) {
			if _, createErr := s.results.Create(ctx, &res); createErr != nil {
				logger.Error("record query result failed", "query", res.QueryName, "error", createErr)
			}
		},
	})
	if err != nil {
		errMsg := fmt.Sprintf("run aborted: %v", err)
		logger.Error("benchmark run aborted", "error", err)
		_ = s.runs.MarkFinished(ctx, runID, domain.RunStatusFailed, &errMsg)
		metrics.IncRunFinished(string(domain.RunStatusFailed))
		return
	}

	status, errMsg := classifyRun(results)
	_ = s.runs.MarkFinished(ctx, runID, status, errMsg)
	metrics.IncRunFinished(string(status))
	logger.Info("benchmark run finished", "status", status)
}

// classifyRun derives a run's terminal status from its query outcomes.
// Explicit query failures and submission errors fail the run; timeouts are
// recorded per query but do not, since the remote query may have kept running
// past the client's wait budget.
func classifyRun(results []domain.QueryResult) (domain.RunStatus, *string) {
	var failed int
	for _, r := range results {
		if r.Outcome == domain.OutcomeFailed || r.Outcome == domain.OutcomeSubmitError {
			failed++
		}
	}
	if failed > 0 {
		msg := fmt.Sprintf("%d of %d queries failed", failed, len(results))
		return domain.RunStatusFailed, &msg
	}
	return domain.RunStatusSucceeded, nil
}
