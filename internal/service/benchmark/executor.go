package benchmark

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"querybench/internal/domain"
)

// ExecuteOptions configures one suite execution.
type ExecuteOptions struct {
	// RunID is stamped on every produced QueryResult. Optional.
	RunID string
	// Concurrency is the maximum number of in-flight queries (default 1).
	// Each worker drives its own poller; workers share no mutable state.
	Concurrency int
	// SubmitRate bounds the statement submission rate across workers.
	// Nil means unlimited.
	SubmitRate *rate.Limiter
	// OnResult is invoked for each terminal result as it completes. Optional.
	OnResult func(domain.QueryResult)
	Logger   *slog.Logger
}

// Execute runs every query of the suite to a terminal outcome and returns the
// results in suite order. Individual query failures and timeouts never abort
// the remaining queries; only context cancellation stops the execution early,
// in which case the partial results collected so far are returned with the
// context error.
func Execute(ctx context.Context, runner domain.StatementRunner, s *domain.Suite, opts ExecuteOptions) ([]domain.QueryResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]*domain.QueryResult, len(s.Queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, q := range s.Queries {
		g.Go(func() error {
			if opts.SubmitRate != nil {
				if err := opts.SubmitRate.Wait(gctx); err != nil {
					return err
				}
			}

			logger.Debug("submitting query", "query", q.Name)
			jobRes, err := runner.SubmitAndWait(gctx, q.SQL)
			if err != nil {
				// Only context cancellation escapes the poller.
				return err
			}

			res := toQueryResult(opts.RunID, q, jobRes)
			results[i] = &res

			logger.Info("query finished",
				"query", q.Name,
				"outcome", jobRes.Outcome,
				"elapsed_ms", jobRes.Elapsed.Milliseconds(),
			)
			if opts.OnResult != nil {
				opts.OnResult(res)
			}
			return nil
		})
	}

	err := g.Wait()

	out := make([]domain.QueryResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, err
}

func toQueryResult(runID string, q domain.SuiteQuery, jobRes *domain.QueryJobResult) domain.QueryResult {
	res := domain.QueryResult{
		RunID:     runID,
		QueryName: q.Name,
		SQLText:   q.SQL,
		Outcome:   jobRes.Outcome,
		ElapsedMS: jobRes.Elapsed.Milliseconds(),
		Metrics:   jobRes.Metrics,
		CreatedAt: time.Now().UTC(),
	}
	if jobRes.ErrorMessage != "" {
		msg := jobRes.ErrorMessage
		res.ErrorMessage = &msg
	}
	return res
}
