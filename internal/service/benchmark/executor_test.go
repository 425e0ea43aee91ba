package benchmark

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querybench/internal/domain"
)

// stubRunner scripts SubmitAndWait outcomes by SQL text.
type stubRunner struct {
	mu       sync.Mutex
	calls    []string
	inFlight atomic.Int64
	maxSeen  atomic.Int64
	delay    time.Duration
	fn       func(sql string) *domain.QueryJobResult
}

func (s *stubRunner) SubmitAndWait(ctx context.Context, sql string) (*domain.QueryJobResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if cur <= seen || s.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, sql)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}

	if s.fn != nil {
		return s.fn(sql), nil
	}
	return &domain.QueryJobResult{Outcome: domain.OutcomeSuccess, Elapsed: time.Millisecond}, nil
}

func testSuite(queries ...domain.SuiteQuery) *domain.Suite {
	return &domain.Suite{Name: "test", Queries: queries}
}

func TestExecute_AllSucceedInSuiteOrder(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	s := testSuite(
		domain.SuiteQuery{Name: "q01", SQL: "SELECT 1"},
		domain.SuiteQuery{Name: "q02", SQL: "SELECT 2"},
		domain.SuiteQuery{Name: "q03", SQL: "SELECT 3"},
	)

	var seen []string
	results, err := Execute(context.Background(), runner, s, ExecuteOptions{
		RunID:       "run-1",
		Concurrency: 2,
		OnResult:    func(r domain.QueryResult) { seen = append(seen, r.QueryName) },
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Results come back in suite order regardless of completion order.
	assert.Equal(t, "q01", results[0].QueryName)
	assert.Equal(t, "q02", results[1].QueryName)
	assert.Equal(t, "q03", results[2].QueryName)
	for _, r := range results {
		assert.Equal(t, "run-1", r.RunID)
		assert.Equal(t, domain.OutcomeSuccess, r.Outcome)
	}
	assert.Len(t, seen, 3)
}

func TestExecute_ConcurrencyIsBounded(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{delay: 20 * time.Millisecond}
	queries := make([]domain.SuiteQuery, 8)
	for i := range queries {
		queries[i] = domain.SuiteQuery{Name: string(rune('a' + i)), SQL: "SELECT 1"}
	}

	_, err := Execute(context.Background(), runner, testSuite(queries...), ExecuteOptions{Concurrency: 3})
	require.NoError(t, err)
	assert.LessOrEqual(t, runner.maxSeen.Load(), int64(3))
}

func TestExecute_FailedQueryDoesNotAbortOthers(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{fn: func(sql string) *domain.QueryJobResult {
		if sql == "bad" {
			return &domain.QueryJobResult{Outcome: domain.OutcomeFailed, ErrorMessage: "syntax error"}
		}
		return &domain.QueryJobResult{Outcome: domain.OutcomeSuccess}
	}}

	s := testSuite(
		domain.SuiteQuery{Name: "q01", SQL: "bad"},
		domain.SuiteQuery{Name: "q02", SQL: "SELECT 2"},
	)

	results, err := Execute(context.Background(), runner, s, ExecuteOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, domain.OutcomeFailed, results[0].Outcome)
	require.NotNil(t, results[0].ErrorMessage)
	assert.Equal(t, "syntax error", *results[0].ErrorMessage)
	assert.Equal(t, domain.OutcomeSuccess, results[1].Outcome)
}

func TestExecute_ContextCancellationReturnsPartial(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{delay: 50 * time.Millisecond}
	s := testSuite(
		domain.SuiteQuery{Name: "q01", SQL: "SELECT 1"},
		domain.SuiteQuery{Name: "q02", SQL: "SELECT 2"},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := Execute(ctx, runner, s, ExecuteOptions{Concurrency: 1})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBuildReport_Aggregation(t *testing.T) {
	t.Parallel()

	msg := "boom"
	run := &domain.BenchmarkRun{ID: "r1", SuiteName: "smoke", Status: domain.RunStatusFailed}
	results := []domain.QueryResult{
		{QueryName: "q01", Outcome: domain.OutcomeSuccess, ElapsedMS: 100,
			Metrics: domain.QueryMetrics{ProcessedRows: 10, ProcessedBytes: 1000, CPUTimeMillis: 40, WallTimeMillis: 90, ElapsedMillis: 95}},
		{QueryName: "q02", Outcome: domain.OutcomeSuccess, ElapsedMS: 300,
			Metrics: domain.QueryMetrics{ProcessedRows: 30, ProcessedBytes: 3000, CPUTimeMillis: 120, WallTimeMillis: 280, ElapsedMillis: 290}},
		{QueryName: "q03", Outcome: domain.OutcomeFailed, ElapsedMS: 50, ErrorMessage: &msg},
		{QueryName: "q04", Outcome: domain.OutcomeTimeout, ElapsedMS: 2000},
	}

	report := BuildReport(run, results)

	assert.Equal(t, "r1", report.RunID)
	assert.Equal(t, 4, report.Queries)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.TimedOut)
	assert.Equal(t, 0, report.Errored)

	assert.Equal(t, int64(2450), report.TotalElapsedMS)
	assert.Equal(t, int64(50), report.MinElapsedMS)
	assert.Equal(t, int64(2000), report.MaxElapsedMS)
	assert.InDelta(t, 612.5, report.MeanElapsedMS, 0.001)

	assert.Equal(t, int64(40), report.TotalRows)
	assert.Equal(t, int64(4000), report.TotalBytes)
	assert.Equal(t, int64(160), report.TotalCPUMS)
}

func TestBuildReport_Empty(t *testing.T) {
	t.Parallel()

	run := &domain.BenchmarkRun{ID: "r1", SuiteName: "smoke", Status: domain.RunStatusSucceeded}
	report := BuildReport(run, nil)
	assert.Zero(t, report.Queries)
	assert.Zero(t, report.MeanElapsedMS)
}
