package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"querybench/internal/coordinator"
	"querybench/internal/domain"
	"querybench/internal/service/benchmark"
	"querybench/internal/suite"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "run <suite>",
		Short: "Run a benchmark suite against the coordinator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			suiteName := args[0]

			src, err := suite.Load(opts.SuiteDir, suite.LoadOptions{StripLimit: opts.StripLimit})
			if err != nil {
				return err
			}
			st, err := src.Suite(suiteName)
			if err != nil {
				return err
			}

			runner := newRunner(opts)
			fmt.Fprintf(os.Stderr, "Running suite %s (%d queries, concurrency %d) against %s\n",
				st.Name, len(st.Queries), concurrency, opts.Coordinator)

			runID := domain.NewID()
			results, err := benchmark.Execute(cmd.Context(), runner, st, benchmark.ExecuteOptions{
				RunID:       runID,
				Concurrency: concurrency,
				Logger:      slog.New(slog.DiscardHandler),
			})
			if err != nil {
				return err
			}

			run := &domain.BenchmarkRun{ID: runID, SuiteName: st.Name, Status: domain.RunStatusSucceeded}
			report := benchmark.BuildReport(run, results)

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]interface{}{
					"report":  report,
					"results": results,
				})
			}

			if err := printResultsTable(results); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "\n%d queries: %d succeeded, %d failed, %d timed out, %d submit errors (total %s)\n",
				report.Queries, report.Succeeded, report.Failed, report.TimedOut, report.Errored,
				(time.Duration(report.TotalElapsedMS) * time.Millisecond).String())

			if report.Failed > 0 || report.Errored > 0 {
				return fmt.Errorf("%d of %d queries did not succeed", report.Failed+report.Errored, report.Queries)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Number of in-flight queries")
	return cmd
}

// newRunner builds a coordinator client from the resolved root options.
func newRunner(opts *rootOptions) *coordinator.Client {
	headers := map[string]string{
		"X-Trino-User":   opts.User,
		"X-Trino-Source": "qbench",
	}
	if opts.Catalog != "" {
		headers["X-Trino-Catalog"] = opts.Catalog
	}
	if opts.Schema != "" {
		headers["X-Trino-Schema"] = opts.Schema
	}
	return coordinator.NewClient(opts.Coordinator, coordinator.Options{
		Headers:      headers,
		PollInterval: opts.Interval,
		Timeout:      opts.Timeout,
	})
}

func printResultsTable(results []domain.QueryResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		errMsg := ""
		if r.ErrorMessage != nil {
			errMsg = *r.ErrorMessage
		}
		rows = append(rows, []string{
			r.QueryName,
			string(r.Outcome),
			strconv.FormatInt(r.ElapsedMS, 10),
			strconv.FormatInt(r.Metrics.ProcessedRows, 10),
			strconv.FormatInt(r.Metrics.ProcessedBytes, 10),
			strconv.FormatInt(r.Metrics.CPUTimeMillis, 10),
			errMsg,
		})
	}
	return printTable(os.Stdout,
		[]string{"QUERY", "OUTCOME", "ELAPSED_MS", "ROWS", "BYTES", "CPU_MS", "ERROR"},
		rows)
}
