package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"querybench/internal/domain"
)

func newSQLCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sql <statement>",
		Short: "Submit a single SQL statement and wait for its terminal state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := newRunner(opts)

			res, err := runner.SubmitAndWait(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, res)
			}

			fmt.Fprintf(os.Stdout, "outcome:   %s\n", res.Outcome)
			fmt.Fprintf(os.Stdout, "elapsed:   %s\n", res.Elapsed)
			if res.Outcome == domain.OutcomeSuccess {
				fmt.Fprintf(os.Stdout, "rows:      %d\n", res.Metrics.ProcessedRows)
				fmt.Fprintf(os.Stdout, "bytes:     %d\n", res.Metrics.ProcessedBytes)
				fmt.Fprintf(os.Stdout, "cpu_ms:    %d\n", res.Metrics.CPUTimeMillis)
				fmt.Fprintf(os.Stdout, "wall_ms:   %d\n", res.Metrics.WallTimeMillis)
				fmt.Fprintf(os.Stdout, "engine_ms: %d\n", res.Metrics.ElapsedMillis)
			}
			if res.ErrorMessage != "" {
				fmt.Fprintf(os.Stdout, "error:     %s\n", res.ErrorMessage)
			}

			if res.Outcome != domain.OutcomeSuccess {
				return fmt.Errorf("query ended %s", res.Outcome)
			}
			return nil
		},
	}
}
