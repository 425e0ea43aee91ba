// Package cli implements the qbench command-line interface for running
// benchmark suites directly against a coordinator, without the API server.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, map[string]interface{}{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// rootOptions holds the resolved persistent flag values shared by subcommands.
type rootOptions struct {
	Coordinator string
	User        string
	Catalog     string
	Schema      string
	Interval    time.Duration
	Timeout     time.Duration
	Output      string
	SuiteDir    string
	StripLimit  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "qbench",
		Short:         "Query benchmark runner",
		Long:          "Run benchmark query suites against a Trino/Presto-style coordinator and report per-query outcomes and engine statistics.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Precedence: flag > env > default
			if !cmd.Flags().Changed("coordinator") {
				if v := os.Getenv("QBENCH_COORDINATOR"); v != "" {
					opts.Coordinator = v
				}
			}
			if !cmd.Flags().Changed("user") {
				if v := os.Getenv("QBENCH_USER"); v != "" {
					opts.User = v
				}
			}
			if !cmd.Flags().Changed("catalog") {
				if v := os.Getenv("QBENCH_CATALOG"); v != "" {
					opts.Catalog = v
				}
			}
			if !cmd.Flags().Changed("schema") {
				if v := os.Getenv("QBENCH_SCHEMA"); v != "" {
					opts.Schema = v
				}
			}
			if err := validateOutputFormat(opts.Output); err != nil {
				return err
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.Coordinator, "coordinator", "http://localhost:8080", "Coordinator base URL")
	pf.StringVar(&opts.User, "user", "qbench", "Value for the X-Trino-User header")
	pf.StringVar(&opts.Catalog, "catalog", "", "Value for the X-Trino-Catalog header")
	pf.StringVar(&opts.Schema, "schema", "", "Value for the X-Trino-Schema header")
	pf.DurationVar(&opts.Interval, "interval", time.Second, "Delay between status polls")
	pf.DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "Per-query wait budget")
	pf.StringVarP(&opts.Output, "output", "o", "table", "Output format (table, json)")
	pf.StringVar(&opts.SuiteDir, "suite-dir", "", "Directory of suite manifests merged over built-ins")
	pf.BoolVar(&opts.StripLimit, "strip-limit", false, "Strip trailing LIMIT clauses from suite queries")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newSQLCmd(opts))
	rootCmd.AddCommand(newSuitesCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCommandsCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
