package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"querybench/internal/suite"
)

func newSuitesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "suites",
		Short: "List available benchmark suites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := suite.Load(opts.SuiteDir, suite.LoadOptions{StripLimit: opts.StripLimit})
			if err != nil {
				return err
			}
			suites, err := src.List()
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				type suiteInfo struct {
					Name        string `json:"name"`
					Description string `json:"description,omitempty"`
					Queries     int    `json:"queries"`
				}
				out := make([]suiteInfo, len(suites))
				for i, s := range suites {
					out[i] = suiteInfo{Name: s.Name, Description: s.Description, Queries: len(s.Queries)}
				}
				return printJSON(os.Stdout, out)
			}

			rows := make([][]string, len(suites))
			for i, s := range suites {
				rows[i] = []string{s.Name, strconv.Itoa(len(s.Queries)), s.Description}
			}
			return printTable(os.Stdout, []string{"SUITE", "QUERIES", "DESCRIPTION"}, rows)
		},
	}
}
