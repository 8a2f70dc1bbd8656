package cmd

import (
	"github.com/opsimtools/sferror/core"
	"github.com/opsimtools/sferror/internal"
	"github.com/spf13/cobra"
)

// summaryCmd prints the recorded summary statistics.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the summary statistics recorded by past metric runs.",
	Long: `Read the Median/Mean/Rms summary statistics from the results database
and print them, newest metric run first.

Examples:
  # All recorded summaries as a table
  sferror summary --out ./sferror_out

  # Restrict to one run, export as CSV
  sferror summary --runs baseline_v3.4_10yrs --output csv --output-file summary.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSummary(rootCtx, cfg); err != nil {
			internal.LogFatal("Cannot show summary", err)
		}
	},
}
