package cmd

import (
	"github.com/opsimtools/sferror/core"
	"github.com/opsimtools/sferror/internal"
	"github.com/spf13/cobra"
)

// plotCmd renders plots for recorded metric runs.
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render plots for the recorded metric runs.",
	Long: `Generate plots from the results database and the per-pixel data
files in the output directory:

- one bar chart per metric comparing runs on the selected statistic
- one value histogram per run and metric
- one interactive HTML sky map per run and metric

The paths of the generated files are printed to stdout.

Examples:
  sferror plot --out ./sferror_out
  sferror plot --runs baseline_v3.4_10yrs --stat rms`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePlot(rootCtx, cfg); err != nil {
			internal.LogFatal("Cannot render plots", err)
		}
	},
}
