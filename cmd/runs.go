package cmd

import (
	"github.com/opsimtools/sferror/core"
	"github.com/opsimtools/sferror/internal"
	"github.com/spf13/cobra"
)

// runsCmd lists the OpSim databases available for evaluation.
var runsCmd = &cobra.Command{
	Use:   "runs [db-dir]",
	Short: "List the OpSim runs found under db-dir.",
	Long: `Scan db-dir for OpSim databases (*.db) and print one run name per
line. Run names are the database file names without the extension and
are what --runs and the results database refer to.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRuns(rootCtx, cfg); err != nil {
			internal.LogFatal("Cannot list runs", err)
		}
	},
}
