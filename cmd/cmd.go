package cmd

import (
	"github.com/opsimtools/sferror/internal"
	"github.com/opsimtools/sferror/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(versionCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("out", "o", "./sferror_out", "Output directory for results, data files and plots")
	rootCmd.PersistentFlags().String("runs", "", "Comma-separated subset of runs to evaluate (default: all)")
	rootCmd.PersistentFlags().String("mags", "u=24.15,r=23.85", "Comma-separated band=magnitude pairs to evaluate")
	rootCmd.PersistentFlags().Int("nside", internal.DefaultNside, "HEALPix resolution (power of two)")
	rootCmd.PersistentFlags().Int("bins", internal.DefaultBins, "Number of log-spaced time-gap bins")
	rootCmd.PersistentFlags().Float64("bin-lo", internal.DefaultBinLo, "Smallest time-gap bin edge in days")
	rootCmd.PersistentFlags().Float64("bin-hi", internal.DefaultBinHi, "Largest time-gap bin edge in days")
	rootCmd.PersistentFlags().Bool("all-gaps", true, "Use all pairwise time gaps instead of consecutive gaps only")
	rootCmd.PersistentFlags().Float64("min-exptime", internal.DefaultMinExpTime, "Drop visits with exposure time at or below this many seconds")
	rootCmd.PersistentFlags().Bool("exclude-dd", true, "Drop deep-drilling visits (note like 'DD%')")
	rootCmd.PersistentFlags().Int("proposal", 0, "Restrict visits to one proposal ID (0 = no constraint)")
	rootCmd.PersistentFlags().Int("workers", internal.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().IntP("limit", "l", internal.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().Int("precision", internal.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("stat", "median", "Summary statistic for summary/plot selection: median, mean, rms")
	rootCmd.PersistentFlags().String("result-backend", string(schema.SQLiteBackend), "Results backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("result-db-connect", "", "Database connection string for mysql/postgresql results backends")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		internal.LogFatal("Error binding root flags", err)
	}
}
