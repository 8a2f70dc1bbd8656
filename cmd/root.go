// Package cmd wires the sferror command-line interface.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/opsimtools/sferror/internal"
	"github.com/opsimtools/sferror/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &internal.Config{}

// input holds the raw, unvalidated configuration from all sources
// (file, env, flags). Viper will unmarshal into this struct.
var input = &internal.ConfigRawInput{}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "sferror",
	Short:              "Evaluate structure function error metrics on OpSim cadence simulations.",
	Long:               `sferror measures how well a survey cadence samples AGN variability: it bins the time gaps between visits and scores the photometric error against the gap coverage, per HEALPix sky pixel.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".sferror") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")     // Look in the current directory
		viper.AddConfigPath("$HOME") // Look in the home directory
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("SFERROR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Set defaults in Viper
	viper.SetDefault("out", "./sferror_out")
	viper.SetDefault("runs", "")
	viper.SetDefault("mags", "u=24.15,r=23.85")
	viper.SetDefault("nside", internal.DefaultNside)
	viper.SetDefault("bins", internal.DefaultBins)
	viper.SetDefault("bin-lo", internal.DefaultBinLo)
	viper.SetDefault("bin-hi", internal.DefaultBinHi)
	viper.SetDefault("all-gaps", true)
	viper.SetDefault("min-exptime", internal.DefaultMinExpTime)
	viper.SetDefault("exclude-dd", true)
	viper.SetDefault("proposal", 0)
	viper.SetDefault("workers", internal.DefaultWorkers)
	viper.SetDefault("limit", internal.DefaultResultLimit)
	viper.SetDefault("precision", internal.DefaultPrecision)
	viper.SetDefault("output", string(schema.TextOut))
	viper.SetDefault("output-file", "")
	viper.SetDefault("stat", "median")
	viper.SetDefault("result-backend", string(schema.SQLiteBackend))
	viper.SetDefault("result-db-connect", "")
	viper.SetDefault("color", "yes")
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	if len(args) == 1 {
		input.DBDirStr = args[0]
	} else {
		input.DBDirStr = "."
	}

	// 4. Run all validation and complex parsing.
	// This function populates the global 'cfg' from 'input'.
	return internal.ProcessAndValidate(cfg, input)
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
