// Package internal has configuration, logging and output helpers shared
// by the sferror commands.
package internal

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opsimtools/sferror/schema"
)

// Default values for configuration.
const (
	DefaultWorkers     = 4
	DefaultNside       = 64
	DefaultPrecision   = 4
	DefaultBins        = 10
	DefaultBinLo       = 1.0
	DefaultBinHi       = 3650.0
	DefaultMinExpTime  = 5.1
	DefaultResultLimit = 20
	MaxResultLimit     = 1000
)

// BundleSpec names one metric to evaluate: a source magnitude observed
// through one filter. The original pipeline builds one metric bundle
// per (band, magnitude) pair.
type BundleSpec struct {
	Band string
	Mag  float64
}

// MetricName renders the canonical metric name for this bundle.
func (b BundleSpec) MetricName() string {
	return fmt.Sprintf("SFError_%v_%s", b.Mag, b.Band)
}

// Config holds the validated runtime configuration. Simple fields come
// straight from flags; fields needing parsing (bundles, run lists) are
// populated by ProcessAndValidate from the raw input.
type Config struct {
	DBDir       string       // directory holding OpSim *.db files (positional arg)
	OutDir      string       // output directory for results dbs, data files, plots
	Runs        []string     // subset of runs to evaluate; empty means all
	Bundles     []BundleSpec // metrics to evaluate per run
	Nside       int          // HEALPix resolution for slicing
	Bins        int          // number of time-gap bins
	BinLo       float64      // smallest bin edge in days
	BinHi       float64      // largest bin edge in days
	AllGaps     bool         // all pairwise gaps vs consecutive only
	MinExpTime  float64      // exposure cutoff in seconds
	ExcludeDD   bool         // drop deep-drilling visits (note like "DD%")
	ProposalID  int          // restrict to one proposal; 0 means no constraint
	Workers     int          // worker goroutines per run
	ResultLimit int          // newest summary rows shown by the summary command
	Precision   int
	Output      schema.OutputFormat
	OutputFile  string
	Stat        string // summary statistic for plot/summary selection
	Backend     schema.DatabaseBackend
	ConnStr     string // results database connection string (non-sqlite backends)
	NoColor     bool
}

// Clone returns a deep copy so per-run tweaks cannot leak across
// goroutines.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Runs = append([]string(nil), c.Runs...)
	clone.Bundles = append([]BundleSpec(nil), c.Bundles...)
	return &clone
}

// ConfigRawInput holds the unvalidated values gathered by Viper from
// defaults, config file, environment and flags.
type ConfigRawInput struct {
	DBDirStr    string
	OutDir      string  `mapstructure:"out"`
	RunsStr     string  `mapstructure:"runs"`
	MagsStr     string  `mapstructure:"mags"`
	Nside       int     `mapstructure:"nside"`
	Bins        int     `mapstructure:"bins"`
	BinLo       float64 `mapstructure:"bin-lo"`
	BinHi       float64 `mapstructure:"bin-hi"`
	AllGaps     bool    `mapstructure:"all-gaps"`
	MinExpTime  float64 `mapstructure:"min-exptime"`
	ExcludeDD   bool    `mapstructure:"exclude-dd"`
	ProposalID  int     `mapstructure:"proposal"`
	Workers     int     `mapstructure:"workers"`
	ResultLimit int     `mapstructure:"limit"`
	Precision   int     `mapstructure:"precision"`
	Output      string  `mapstructure:"output"`
	OutputFile  string  `mapstructure:"output-file"`
	Stat        string  `mapstructure:"stat"`
	Backend     string  `mapstructure:"result-backend"`
	ConnStr     string  `mapstructure:"result-db-connect"`
	Color       string  `mapstructure:"color"`
}

// ProcessAndValidate performs all parsing and validation on the raw
// inputs and populates the final Config.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	// --- 1. Worker/limit/precision bounds ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.ResultLimit <= 0 || input.ResultLimit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.ResultLimit)
	}
	cfg.ResultLimit = input.ResultLimit

	if input.Precision < 1 || input.Precision > 8 {
		return fmt.Errorf("precision must be between 1 and 8 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	// --- 2. Output format ---
	cfg.Output = schema.OutputFormat(strings.ToLower(input.Output))
	switch cfg.Output {
	case schema.TextOut, schema.CSVOut, schema.JSONOut:
	default:
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}
	cfg.OutputFile = input.OutputFile

	// --- 3. Summary statistic ---
	cfg.Stat = normalizeStat(input.Stat)
	switch cfg.Stat {
	case schema.StatMedian, schema.StatMean, schema.StatRms:
	default:
		return fmt.Errorf("invalid statistic '%s'. must be median, mean, rms", input.Stat)
	}

	// --- 4. Sky and bin grids ---
	if input.Nside <= 0 || input.Nside&(input.Nside-1) != 0 {
		return fmt.Errorf("nside must be a positive power of two (received %d)", input.Nside)
	}
	cfg.Nside = input.Nside

	if input.Bins < 1 {
		return fmt.Errorf("bins must be at least 1 (received %d)", input.Bins)
	}
	if input.BinLo <= 0 || math.IsNaN(input.BinLo) {
		return fmt.Errorf("bin-lo must be positive for a log-spaced grid (received %v)", input.BinLo)
	}
	if input.BinHi <= input.BinLo {
		return fmt.Errorf("bin-hi (%v) must be greater than bin-lo (%v)", input.BinHi, input.BinLo)
	}
	cfg.Bins = input.Bins
	cfg.BinLo = input.BinLo
	cfg.BinHi = input.BinHi

	cfg.AllGaps = input.AllGaps
	if input.MinExpTime < 0 {
		return fmt.Errorf("min-exptime cannot be negative (received %v)", input.MinExpTime)
	}
	cfg.MinExpTime = input.MinExpTime

	// --- 5. SQL constraint knobs ---
	cfg.ExcludeDD = input.ExcludeDD
	if input.ProposalID < 0 {
		return fmt.Errorf("proposal cannot be negative (received %d)", input.ProposalID)
	}
	cfg.ProposalID = input.ProposalID

	// --- 6. Metric bundles ---
	bundles, err := ParseMags(input.MagsStr)
	if err != nil {
		return err
	}
	cfg.Bundles = bundles

	// --- 7. Run subset ---
	cfg.Runs = splitCSV(input.RunsStr)

	// --- 8. Results backend ---
	cfg.Backend = schema.DatabaseBackend(strings.ToLower(input.Backend))
	switch cfg.Backend {
	case schema.SQLiteBackend:
	case schema.PostgreSQLBackend, schema.MySQLBackend:
		if strings.TrimSpace(input.ConnStr) == "" {
			return fmt.Errorf("%s backend requires --result-db-connect", cfg.Backend)
		}
	default:
		return fmt.Errorf("unsupported result backend: %s. Must be sqlite, postgresql, or mysql", input.Backend)
	}
	cfg.ConnStr = input.ConnStr

	// --- 9. Color toggle ---
	noColor, err := parseColorString(input.Color)
	if err != nil {
		return err
	}
	cfg.NoColor = noColor

	// --- 10. Paths ---
	dbDir, err := filepath.Abs(input.DBDirStr)
	if err != nil {
		return fmt.Errorf("cannot resolve database directory '%s': %w", input.DBDirStr, err)
	}
	cfg.DBDir = dbDir

	if input.OutDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	outDir, err := filepath.Abs(input.OutDir)
	if err != nil {
		return fmt.Errorf("cannot resolve output directory '%s': %w", input.OutDir, err)
	}
	cfg.OutDir = outDir

	return nil
}

// ParseMags parses the bundle specification string, a comma-separated
// list of band=magnitude pairs, e.g. "u=24.15,r=23.85". A band may
// repeat to evaluate several magnitudes.
func ParseMags(s string) ([]BundleSpec, error) {
	parts := splitCSV(s)
	if len(parts) == 0 {
		return nil, fmt.Errorf("at least one band=magnitude pair is required (e.g. --mags u=24.15,r=23.85)")
	}
	bundles := make([]BundleSpec, 0, len(parts))
	for _, part := range parts {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid mags entry '%s': expected band=magnitude", part)
		}
		band := strings.TrimSpace(kv[0])
		if !schema.IsValidBand(band) {
			return nil, fmt.Errorf("invalid band '%s': must be one of %s", band, strings.Join(schema.Bands, " "))
		}
		mag, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid magnitude in '%s': %w", part, err)
		}
		bundles = append(bundles, BundleSpec{Band: band, Mag: mag})
	}
	return bundles, nil
}

// normalizeStat maps user input to the canonical statistic names.
func normalizeStat(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "median":
		return schema.StatMedian
	case "mean":
		return schema.StatMean
	case "rms":
		return schema.StatRms
	default:
		return s
	}
}

// parseColorString interprets the color flag; returns true to disable.
func parseColorString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yes", "on", "true", "1":
		return false, nil
	case "no", "off", "false", "0":
		return true, nil
	default:
		return false, fmt.Errorf("invalid color setting '%s'. must be yes or no", s)
	}
}

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
