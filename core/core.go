package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opsimtools/sferror/internal"
	"github.com/opsimtools/sferror/internal/opsim"
	"github.com/opsimtools/sferror/internal/parquet"
	"github.com/opsimtools/sferror/internal/plotting"
	"github.com/opsimtools/sferror/internal/resultdb"
	"github.com/opsimtools/sferror/schema"
)

// ExecutorFunc defines the function signature for executing commands.
type ExecutorFunc func(ctx context.Context, cfg *internal.Config) error

// ExecuteRun evaluates the configured metric bundles on the OpSim runs
// under cfg.DBDir and prints the results to stdout. It serves as the
// main entry point for the 'run' command.
func ExecuteRun(ctx context.Context, cfg *internal.Config) error {
	start := time.Now()

	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	source := opsim.NewDirSource(cfg.DBDir)

	store, err := resultdb.Open(cfg.Backend, cfg.ConnStr, cfg.OutDir)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	persist := func(run, metric string, pixels []schema.PixelValue) (string, error) {
		return parquet.WritePixels(cfg.OutDir, run, metric, pixels)
	}

	runs := cfg.Runs
	if len(runs) == 0 {
		if runs, err = source.Runs(ctx); err != nil {
			return err
		}
		// Carry the resolved list into the evaluation so the header
		// and the runs actually evaluated cannot diverge.
		cfg = cfg.Clone()
		cfg.Runs = runs
	}
	internal.LogRunHeader(cfg, runs)

	results, err := Evaluate(ctx, cfg, source, store, persist)
	if err != nil {
		return err
	}

	duration := time.Since(start)
	return internal.WriteRunResults(results, cfg, duration)
}

// ExecuteRuns lists the OpSim runs available under cfg.DBDir.
func ExecuteRuns(ctx context.Context, cfg *internal.Config) error {
	source := opsim.NewDirSource(cfg.DBDir)
	runs, err := source.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("no OpSim databases found in %s", cfg.DBDir)
	}
	for _, run := range runs {
		fmt.Println(run)
	}
	return nil
}

// ExecuteSummary prints the summary statistics stored in the results
// database, optionally filtered to the configured run subset.
func ExecuteSummary(_ context.Context, cfg *internal.Config) error {
	store, err := resultdb.Open(cfg.Backend, cfg.ConnStr, cfg.OutDir)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rows, err := store.Summaries(cfg.Runs)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no summary statistics recorded yet; run 'sferror run' first")
	}
	// Rows come back newest first; the limit keeps the latest records.
	if len(rows) > cfg.ResultLimit {
		rows = rows[:cfg.ResultLimit]
	}
	return internal.WriteSummaryRows(rows, cfg)
}

// ExecutePlot renders plots for the recorded metric runs: a per-metric
// bar chart comparing runs on the configured statistic, and a value
// histogram plus an interactive sky map per run and metric. Data files
// that have gone missing are skipped with a warning.
func ExecutePlot(_ context.Context, cfg *internal.Config) error {
	store, err := resultdb.Open(cfg.Backend, cfg.ConnStr, cfg.OutDir)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rows, err := store.Summaries(cfg.Runs)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no summary statistics recorded yet; run 'sferror run' first")
	}

	metrics := make(map[string]bool)
	pairs := make(map[[2]string]bool)
	for _, row := range rows {
		metrics[row.Metric] = true
		pairs[[2]string{row.Run, row.Metric}] = true
	}

	plotted := 0
	for metric := range metrics {
		name, err := plotting.SummaryBars(cfg.OutDir, metric, cfg.Stat, rows)
		if err != nil {
			internal.LogWarn(fmt.Sprintf("Skipping summary plot for %s", metric), err)
			continue
		}
		fmt.Println(filepath.Join(cfg.OutDir, name))
		plotted++
	}

	for pair := range pairs {
		run, metric := pair[0], pair[1]
		path := filepath.Join(cfg.OutDir, parquet.FileName(run, metric))
		pixels, err := parquet.ReadPixels(path)
		if err != nil {
			internal.LogWarn(fmt.Sprintf("Skipping pixel plots for %s %s", run, metric), err)
			continue
		}

		if name, err := plotting.MetricHistogram(cfg.OutDir, run, metric, pixels, cfg.Bins); err != nil {
			internal.LogWarn(fmt.Sprintf("Skipping histogram for %s %s", run, metric), err)
		} else {
			fmt.Println(filepath.Join(cfg.OutDir, name))
			plotted++
		}

		if name, err := plotting.SkyMapHTML(cfg.OutDir, run, metric, pixels); err != nil {
			internal.LogWarn(fmt.Sprintf("Skipping sky map for %s %s", run, metric), err)
		} else {
			fmt.Println(filepath.Join(cfg.OutDir, name))
			plotted++
		}
	}

	if plotted == 0 {
		return fmt.Errorf("no plots could be generated")
	}
	return nil
}
