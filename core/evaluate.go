// Package core evaluates structure function error metrics over OpSim
// cadence simulations and feeds the results to the output layers.
package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opsimtools/sferror/core/healpix"
	"github.com/opsimtools/sferror/core/sf"
	"github.com/opsimtools/sferror/internal"
	"github.com/opsimtools/sferror/internal/opsim"
	"github.com/opsimtools/sferror/schema"
	"gonum.org/v1/gonum/stat"
)

// Recorder persists metric run records. *resultdb.Store implements it;
// a nil Recorder disables persistence.
type Recorder interface {
	BeginMetricRun(run, metric, band string, mag float64, nside int, params map[string]any) (int64, error)
	EndMetricRun(id int64, goodPixels, badPixels int, dataFile string) error
	RecordSummary(id int64, stats schema.SummaryStats) error
}

// Persister writes the per-pixel values of one metric run to disk and
// returns the data file's base name.
type Persister func(run, metric string, pixels []schema.PixelValue) (string, error)

// Evaluate runs every configured metric bundle on every requested run.
// Runs that fail are retried once before their error is reported; the
// remaining runs still produce results.
func Evaluate(ctx context.Context, cfg *internal.Config, source opsim.Source, store Recorder, persist Persister) ([]schema.RunResult, error) {
	runs := cfg.Runs
	if len(runs) == 0 {
		var err error
		runs, err = source.Runs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs found")
	}

	var results []schema.RunResult
	var failed []string
	for _, run := range runs {
		runResults, err := evaluateRun(ctx, cfg, source, store, persist, run)
		if err != nil {
			internal.LogWarn(fmt.Sprintf("Run %s failed, retrying once", run), err)
			runResults, err = evaluateRun(ctx, cfg, source, store, persist, run)
			if err != nil {
				internal.LogWarn(fmt.Sprintf("Run %s failed after retry", run), err)
				failed = append(failed, run)
				continue
			}
		}
		results = append(results, runResults...)
	}

	if len(results) == 0 && len(failed) > 0 {
		return nil, fmt.Errorf("all %d runs failed", len(failed))
	}
	return results, nil
}

// evaluateRun evaluates every bundle against one OpSim run.
func evaluateRun(ctx context.Context, cfg *internal.Config, source opsim.Source, store Recorder, persist Persister, run string) ([]schema.RunResult, error) {
	results := make([]schema.RunResult, 0, len(cfg.Bundles))
	for _, bundle := range cfg.Bundles {
		result, err := evaluateBundle(ctx, cfg, source, store, persist, run, bundle)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", bundle.MetricName(), err)
		}
		results = append(results, result)
	}
	return results, nil
}

// evaluateBundle evaluates one (band, magnitude) metric on one run:
// query the visits, attach photometric errors, slice the sky into
// HEALPix pixels and compute the metric per pixel in parallel.
func evaluateBundle(ctx context.Context, cfg *internal.Config, source opsim.Source, store Recorder, persist Persister, run string, bundle internal.BundleSpec) (schema.RunResult, error) {
	start := time.Now()
	metric := bundle.MetricName()

	obs, err := source.Observations(ctx, run, opsim.Query{
		Band:       bundle.Band,
		ExcludeDD:  cfg.ExcludeDD,
		ProposalID: cfg.ProposalID,
	})
	if err != nil {
		return schema.RunResult{}, err
	}

	// Photometric error at the source magnitude, per visit depth.
	for i := range obs {
		obs[i].MagErr = sf.MagErr(bundle.Mag, obs[i].M5, obs[i].Band)
	}

	params := sf.Params{
		BinEdges:   sf.LogSpacedEdges(cfg.Bins, cfg.BinLo, cfg.BinHi),
		BinWeights: uniformWeights(cfg.Bins),
		AllGaps:    cfg.AllGaps,
		MinExpTime: cfg.MinExpTime,
	}
	if err := params.Validate(); err != nil {
		return schema.RunResult{}, err
	}

	// Record creation waits until the inputs are in hand so a run that
	// fails to read its database leaves no record behind.
	var runID int64
	if store != nil {
		runID, err = store.BeginMetricRun(run, metric, bundle.Band, bundle.Mag, cfg.Nside, metricParams(cfg))
		if err != nil {
			internal.LogWarn("Metric run tracking initialization failed", err)
			runID = 0
		}
	}
	// abandon closes the record when a later stage fails, so failed
	// bundles never leave open rows in the results database.
	abandon := func(cause error) (schema.RunResult, error) {
		if store != nil && runID > 0 {
			if err := store.EndMetricRun(runID, 0, 0, ""); err != nil {
				internal.LogWarn(fmt.Sprintf("Failed to close metric run %s", metric), err)
			}
		}
		return schema.RunResult{}, cause
	}

	pixels, err := evaluatePixels(cfg, obs, params)
	if err != nil {
		return abandon(err)
	}

	result := schema.RunResult{
		Run:     run,
		Metric:  metric,
		Band:    bundle.Band,
		Mag:     bundle.Mag,
		Nside:   cfg.Nside,
		Pixels:  pixels,
		Summary: summarize(pixels),
	}

	if persist != nil {
		name, err := persist(run, metric, pixels)
		if err != nil {
			return abandon(err)
		}
		result.DataFile = name
	}
	result.DurationMs = time.Since(start).Milliseconds()

	if store != nil && runID > 0 {
		if err := store.EndMetricRun(runID, result.Summary.Good, result.Summary.Bad, result.DataFile); err != nil {
			internal.LogWarn(fmt.Sprintf("Failed to finalize metric run %s", metric), err)
		}
		if err := store.RecordSummary(runID, result.Summary); err != nil {
			internal.LogWarn(fmt.Sprintf("Failed to record summary for %s", metric), err)
		}
	}

	return result, nil
}

// evaluatePixels computes the metric for every pixel that received at
// least one visit, using a pool of cfg.Workers goroutines.
func evaluatePixels(cfg *internal.Config, obs []schema.Observation, params sf.Params) ([]schema.PixelValue, error) {
	byPixel := sliceByPixel(obs, cfg.Nside)

	pixCh := make(chan int, len(byPixel))
	resultCh := make(chan schema.PixelValue, len(byPixel))
	errCh := make(chan error, len(byPixel))
	var wg sync.WaitGroup

	for range cfg.Workers {
		wg.Go(func() {
			for pix := range pixCh {
				visits := byPixel[pix]
				value, err := sf.Compute(visits, params)
				if err != nil {
					errCh <- err
					continue
				}
				ra, dec := healpix.Pix2RaDec(cfg.Nside, pix)
				resultCh <- schema.PixelValue{
					Pixel: pix,
					RA:    ra,
					Dec:   dec,
					Value: value,
					Count: len(visits),
				}
			}
		})
	}

	for pix := range byPixel {
		pixCh <- pix
	}
	close(pixCh)

	wg.Wait()
	close(resultCh)
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}

	pixels := make([]schema.PixelValue, 0, len(byPixel))
	for pv := range resultCh {
		pixels = append(pixels, pv)
	}
	sort.Slice(pixels, func(i, j int) bool { return pixels[i].Pixel < pixels[j].Pixel })
	return pixels, nil
}

// sliceByPixel groups visits by the HEALPix pixel their field center
// falls in.
func sliceByPixel(obs []schema.Observation, nside int) map[int][]schema.Observation {
	byPixel := make(map[int][]schema.Observation)
	for _, o := range obs {
		pix := healpix.RaDec2Pix(nside, o.RA, o.Dec)
		byPixel[pix] = append(byPixel[pix], o)
	}
	return byPixel
}

// summarize aggregates the unmasked pixel values into the Median, Mean
// and Rms summary statistics.
func summarize(pixels []schema.PixelValue) schema.SummaryStats {
	var good []float64
	bad := 0
	for _, px := range pixels {
		if px.Value == sf.BadValue {
			bad++
			continue
		}
		good = append(good, px.Value)
	}

	stats := schema.SummaryStats{Good: len(good), Bad: bad}
	if len(good) == 0 {
		return stats
	}

	stats.Mean = stat.Mean(good, nil)
	// Population form, matching the survey framework's Rms summary.
	stats.Rms = stat.PopStdDev(good, nil)

	sort.Float64s(good)
	n := len(good)
	if n%2 == 1 {
		stats.Median = good[n/2]
	} else {
		stats.Median = (good[n/2-1] + good[n/2]) / 2
	}
	return stats
}

// uniformWeights returns n weights summing to 1.
func uniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}

// metricParams renders the configuration knobs stored alongside each
// metric run record.
func metricParams(cfg *internal.Config) map[string]any {
	return map[string]any{
		"nside":       cfg.Nside,
		"bins":        cfg.Bins,
		"bin_lo":      cfg.BinLo,
		"bin_hi":      cfg.BinHi,
		"all_gaps":    cfg.AllGaps,
		"min_exptime": cfg.MinExpTime,
		"exclude_dd":  cfg.ExcludeDD,
		"proposal":    cfg.ProposalID,
	}
}
