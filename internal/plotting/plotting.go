// Package plotting renders metric results to image and HTML files.
// Static PNG output uses gonum/plot; the interactive sky map uses
// go-echarts.
package plotting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/opsimtools/sferror/core/sf"
	"github.com/opsimtools/sferror/schema"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// viridis is the color ramp used for the sky map visual scale.
var viridis = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// MetricHistogram writes a PNG histogram of the unmasked pixel values
// of one metric run and returns the file's base name.
func MetricHistogram(dir, run, metric string, pixels []schema.PixelValue, bins int) (string, error) {
	values := make(plotter.Values, 0, len(pixels))
	for _, px := range pixels {
		if px.Value == sf.BadValue {
			continue
		}
		values = append(values, px.Value)
	}
	if len(values) == 0 {
		return "", fmt.Errorf("no unmasked pixels to plot for %s %s", run, metric)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - %s", run, metric)
	p.X.Label.Text = "Structure function error"
	p.Y.Label.Text = "Pixels"

	hist, err := plotter.NewHist(values, bins)
	if err != nil {
		return "", fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(hist)

	name := fmt.Sprintf("%s_%s_hist.png", run, metric)
	if err := p.Save(8*vg.Inch, 6*vg.Inch, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("save histogram plot: %w", err)
	}
	return name, nil
}

// SummaryBars writes a PNG bar chart comparing one summary statistic
// across runs for a single metric and returns the file's base name.
// Rows for other statistics or metrics are ignored.
func SummaryBars(dir, metric, stat string, rows []schema.SummaryRow) (string, error) {
	var names []string
	var values plotter.Values
	for _, row := range rows {
		if row.Metric != metric || row.Stat != stat {
			continue
		}
		names = append(names, row.Run)
		values = append(values, row.Value)
	}
	if len(values) == 0 {
		return "", fmt.Errorf("no %s rows for metric %s", stat, metric)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - %s by run", metric, stat)
	p.Y.Label.Text = stat

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return "", fmt.Errorf("failed to build bar chart: %w", err)
	}
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = 0.5
	p.X.Tick.Label.YAlign = -0.5
	p.X.Tick.Label.XAlign = -0.8

	name := fmt.Sprintf("%s_%s_by_run.png", metric, stat)
	if err := p.Save(10*vg.Inch, 6*vg.Inch, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("save summary plot: %w", err)
	}
	return name, nil
}

// SkyMapHTML writes an interactive scatter plot of the pixel values in
// RA/Dec, colored by metric value, and returns the file's base name.
// Masked pixels are skipped so the visual scale covers real values.
func SkyMapHTML(dir, run, metric string, pixels []schema.PixelValue) (string, error) {
	data := make([]opts.ScatterData, 0, len(pixels))
	maxVal := 0.0
	for _, px := range pixels {
		if px.Value == sf.BadValue {
			continue
		}
		if px.Value > maxVal {
			maxVal = px.Value
		}
		data = append(data, opts.ScatterData{Value: []interface{}{px.RA, px.Dec, px.Value}})
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no unmasked pixels to plot for %s %s", run, metric)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s %s", run, metric),
			Width:     "1200px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    metric,
			Subtitle: fmt.Sprintf("run=%s pixels=%d", run, len(data)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: 360, Name: "RA (deg)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -90, Max: 90, Name: "Dec (deg)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxVal),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("pixels", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	name := fmt.Sprintf("%s_%s_sky.html", run, metric)
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create sky map file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := scatter.Render(f); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return name, nil
}
