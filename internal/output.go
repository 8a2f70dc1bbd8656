package internal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/opsimtools/sferror/schema"
	"golang.org/x/term"
)

// createFormatters builds the float and int format helpers for the
// configured precision.
func createFormatters(precision int) (func(float64) string, string) {
	fmtFloat := func(v float64) string {
		return strconv.FormatFloat(v, 'g', precision, 64)
	}
	return fmtFloat, "%d"
}

// writeWithFile opens the configured output file (or stdout), runs the
// writer, and reports the destination when it was a real file.
func writeWithFile(filePath string, write func(io.Writer) error, label string) error {
	file, err := SelectOutputFile(filePath)
	if err != nil {
		return err
	}
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}
	if err := write(file); err != nil {
		return err
	}
	if file != os.Stdout {
		_, _ = fmt.Fprintf(os.Stderr, "%s to %s\n", label, filePath)
	}
	return nil
}

// LogRunHeader prints the evaluation header before a run command.
func LogRunHeader(cfg *Config, runs []string) {
	fmt.Printf("sferror: evaluating %d metric bundle(s) on %d run(s) from %s\n",
		len(cfg.Bundles), len(runs), cfg.DBDir)
	names := make([]string, len(cfg.Bundles))
	for i, b := range cfg.Bundles {
		names[i] = b.MetricName()
	}
	fmt.Printf("Metrics: %s | nside=%d workers=%d\n\n", strings.Join(names, " "), cfg.Nside, cfg.Workers)
}

// WriteRunResults outputs one row per (run, metric) with its summary
// statistics, dispatching on the configured output format.
func WriteRunResults(results []schema.RunResult, cfg *Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunJSON(w, results)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			csvWriter := csv.NewWriter(w)
			defer csvWriter.Flush()
			return writeRunCSV(csvWriter, results, fmtFloat, intFmt)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunTable(w, results, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
}

func writeRunTable(w io.Writer, results []schema.RunResult, cfg *Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Run", "Metric", "Median", "Mean", "Rms", "Pixels", "Bad", "Coverage"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})

	maxRunWidth := getMaxRunNameWidth(cfg)
	var data [][]string
	for _, r := range results {
		label := GetColorLabel(goodFraction(r.Summary))
		if cfg.NoColor {
			label = GetPlainLabel(goodFraction(r.Summary))
		}
		data = append(data, []string{
			truncateName(r.Run, maxRunWidth),
			r.Metric,
			fmtFloat(r.Summary.Median),
			fmtFloat(r.Summary.Mean),
			fmtFloat(r.Summary.Rms),
			fmt.Sprintf(intFmt, r.Summary.Good+r.Summary.Bad),
			fmt.Sprintf(intFmt, r.Summary.Bad),
			label,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Evaluated %d (run, metric) pairs in %v with %d workers. Result backend: %s\n",
		len(results), duration.Round(time.Millisecond), cfg.Workers, cfg.Backend)
	return err
}

func writeRunCSV(w *csv.Writer, results []schema.RunResult, fmtFloat func(float64) string, intFmt string) error {
	if err := w.Write([]string{"run", "metric", "band", "mag", "median", "mean", "rms", "pixels", "bad"}); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Run,
			r.Metric,
			r.Band,
			fmtFloat(r.Mag),
			fmtFloat(r.Summary.Median),
			fmtFloat(r.Summary.Mean),
			fmtFloat(r.Summary.Rms),
			fmt.Sprintf(intFmt, r.Summary.Good+r.Summary.Bad),
			fmt.Sprintf(intFmt, r.Summary.Bad),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeRunJSON(w io.Writer, results []schema.RunResult) error {
	type jsonRow struct {
		Run    string  `json:"run"`
		Metric string  `json:"metric"`
		Band   string  `json:"band"`
		Mag    float64 `json:"mag"`
		Median float64 `json:"median"`
		Mean   float64 `json:"mean"`
		Rms    float64 `json:"rms"`
		Pixels int     `json:"pixels"`
		Bad    int     `json:"bad"`
	}
	rows := make([]jsonRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, jsonRow{
			Run:    r.Run,
			Metric: r.Metric,
			Band:   r.Band,
			Mag:    r.Mag,
			Median: r.Summary.Median,
			Mean:   r.Summary.Mean,
			Rms:    r.Summary.Rms,
			Pixels: r.Summary.Good + r.Summary.Bad,
			Bad:    r.Summary.Bad,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteSummaryRows outputs summary statistics read back from results
// databases, one row per (run, metric, statistic).
func WriteSummaryRows(rows []schema.SummaryRow, cfg *Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			csvWriter := csv.NewWriter(w)
			defer csvWriter.Flush()
			if err := csvWriter.Write([]string{"run", "metric", "stat", "value"}); err != nil {
				return err
			}
			for _, r := range rows {
				if err := csvWriter.Write([]string{r.Run, r.Metric, r.Stat, fmtFloat(r.Value)}); err != nil {
					return err
				}
			}
			return nil
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Run", "Metric", "Stat", "Value"})
			table.Configure(func(tc *tablewriter.Config) {
				tc.Row.Alignment.Global = tw.AlignRight
			})
			maxRunWidth := getMaxRunNameWidth(cfg)
			var data [][]string
			for _, r := range rows {
				data = append(data, []string{
					truncateName(r.Run, maxRunWidth),
					r.Metric,
					r.Stat,
					fmtFloat(r.Value),
				})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
}

// goodFraction is the fraction of pixels carrying a valid value.
func goodFraction(s schema.SummaryStats) float64 {
	total := s.Good + s.Bad
	if total == 0 {
		return 0
	}
	return float64(s.Good) / float64(total)
}

// getMaxRunNameWidth sizes the run-name column from the terminal width,
// falling back to a conservative default for narrow terminals and CI.
func getMaxRunNameWidth(cfg *Config) int {
	termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || termWidth <= 0 {
		termWidth = 80
	}

	// reserve space for the fixed numeric columns with table formatting
	reserved := 60
	if cfg.Precision > 4 {
		reserved += (cfg.Precision - 4) * 4
	}

	width := termWidth - reserved
	if width < 16 {
		width = 16
	}
	if width > 48 {
		width = 48
	}
	return width
}

// truncateName shortens a run name from the left, keeping the suffix,
// which carries the version and variant of an OpSim run name.
func truncateName(name string, maxWidth int) string {
	if len(name) <= maxWidth {
		return name
	}
	if maxWidth <= 3 {
		return name[len(name)-maxWidth:]
	}
	return "..." + name[len(name)-maxWidth+3:]
}
