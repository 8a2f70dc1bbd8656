// Package schema holds the shared data types passed between the metric
// core, the OpSim data source, the runner and the output layers.
package schema

// Observation is one telescope visit as read from an OpSim database.
// The metric core only consumes MJD, ExpTime and MagErr; the remaining
// fields drive slicing and the photometric error model.
type Observation struct {
	MJD     float64 // observation start, modified Julian date (days)
	ExpTime float64 // visit exposure time (seconds)
	Band    string  // filter, one of u g r i z y
	M5      float64 // five-sigma limiting depth (mag)
	RA      float64 // field right ascension (degrees)
	Dec     float64 // field declination (degrees)
	MagErr  float64 // photometric uncertainty at the source magnitude (mag)
}

// PixelValue is the metric output for one HEALPix sky pixel.
type PixelValue struct {
	Pixel int     // RING-scheme pixel index
	RA    float64 // pixel center right ascension (degrees)
	Dec   float64 // pixel center declination (degrees)
	Value float64 // metric value, or sf.BadValue when masked
	Count int     // number of visits that fed the pixel
}

// RunResult collects the per-pixel values and summary statistics of one
// metric evaluated on one OpSim run.
type RunResult struct {
	Run        string  // OpSim run name (database base name)
	Metric     string  // metric name, e.g. SFError_24.15_u
	Band       string  // filter the metric was constrained to
	Mag        float64 // source magnitude the metric was evaluated at
	Nside      int     // HEALPix resolution used for slicing
	Pixels     []PixelValue
	Summary    SummaryStats
	DataFile   string // parquet file holding the per-pixel values
	DurationMs int64
}

// SummaryStats are the aggregate statistics over the unmasked pixel
// values of one run, mirroring the Median/Mean/Rms summary metrics the
// survey-simulation framework attaches to every bundle.
type SummaryStats struct {
	Median float64
	Mean   float64
	Rms    float64
	Good   int // pixels with a valid metric value
	Bad    int // pixels masked with the bad-value sentinel
}

// SummaryRow is one (run, metric, statistic) record as stored in and
// read back from a results database.
type SummaryRow struct {
	Run    string
	Metric string
	Band   string
	Mag    float64
	Stat   string
	Value  float64
}
