package schema

// DatabaseBackend identifies which database engine a results store uses.
type DatabaseBackend string

// Supported results database backends.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	MySQLBackend      DatabaseBackend = "mysql"
)

// OutputFormat identifies how tabular results are rendered.
type OutputFormat string

// Supported output formats.
const (
	TextOut OutputFormat = "text"
	CSVOut  OutputFormat = "csv"
	JSONOut OutputFormat = "json"
)

// Summary statistic names stored in the results database.
const (
	StatMedian = "Median"
	StatMean   = "Mean"
	StatRms    = "Rms"
)

// Bands lists the survey filters in wavelength order.
var Bands = []string{"u", "g", "r", "i", "z", "y"}

// IsValidBand reports whether b names a survey filter.
func IsValidBand(b string) bool {
	for _, v := range Bands {
		if v == b {
			return true
		}
	}
	return false
}
