package internal

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Sky coverage label constants, keyed off the fraction of pixels that
// carry a valid metric value.
const (
	FullValue    = "Full"
	GoodValue    = "Good"
	PartialValue = "Partial"
	SparseValue  = "Sparse"
)

// Color variables for console output.
var (
	FullColor    = color.New(color.FgGreen)
	GoodColor    = color.New(color.FgCyan)
	PartialColor = color.New(color.FgYellow)
	SparseColor  = color.New(color.FgRed, color.Bold)
)

// GetPlainLabel returns a text label for the fraction of unmasked sky
// pixels. This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(goodFrac float64) string {
	switch {
	case goodFrac >= 0.95:
		return FullValue
	case goodFrac >= 0.75:
		return GoodValue
	case goodFrac >= 0.40:
		return PartialValue
	default:
		return SparseValue
	}
}

// GetColorLabel returns the coverage label colored for console output.
func GetColorLabel(goodFrac float64) string {
	text := GetPlainLabel(goodFrac)
	switch text {
	case FullValue:
		return FullColor.Sprint(text)
	case GoodValue:
		return GoodColor.Sprint(text)
	case PartialValue:
		return PartialColor.Sprint(text)
	default:
		return SparseColor.Sprint(text)
	}
}

// SelectOutputFile returns the file handle for output: stdout when no
// path is configured, otherwise a freshly created file.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}
