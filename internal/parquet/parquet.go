// Package parquet exports per-pixel metric values to Parquet files
// using github.com/parquet-go/parquet-go, one file per run and metric.
package parquet

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/opsimtools/sferror/schema"
	"github.com/parquet-go/parquet-go"
)

// PixelRecord is one HEALPix pixel value as stored on disk.
type PixelRecord struct {
	// Pixel is the RING-scheme pixel index
	Pixel int32 `parquet:"pixel,snappy"`

	// RA is the pixel center right ascension in degrees
	RA float64 `parquet:"ra,snappy"`

	// Dec is the pixel center declination in degrees
	Dec float64 `parquet:"dec,snappy"`

	// Value is the metric value, or the bad-value sentinel when masked
	Value float64 `parquet:"value,snappy"`

	// Count is the number of visits that fed the pixel
	Count int32 `parquet:"count,snappy"`
}

// FileName returns the Parquet file name for a run and metric pair,
// e.g. baseline_v3.4_10yrs_SFError_24.15_u.parquet.
func FileName(run, metric string) string {
	return fmt.Sprintf("%s_%s.parquet", run, metric)
}

// WritePixels writes the per-pixel values of one metric run to a
// Parquet file under dir and returns the file's base name.
func WritePixels(dir, run, metric string, pixels []schema.PixelValue) (string, error) {
	name := FileName(run, metric)
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	records := make([]PixelRecord, len(pixels))
	for i, p := range pixels {
		records[i] = PixelRecord{
			Pixel: int32(p.Pixel),
			RA:    p.RA,
			Dec:   p.Dec,
			Value: p.Value,
			Count: int32(p.Count),
		}
	}

	// The schema is derived from the PixelRecord struct tags
	writer := parquet.NewGenericWriter[PixelRecord](file)
	if _, err := writer.Write(records); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close parquet writer: %w", err)
	}

	return name, nil
}

// ReadPixels loads the per-pixel values back from a Parquet file.
func ReadPixels(path string) ([]schema.PixelValue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[PixelRecord](file)
	defer reader.Close()

	records := make([]PixelRecord, 0, reader.NumRows())
	buf := make([]PixelRecord, 1024)
	for {
		n, err := reader.Read(buf)
		records = append(records, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	pixels := make([]schema.PixelValue, len(records))
	for i, r := range records {
		pixels[i] = schema.PixelValue{
			Pixel: int(r.Pixel),
			RA:    r.RA,
			Dec:   r.Dec,
			Value: r.Value,
			Count: int(r.Count),
		}
	}
	return pixels, nil
}
