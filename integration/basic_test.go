//go:build basic

package integration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSferrorSQLiteEndToEnd exercises the full CLI flow with the
// default SQLite results backend.
func TestSferrorSQLiteEndToEnd(t *testing.T) {
	dbDir := t.TempDir()
	outDir := t.TempDir()
	writeOpSimFixture(t, dbDir, "baseline_v3.4_10yrs")

	// List the available runs
	require.NoError(t, runSferrorCommand(t, "runs", dbDir))

	// Evaluate the default metric bundles
	require.NoError(t, runSferrorCommand(t, "run", dbDir, "--out", outDir, "--nside", "8"))

	// Per-pixel data files and results database exist
	assert.FileExists(t, filepath.Join(outDir, "baseline_v3.4_10yrs_SFError_24.15_u.parquet"))
	assert.FileExists(t, filepath.Join(outDir, "baseline_v3.4_10yrs_SFError_23.85_r.parquet"))
	assert.FileExists(t, filepath.Join(outDir, "sferror_results.db"))

	// Read back the recorded summaries
	require.NoError(t, runSferrorCommand(t, "summary", "--out", outDir))

	// Render plots from the recorded data
	require.NoError(t, runSferrorCommand(t, "plot", "--out", outDir))
}
