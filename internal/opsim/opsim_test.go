package opsim

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestRun writes a minimal OpSim database with the given table
// name into dir and returns the run name.
func createTestRun(t *testing.T, dir, run, table string) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(dir, run+".db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec(`CREATE TABLE ` + table + ` (
		observationStartMJD REAL,
		visitExposureTime REAL,
		filter TEXT,
		fiveSigmaDepth REAL,
		fieldRA REAL,
		fieldDec REAL,
		note TEXT,
		proposalId INTEGER
	)`)
	require.NoError(t, err)

	visits := []struct {
		mjd  float64
		exp  float64
		band string
		note string
		prop int
	}{
		{59853.0, 30, "g", "", 1},
		{59854.1, 30, "g", "", 1},
		{59855.2, 30, "r", "", 1},
		{59856.3, 30, "g", "DD:COSMOS", 2},
		{59857.4, 5.0, "g", "", 1},
	}
	for _, v := range visits {
		_, err = db.Exec(`INSERT INTO `+table+` VALUES (?, ?, ?, 24.5, 150.1, 2.1, ?, ?)`,
			v.mjd, v.exp, v.band, v.note, v.prop)
		require.NoError(t, err)
	}
}

func TestDirSourceRuns(t *testing.T) {
	dir := t.TempDir()
	createTestRun(t, dir, "baseline_v1.5_10yrs", "observations")
	createTestRun(t, dir, "alt_dust_v1.5_10yrs", "observations")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	src := NewDirSource(dir)
	runs, err := src.Runs(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"alt_dust_v1.5_10yrs", "baseline_v1.5_10yrs"}, runs)
}

func TestDirSourceObservations(t *testing.T) {
	dir := t.TempDir()
	createTestRun(t, dir, "baseline", "observations")
	src := NewDirSource(dir)

	t.Run("band constraint", func(t *testing.T) {
		obs, err := src.Observations(t.Context(), "baseline", Query{Band: "g"})
		require.NoError(t, err)
		assert.Len(t, obs, 4)
		for _, o := range obs {
			assert.Equal(t, "g", o.Band)
		}
	})

	t.Run("exclude deep drilling", func(t *testing.T) {
		obs, err := src.Observations(t.Context(), "baseline", Query{Band: "g", ExcludeDD: true})
		require.NoError(t, err)
		assert.Len(t, obs, 3)
	})

	t.Run("proposal constraint", func(t *testing.T) {
		obs, err := src.Observations(t.Context(), "baseline", Query{Band: "g", ProposalID: 2})
		require.NoError(t, err)
		assert.Len(t, obs, 1)
	})

	t.Run("band required", func(t *testing.T) {
		_, err := src.Observations(t.Context(), "baseline", Query{})
		assert.Error(t, err)
	})

	t.Run("missing run", func(t *testing.T) {
		_, err := src.Observations(t.Context(), "nonexistent", Query{Band: "g"})
		assert.Error(t, err)
	})
}

// TestDirSourceLegacyTableName exercises the visit table probe against
// an older simulator schema.
func TestDirSourceLegacyTableName(t *testing.T) {
	dir := t.TempDir()
	createTestRun(t, dir, "legacy", "SummaryAllProps")
	src := NewDirSource(dir)

	obs, err := src.Observations(t.Context(), "legacy", Query{Band: "r"})
	require.NoError(t, err)
	assert.Len(t, obs, 1)
	assert.InDelta(t, 59855.2, obs[0].MJD, 1e-9)
	assert.InDelta(t, 24.5, obs[0].M5, 1e-9)
}

func TestBuildQuery(t *testing.T) {
	query, args := buildQuery("observations", Query{Band: "u", ExcludeDD: true, ProposalID: 1})
	assert.Contains(t, query, "filter = ?")
	assert.Contains(t, query, "note NOT LIKE 'DD%'")
	assert.Contains(t, query, "proposalId = ?")
	assert.Equal(t, []any{"u", 1}, args)

	query, args = buildQuery("observations", Query{Band: "z"})
	assert.NotContains(t, query, "note")
	assert.NotContains(t, query, "proposalId")
	assert.Equal(t, []any{"z"}, args)
}
