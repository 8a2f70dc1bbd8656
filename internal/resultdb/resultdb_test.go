package resultdb

import (
	"path/filepath"
	"testing"

	"github.com/opsimtools/sferror/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(schema.SQLiteBackend, "", t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_OpenDefaultsToOutDir(t *testing.T) {
	outDir := t.TempDir()
	store, err := Open(schema.SQLiteBackend, "", outDir)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.FileExists(t, filepath.Join(outDir, DefaultFileName))
}

func TestStore_OpenUnsupportedBackend(t *testing.T) {
	_, err := Open(schema.DatabaseBackend("oracle"), "", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backend")
}

func TestStore_RecordAndReadBack(t *testing.T) {
	store := openTestStore(t)

	id, err := store.BeginMetricRun("baseline_v3.4_10yrs", "SFError_24.15_u", "u", 24.15, 64,
		map[string]any{"nside": 64, "all_gaps": true})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	err = store.EndMetricRun(id, 4800, 120, "baseline_v3.4_10yrs_SFError_24.15_u.parquet")
	require.NoError(t, err)

	stats := schema.SummaryStats{Median: 0.042, Mean: 0.051, Rms: 0.013, Good: 4800, Bad: 120}
	err = store.RecordSummary(id, stats)
	require.NoError(t, err)

	rows, err := store.Summaries(nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byStat := make(map[string]schema.SummaryRow)
	for _, row := range rows {
		assert.Equal(t, "baseline_v3.4_10yrs", row.Run)
		assert.Equal(t, "SFError_24.15_u", row.Metric)
		assert.Equal(t, "u", row.Band)
		assert.InDelta(t, 24.15, row.Mag, 1e-12)
		byStat[row.Stat] = row
	}
	assert.InDelta(t, 0.042, byStat[schema.StatMedian].Value, 1e-12)
	assert.InDelta(t, 0.051, byStat[schema.StatMean].Value, 1e-12)
	assert.InDelta(t, 0.013, byStat[schema.StatRms].Value, 1e-12)
}

func TestStore_SummariesFilterByRun(t *testing.T) {
	store := openTestStore(t)

	for _, run := range []string{"baseline_v3.4_10yrs", "roman_v3.4_10yrs"} {
		id, err := store.BeginMetricRun(run, "SFError_24_r", "r", 24, 64, nil)
		require.NoError(t, err)
		require.NoError(t, store.RecordSummary(id, schema.SummaryStats{Median: 1, Mean: 1, Rms: 0}))
	}

	rows, err := store.Summaries([]string{"roman_v3.4_10yrs"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, "roman_v3.4_10yrs", row.Run)
	}

	rows, err = store.Summaries([]string{"no_such_run"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStore_RunNames(t *testing.T) {
	store := openTestStore(t)

	for _, run := range []string{"b_run", "a_run", "b_run"} {
		_, err := store.BeginMetricRun(run, "SFError_22_g", "g", 22, 16, nil)
		require.NoError(t, err)
	}

	names, err := store.RunNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"a_run", "b_run"}, names)
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	outDir := t.TempDir()
	dbPath := filepath.Join(outDir, DefaultFileName)

	first, err := Open(schema.SQLiteBackend, dbPath, outDir)
	require.NoError(t, err)

	id, err := first.BeginMetricRun("baseline", "SFError_24_i", "i", 24, 32, nil)
	require.NoError(t, err)
	require.NoError(t, first.RecordSummary(id, schema.SummaryStats{Median: 2}))
	require.NoError(t, first.Close())

	// Reopening runs the migrations again and must keep existing rows.
	second, err := Open(schema.SQLiteBackend, dbPath, outDir)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	rows, err := second.Summaries(nil)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestRebindPostgres(t *testing.T) {
	s := &Store{backend: schema.PostgreSQLBackend}
	got := s.rebind("INSERT INTO t (a, b) VALUES (?, ?)")
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", got)

	s = &Store{backend: schema.SQLiteBackend}
	got = s.rebind("SELECT * FROM t WHERE a = ?")
	assert.Equal(t, "SELECT * FROM t WHERE a = ?", got)
}
