// Package opsim reads visit tables from OpSim survey-simulation
// databases. Each simulated cadence run is one SQLite file; the run
// name is the file base name, and the visits live in a single summary
// table whose name varies between simulator versions.
package opsim

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opsimtools/sferror/schema"
	_ "modernc.org/sqlite" // SQLite driver
)

// summaryTables lists the visit table names used by the simulator
// across versions, probed in order.
var summaryTables = []string{"observations", "SummaryAllProps", "summary"}

// Query constrains which visits are read for one metric evaluation,
// mirroring the SQL constraints the original run scripts assemble.
type Query struct {
	Band       string // filter constraint, required
	ExcludeDD  bool   // drop deep-drilling visits (note LIKE 'DD%')
	ProposalID int    // restrict to a proposal; 0 means no constraint
}

// Source produces observation tables per run. Implementations must be
// safe for concurrent use; the runner queries several runs at once.
type Source interface {
	// Runs lists the available cadence run names.
	Runs(ctx context.Context) ([]string, error)

	// Observations reads all visits of one run matching the query.
	Observations(ctx context.Context, run string, q Query) ([]schema.Observation, error)
}

// DirSource reads OpSim databases from a directory of *.db files.
type DirSource struct {
	dir string
}

var _ Source = (*DirSource)(nil) // Compile-time check

// NewDirSource returns a source over the given database directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Runs lists run names, sorted, from the *.db files in the directory.
func (s *DirSource) Runs(_ context.Context) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan database directory %s: %w", s.dir, err)
	}
	runs := make([]string, 0, len(paths))
	for _, p := range paths {
		base := filepath.Base(p)
		runs = append(runs, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	sort.Strings(runs)
	return runs, nil
}

// Observations opens the run's database, locates its visit table, and
// reads every visit matching the query.
func (s *DirSource) Observations(ctx context.Context, run string, q Query) ([]schema.Observation, error) {
	if q.Band == "" {
		return nil, fmt.Errorf("query requires a band constraint")
	}

	dbPath := filepath.Join(s.dir, run+".db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open OpSim database %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	table, err := findSummaryTable(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", run, err)
	}

	query, args := buildQuery(table, q)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("run %s: visit query failed: %w", run, err)
	}
	defer func() { _ = rows.Close() }()

	var obs []schema.Observation
	for rows.Next() {
		var o schema.Observation
		if err := rows.Scan(&o.MJD, &o.ExpTime, &o.Band, &o.M5, &o.RA, &o.Dec); err != nil {
			return nil, fmt.Errorf("run %s: visit scan failed: %w", run, err)
		}
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run %s: visit iteration failed: %w", run, err)
	}
	return obs, nil
}

// findSummaryTable probes the known visit table names.
func findSummaryTable(ctx context.Context, db *sql.DB) (string, error) {
	for _, name := range summaryTables {
		var found string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&found)
		if err == nil {
			return found, nil
		}
		if err != sql.ErrNoRows {
			return "", fmt.Errorf("failed to probe for visit table: %w", err)
		}
	}
	return "", fmt.Errorf("no visit table found (tried %s)", strings.Join(summaryTables, ", "))
}

// buildQuery renders the visit SELECT with the standard constraints:
//
//	filter = "g" and note not like "DD%" and proposalId = 1
func buildQuery(table string, q Query) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT observationStartMJD, visitExposureTime, filter, fiveSigmaDepth, fieldRA, fieldDec FROM ")
	sb.WriteString(table)
	sb.WriteString(" WHERE filter = ?")
	args := []any{q.Band}

	if q.ExcludeDD {
		sb.WriteString(" AND note NOT LIKE 'DD%'")
	}
	if q.ProposalID > 0 {
		sb.WriteString(" AND proposalId = ?")
		args = append(args, q.ProposalID)
	}
	return sb.String(), args
}
