package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/opsimtools/sferror/core"
	"github.com/opsimtools/sferror/internal"
	"github.com/opsimtools/sferror/internal/opsim"
	"github.com/opsimtools/sferror/internal/resultdb"
	"github.com/opsimtools/sferror/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *internal.Config
}

func (h *toolHandler) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := request.GetString("db_dir", h.baseCfg.DBDir)

	source := opsim.NewDirSource(dir)
	runs, err := source.Runs(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no OpSim databases found in %s", dir)), nil
	}

	jsonData, _ := json.MarshalIndent(runs, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetSummary(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := resultdb.Open(h.baseCfg.Backend, h.baseCfg.ConnStr, h.baseCfg.OutDir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open results database: %v", err)), nil
	}
	defer func() { _ = store.Close() }()

	rows, err := store.Summaries(splitRuns(request.GetString("runs", "")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read summaries: %v", err)), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultError("no summary statistics recorded yet"), nil
	}

	jsonData, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// runMetricResult is the JSON payload returned by run_metric. Per-pixel
// values stay out of the response; only the aggregates travel.
type runMetricResult struct {
	Run        string              `json:"run"`
	Metric     string              `json:"metric"`
	Band       string              `json:"band"`
	Mag        float64             `json:"mag"`
	Nside      int                 `json:"nside"`
	Summary    schema.SummaryStats `json:"summary"`
	DurationMs int64               `json:"duration_ms"`
}

func (h *toolHandler) handleRunMetric(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	run := request.GetString("run", "")
	if run == "" {
		return mcp.NewToolResultError("run is required"), nil
	}
	band := request.GetString("band", "")
	if !schema.IsValidBand(band) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid band '%s'", band)), nil
	}
	mag, err := request.RequireFloat("mag")
	if err != nil {
		return mcp.NewToolResultError("mag is required"), nil
	}

	cfg := h.baseCfg.Clone()
	cfg.Runs = []string{run}
	cfg.Bundles = []internal.BundleSpec{{Band: band, Mag: mag}}
	if nside := request.GetInt("nside", 0); nside > 0 {
		if nside&(nside-1) != 0 {
			return mcp.NewToolResultError(fmt.Sprintf("nside must be a power of two (received %d)", nside)), nil
		}
		cfg.Nside = nside
	}

	source := opsim.NewDirSource(cfg.DBDir)
	results, err := core.Evaluate(ctx, cfg, source, nil, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("metric evaluation failed: %v", err)), nil
	}

	r := results[0]
	payload := runMetricResult{
		Run:        r.Run,
		Metric:     r.Metric,
		Band:       r.Band,
		Mag:        r.Mag,
		Nside:      r.Nside,
		Summary:    r.Summary,
		DurationMs: r.DurationMs,
	}
	jsonData, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
