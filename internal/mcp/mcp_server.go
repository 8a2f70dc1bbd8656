// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/opsimtools/sferror/internal"
	"github.com/opsimtools/sferror/schema"
)

// NewMCPServer initializes and configures the sferror MCP server
// without starting it. This is exposed for unit testing.
func NewMCPServer(baseCfg *internal.Config) *server.MCPServer {
	s := server.NewMCPServer(
		"Structure Function Error Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{baseCfg: baseCfg}

	// --- 1. Tool: list_runs ---
	s.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List the OpSim cadence simulation runs available for metric evaluation."),
		mcp.WithString("db_dir", mcp.Description("Directory holding OpSim *.db files (defaults to the configured directory).")),
	), h.handleListRuns)

	// --- 2. Tool: get_summary ---
	s.AddTool(mcp.NewTool("get_summary",
		mcp.WithDescription("Return the recorded summary statistics (Median, Mean, Rms) for past metric runs."),
		mcp.WithString("runs", mcp.Description("Comma-separated run names to filter by (defaults to all runs).")),
	), h.handleGetSummary)

	// --- 3. Tool: run_metric ---
	s.AddTool(mcp.NewTool("run_metric",
		mcp.WithDescription("Evaluate the structure function error metric for one run, band and source magnitude. Returns the summary statistics without persisting anything."),
		mcp.WithString("run", mcp.Description("OpSim run name."), mcp.Required()),
		mcp.WithString("band", mcp.Description("Survey filter."), mcp.Required(), mcp.Enum(schema.Bands...)),
		mcp.WithNumber("mag", mcp.Description("Source magnitude to evaluate at."), mcp.Required()),
		mcp.WithNumber("nside", mcp.Description("HEALPix resolution (power of two, defaults to the configured value).")),
	), h.handleRunMetric)

	return s
}

// StartMCPServer starts the sferror MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *internal.Config) error {
	s := NewMCPServer(baseCfg)
	return server.ServeStdio(s)
}

// splitRuns parses the comma-separated runs argument.
func splitRuns(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
