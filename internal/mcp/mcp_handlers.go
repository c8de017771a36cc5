package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/conceptrace/core"
	"github.com/huangsam/conceptrace/core/algo"
	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
	cache   *core.StemCache
}

// projectConfig clones the base config with the requested project and limit.
func (h *toolHandler) projectConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	cfg.Project = strings.TrimSpace(request.GetString("project", ""))
	if cfg.Project == "" {
		return nil, fmt.Errorf("--project is required")
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = min(l, contract.MaxResultLimit)
	}
	return cfg, nil
}

func (h *toolHandler) handleTokenizeIdentifier(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	identifiers := contract.SplitList(request.GetString("identifiers", ""))
	if len(identifiers) == 0 {
		return mcp.NewToolResultError("at least one identifier is required"), nil
	}
	if err := contract.RevalidateMatching(cfg, "", request.GetString("stemmer", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid tokenize parameters: %v", err)), nil
	}

	return jsonResult(core.GetTokenResults(cfg, identifiers))
}

func (h *toolHandler) handleComputeMatches(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.projectConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := contract.RevalidateMatching(cfg, request.GetString("algorithm", ""), request.GetString("stemmer", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid matching parameters: %v", err)), nil
	}
	cfg.Exhaustive = request.GetBool("exhaustive", cfg.Exhaustive)

	results, err := core.ComputeMatches(core.WithSuppressHeader(ctx), cfg, h.mgr, h.cache)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("matching failed: %v", err)), nil
	}

	return jsonResult(schema.EnrichMatches(algo.RankMatches(results, cfg.ResultLimit)))
}

func (h *toolHandler) handleGetMatches(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.projectConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ranked, err := core.GetMatchResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load matches: %v", err)), nil
	}

	return jsonResult(schema.EnrichMatches(ranked))
}

func (h *toolHandler) handleGetTimeseries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.projectConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Re-validate the projection parameters the same way the CLI flags are
	err = contract.RevalidateTimeseries(cfg,
		request.GetString("scenario", ""),
		request.GetInt("segments", cfg.Segments),
		request.GetFloat("threshold", cfg.Threshold),
		request.GetString("concepts", strings.Join(cfg.Concepts, ",")),
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid timeseries parameters: %v", err)), nil
	}

	series, err := core.GetTimeSeries(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("timeseries projection failed: %v", err)), nil
	}

	return jsonResult(series)
}

// jsonResult wraps data as an indented JSON text result.
func jsonResult(data any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
