// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/conceptrace/core"
	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the conceptrace MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Conceptrace Server",
		"1.0.0",
		server.WithLogging(),
	)

	// The stem cache lives as long as the server so repeated requests reuse trees
	cache, err := core.NewStemCache(baseCfg.CacheSize)
	if err != nil {
		contract.LogWarn("Stem cache disabled", err)
	}

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		cache:   cache,
	}

	// --- 1. Tool: tokenize_identifier ---
	s.AddTool(mcp.NewTool("tokenize_identifier",
		mcp.WithDescription("Split identifiers into camel-case tokens and normalized vocabulary terms."),
		mcp.WithString("identifiers", mcp.Description("Comma-separated identifiers, e.g. 'getAccountBalance, m_strOwnerName'."), mcp.Required()),
		mcp.WithString("stemmer", mcp.Description("Stemmer applied to terms. Defaults to the server setting."), mcp.Enum("none", "english")),
	), h.handleTokenizeIdentifier)

	// --- 2. Tool: compute_matches ---
	s.AddTool(mcp.NewTool("compute_matches",
		mcp.WithDescription("Recompute the method-to-concept matches of a stored project, persist them and return the top of the ranking."),
		mcp.WithString("project", mcp.Description("Project name as imported."), mcp.Required()),
		mcp.WithString("algorithm", mcp.Description("Similarity function. Defaults to 'cosine'."), mcp.Enum("cosine", "dice", "tfidf", "wtfidf", "levenshtein")),
		mcp.WithString("stemmer", mcp.Description("Stemmer applied to terms."), mcp.Enum("none", "english")),
		mcp.WithBoolean("exhaustive", mcp.Description("Keep every scored pair instead of the best concept per method.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleComputeMatches)

	// --- 3. Tool: get_matches ---
	s.AddTool(mcp.NewTool("get_matches",
		mcp.WithDescription("Return the persisted matches of a project, ranked by weight."),
		mcp.WithString("project", mcp.Description("Project name as imported."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleGetMatches)

	// --- 4. Tool: get_timeseries ---
	s.AddTool(mcp.NewTool("get_timeseries",
		mcp.WithDescription("Project a recorded execution scenario onto domain concepts, segment by segment."),
		mcp.WithString("project", mcp.Description("Project name as imported."), mcp.Required()),
		mcp.WithString("scenario", mcp.Description("Scenario name as imported with its traces."), mcp.Required()),
		mcp.WithNumber("segments", mcp.Description("Number of equal-width segments. Defaults to the server setting.")),
		mcp.WithNumber("threshold", mcp.Description("Minimum match weight for a method to count (0.0 to 1.0).")),
		mcp.WithString("concepts", mcp.Description("Comma-separated concept names fixing the columns.")),
	), h.handleGetTimeseries)

	return s
}

// StartMCPServer starts the conceptrace MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
