package mcp

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/esg-assistant/internal/assistant"
	"github.com/ziadkadry99/esg-assistant/internal/risk"
)

// handleAsk runs the full question pipeline.
func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	ans, err := s.backend.Ask(ctx, question, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("question failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatAnswer(ans)), nil
}

// handleSearchDocuments performs semantic search over the document index.
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	results, err := s.backend.Search(ctx, query, request.GetBool("expand", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if limit := request.GetInt("limit", 0); limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No results found."), nil
	}

	sources := make([]assistant.Source, len(results))
	for i, r := range results {
		sources[i] = assistant.NewSource(r)
	}
	return mcp.NewToolResultText(formatSources(sources)), nil
}

// handleRiskTaxonomy returns the risk categories as an indented outline.
func (s *Server) handleRiskTaxonomy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := risk.Tree()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var buf bytes.Buffer
	if err := risk.RenderText(&buf, root); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// formatAnswer renders an answer and its sources for AI agent consumption.
func formatAnswer(ans *assistant.Answer) string {
	var sb strings.Builder
	sb.WriteString(ans.Text)
	sb.WriteString("\n")
	if len(ans.Sources) > 0 {
		sb.WriteString("\nSources:\n")
		sb.WriteString(formatSources(ans.Sources))
	}
	return sb.String()
}

func formatSources(sources []assistant.Source) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d passage(s):\n", len(sources))
	for i, src := range sources {
		fmt.Fprintf(&sb, "\n--- Passage %d ---\n", i+1)
		fmt.Fprintf(&sb, "Document: %s\n", src.Document)
		fmt.Fprintf(&sb, "Page: %d\n", src.Page)
		fmt.Fprintf(&sb, "Similarity: %.1f%%\n", src.Similarity*100)
		sb.WriteString("\n")
		sb.WriteString(src.Excerpt)
		sb.WriteString("\n")
	}
	return sb.String()
}
