package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/esg-assistant/internal/assistant"
	"github.com/ziadkadry99/esg-assistant/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Backend answers and searches. *assistant.Service implements it.
type Backend interface {
	Ask(ctx context.Context, question string, onFragment func(string)) (*assistant.Answer, error)
	Search(ctx context.Context, question string, expand bool) ([]vectordb.Result, error)
}

// Server wraps an MCP server that exposes the document assistant as tools.
type Server struct {
	backend Backend
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server backed by b.
func NewServer(b Backend) *Server {
	s := &Server{backend: b}

	s.mcp = server.NewMCPServer(
		"esgassist",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askTool, s.handleAsk)
	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	s.mcp.AddTool(riskTaxonomyTool, s.handleRiskTaxonomy)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
