// Package server runs the MCP server that exposes retrieval tools to assistants.
package server

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Name is the MCP implementation name reported to clients.
const Name = "ragpipe"

// Server wraps the MCP server and its logger.
type Server struct {
	mcp    *mcp.Server
	logger *slog.Logger
}

// New creates an MCP server with request logging installed.
func New(version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil)
	s.AddReceivingMiddleware(LoggingMiddleware(logger))
	return &Server{mcp: s, logger: logger}
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.RunTransport(ctx, &mcp.StdioTransport{})
}

// RunTransport serves over t.
func (s *Server) RunTransport(ctx context.Context, t mcp.Transport) error {
	s.logger.Info("starting MCP server", "name", Name)
	return s.mcp.Run(ctx, t)
}

// MCPServer returns the underlying server for tool registration.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}
