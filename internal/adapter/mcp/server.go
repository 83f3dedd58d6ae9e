// Package mcp exposes the decision engine over the Model Context Protocol
// so AI agents can request decisions and report outcomes as tool calls.
package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/strategis-io/arbiter/internal/domain/decision"
	"github.com/strategis-io/arbiter/internal/domain/plan"
)

// Decider is the subset of the decision engine the MCP tools need.
type Decider interface {
	Decide(ctx context.Context, dctx decision.Context, criteria *decision.Criteria) (*decision.Result, error)
	DecidePlanExecution(ctx context.Context, p *plan.Plan, dctx decision.Context) (*decision.Result, error)
	UpdateOutcome(ctx context.Context, decisionID string, actual decision.Outcome)
	Stats() decision.Stats
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	APIKey  string
}

// ServerDeps holds the dependencies injected into tool handlers.
type ServerDeps struct {
	Engine Decider
}

// Server wraps an mcp-go server with the decision tools registered.
type Server struct {
	cfg        ServerConfig
	deps       ServerDeps
	mcpServer  *mcpserver.MCPServer
	httpServer *http.Server
}

// NewServer creates an MCP server with all tools and resources registered.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(
			cfg.Name,
			cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server, mainly for tests.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Start serves the MCP server over streamable HTTP on the configured
// address. It returns once the listener stops.
func (s *Server) Start() error {
	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer)

	mux := http.NewServeMux()
	mux.Handle("/mcp", AuthMiddleware(s.cfg.APIKey, streamable))

	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("mcp server listening", "addr", s.cfg.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the MCP server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// toolResultJSON wraps a JSON string in a text tool result.
func toolResultJSON(data string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(data)
}
