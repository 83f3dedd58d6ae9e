package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"arbiter://stats",
			"Decision Statistics",
			mcplib.WithResourceDescription("Aggregate statistics over all decisions made by the engine"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleStatsResource,
	)
}

func (s *Server) handleStatsResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Engine == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"decision engine not configured"}`,
			},
		}, nil
	}
	data, err := json.Marshal(s.deps.Engine.Stats())
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
