package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/strategis-io/arbiter/internal/domain/decision"
	"github.com/strategis-io/arbiter/internal/domain/plan"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.makeDecisionTool(),
		s.decidePlanTool(),
		s.updateOutcomeTool(),
		s.getStatsTool(),
	)
}

func (s *Server) makeDecisionTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("make_decision",
		mcplib.WithDescription("Score the given options against weighted criteria and select the best one"),
		mcplib.WithString("context",
			mcplib.Required(),
			mcplib.Description("Decision context as JSON: available options, optional constraints and historical outcomes"),
		),
		mcplib.WithString("criteria",
			mcplib.Description("Optional criteria weights as JSON; defaults are used when omitted"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleMakeDecision,
	}
}

func (s *Server) decidePlanTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("decide_plan_execution",
		mcplib.WithDescription("Decide whether to execute a plan or take no action, based on the plan's assessed risk and feasibility"),
		mcplib.WithString("plan",
			mcplib.Required(),
			mcplib.Description("The plan as JSON: id, goal, steps with statuses, estimated total duration"),
		),
		mcplib.WithString("context",
			mcplib.Description("Optional decision context as JSON (constraints, historical outcomes)"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleDecidePlan,
	}
}

func (s *Server) updateOutcomeTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("update_outcome",
		mcplib.WithDescription("Report the actual outcome of a previously made decision so future decisions can learn from it"),
		mcplib.WithString("decision_id",
			mcplib.Required(),
			mcplib.Description("The decision ID the outcome belongs to"),
		),
		mcplib.WithNumber("actual_benefit",
			mcplib.Required(),
			mcplib.Description("The realized benefit, 0 to 1"),
		),
		mcplib.WithNumber("actual_duration_ms",
			mcplib.Description("How long execution actually took, in milliseconds"),
		),
		mcplib.WithBoolean("success",
			mcplib.Required(),
			mcplib.Description("Whether the selected option succeeded"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleUpdateOutcome,
	}
}

func (s *Server) getStatsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_stats",
		mcplib.WithDescription("Get aggregate decision statistics: totals, success rate, average confidence, risk accuracy"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetStats,
	}
}

func (s *Server) handleMakeDecision(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Engine == nil {
		return mcplib.NewToolResultError("decision engine not configured"), nil
	}
	args := req.GetArguments()
	rawCtx, ok := args["context"].(string)
	if !ok || rawCtx == "" {
		return mcplib.NewToolResultError("context is required"), nil
	}
	var dctx decision.Context
	if err := json.Unmarshal([]byte(rawCtx), &dctx); err != nil {
		return mcplib.NewToolResultErrorFromErr("invalid context JSON", err), nil
	}

	var criteria *decision.Criteria
	if rawCrit, ok := args["criteria"].(string); ok && rawCrit != "" {
		criteria = &decision.Criteria{}
		if err := json.Unmarshal([]byte(rawCrit), criteria); err != nil {
			return mcplib.NewToolResultErrorFromErr("invalid criteria JSON", err), nil
		}
	}

	result, err := s.deps.Engine.Decide(ctx, dctx, criteria)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("decision failed", err), nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleDecidePlan(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Engine == nil {
		return mcplib.NewToolResultError("decision engine not configured"), nil
	}
	args := req.GetArguments()
	rawPlan, ok := args["plan"].(string)
	if !ok || rawPlan == "" {
		return mcplib.NewToolResultError("plan is required"), nil
	}
	var p plan.Plan
	if err := json.Unmarshal([]byte(rawPlan), &p); err != nil {
		return mcplib.NewToolResultErrorFromErr("invalid plan JSON", err), nil
	}
	if p.ID == "" {
		return mcplib.NewToolResultError("plan.id is required"), nil
	}

	var dctx decision.Context
	if rawCtx, ok := args["context"].(string); ok && rawCtx != "" {
		if err := json.Unmarshal([]byte(rawCtx), &dctx); err != nil {
			return mcplib.NewToolResultErrorFromErr("invalid context JSON", err), nil
		}
	}

	result, err := s.deps.Engine.DecidePlanExecution(ctx, &p, dctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("plan decision failed for %s", p.ID), err,
		), nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleUpdateOutcome(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Engine == nil {
		return mcplib.NewToolResultError("decision engine not configured"), nil
	}
	args := req.GetArguments()
	decisionID, ok := args["decision_id"].(string)
	if !ok || decisionID == "" {
		return mcplib.NewToolResultError("decision_id is required"), nil
	}
	benefit, ok := args["actual_benefit"].(float64)
	if !ok {
		return mcplib.NewToolResultError("actual_benefit is required"), nil
	}
	success, ok := args["success"].(bool)
	if !ok {
		return mcplib.NewToolResultError("success is required"), nil
	}
	var durationMS int64
	if d, ok := args["actual_duration_ms"].(float64); ok {
		durationMS = int64(d)
	}

	s.deps.Engine.UpdateOutcome(ctx, decisionID, decision.Outcome{
		DecisionID:       decisionID,
		ActualBenefit:    benefit,
		ActualDurationMS: durationMS,
		Success:          success,
	})
	return toolResultJSON(`{"status":"recorded"}`), nil
}

func (s *Server) handleGetStats(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Engine == nil {
		return mcplib.NewToolResultError("decision engine not configured"), nil
	}
	data, err := json.Marshal(s.deps.Engine.Stats())
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal stats", err), nil
	}
	return toolResultJSON(string(data)), nil
}
