// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph and dashboard tools for agents
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-graphviz"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/viz"
)

type VizHandlers struct {
	gw *gateway.Gateway
}

func NewVizHandlers(gw *gateway.Gateway) *VizHandlers {
	return &VizHandlers{gw: gw}
}

type GenerateGraphInput struct {
	PersonID string `json:"person_id,omitempty" jsonschema:"UUID of a person to center the graph on; omit for everyone"`
}

type GenerateGraphOutput struct {
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

type DashboardInput struct{}

type DashboardOutput struct {
	Text string `json:"text"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	var center *uuid.UUID
	if input.PersonID != "" {
		id, err := uuid.Parse(input.PersonID)
		if err != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("invalid person_id: %w", err)
		}
		if _, err := h.gw.Get(ctx, id); err != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("failed to load person: %w", err)
		}
		center = &id
	}

	model := viz.BuildGraph(h.gw.Fetch(ctx, gateway.FetchOptions{Sort: gateway.SortGivenName}), center)
	dot, err := viz.Render(ctx, model, graphviz.XDOT)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		DOTSource: string(dot),
		NodeCount: len(model.Nodes),
		EdgeCount: len(model.Edges),
	}, nil
}

func (h *VizHandlers) Dashboard(ctx context.Context, request *mcp.CallToolRequest, input DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	people := h.gw.Fetch(ctx, gateway.FetchOptions{})
	stats := viz.GenerateDashboardStats(people, time.Now())
	return nil, DashboardOutput{Text: viz.RenderDashboard(stats)}, nil
}
