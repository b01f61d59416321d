// ABOUTME: MCP resource handlers for exposing people
// ABOUTME: Read-only JSON views of the address book under contactshq:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/contactshq/gateway"
)

const (
	ResourceScheme      = "contactshq://"
	PeopleResourceURI   = ResourceScheme + "people"
	PersonResourceURI   = ResourceScheme + "people/{id}"
	resourceMIMEType    = "application/json"
	resourceListMaximum = 1000
)

type ResourceHandlers struct {
	gw *gateway.Gateway
}

func NewResourceHandlers(gw *gateway.Gateway) *ResourceHandlers {
	return &ResourceHandlers{gw: gw}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, ResourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", ResourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, ResourceScheme), "/")
	if parts[0] != "people" {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if len(parts) == 1 || parts[1] == "" {
		return h.readAllPeople(ctx, uri)
	}
	return h.readPerson(ctx, uri, parts[1])
}

func (h *ResourceHandlers) readAllPeople(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	people := h.gw.Fetch(ctx, gateway.FetchOptions{Sort: gateway.SortGivenName})
	if len(people) > resourceListMaximum {
		people = people[:resourceListMaximum]
	}
	out := make([]PersonOutput, 0, len(people))
	for _, p := range people {
		out = append(out, personToOutput(p))
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readPerson(ctx context.Context, uri, idStr string) (*mcp.ReadResourceResult, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid person ID: %w", err)
	}
	p, err := h.gw.Get(ctx, id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return jsonResource(uri, personToOutput(p))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: resourceMIMEType,
			Text:     string(data),
		},
	}}, nil
}
