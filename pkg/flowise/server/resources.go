package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Resource URIs.
const (
	ResourceFlows        = "flowise://flows"
	ResourceFlowTemplate = "flowise://flow/{flow_id}"

	flowURIPrefix = "flowise://flow/"
	jsonMIME      = "application/json"
)

func flowsResource() mcp.Resource {
	return mcp.NewResource(ResourceFlows, "Flowise flows",
		mcp.WithResourceDescription("All chatflows and agentflows as a JSON list"),
		mcp.WithMIMEType(jsonMIME),
	)
}

func flowResourceTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(ResourceFlowTemplate, "Flowise flow",
		mcp.WithTemplateDescription("A single flow's configuration as JSON"),
		mcp.WithTemplateMIMEType(jsonMIME),
	)
}

func (s *Server) readFlows(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	flows, err := s.api.ListChatflowsRaw(ctx)
	return jsonContents(req.Params.URI, flows, err), nil
}

func (s *Server) readFlow(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	flowID := strings.TrimPrefix(uri, flowURIPrefix)
	if flowID == uri || flowID == "" {
		return nil, fmt.Errorf("resource %q: expected %s", uri, ResourceFlowTemplate)
	}
	flow, err := s.api.GetChatflowRaw(ctx, flowID)
	return jsonContents(uri, flow, err), nil
}

// jsonContents renders v, or err as {"error": "..."}.
func jsonContents(uri string, v any, err error) []mcp.ResourceContents {
	var text string
	if err == nil {
		text, err = toJSON(v)
	}
	if err != nil {
		b, _ := json.Marshal(map[string]string{"error": err.Error()})
		text = string(b)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: jsonMIME, Text: text},
	}
}
