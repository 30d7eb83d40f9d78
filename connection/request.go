package connection

import (
	"context"

	mcpschema "github.com/viant/mcp-protocol/schema"
)

// ListTools lists server tools
func (m *Manager) ListTools(ctx context.Context, cursor *string, options ...RequestOption) (*mcpschema.ListToolsResult, error) {
	params := &mcpschema.ListToolsRequestParams{Cursor: cursor}
	return MakeRequest[mcpschema.ListToolsResult](ctx, m, &Request{Method: mcpschema.MethodToolsList, Params: params}, options...)
}

// CallTool calls a tool
func (m *Manager) CallTool(ctx context.Context, params *mcpschema.CallToolRequestParams, options ...RequestOption) (*mcpschema.CallToolResult, error) {
	return MakeRequest[mcpschema.CallToolResult](ctx, m, &Request{Method: mcpschema.MethodToolsCall, Params: params}, options...)
}

// ListPrompts lists prompts
func (m *Manager) ListPrompts(ctx context.Context, cursor *string, options ...RequestOption) (*mcpschema.ListPromptsResult, error) {
	params := &mcpschema.ListPromptsRequestParams{Cursor: cursor}
	return MakeRequest[mcpschema.ListPromptsResult](ctx, m, &Request{Method: mcpschema.MethodPromptsList, Params: params}, options...)
}

// GetPrompt gets a prompt
func (m *Manager) GetPrompt(ctx context.Context, params *mcpschema.GetPromptRequestParams, options ...RequestOption) (*mcpschema.GetPromptResult, error) {
	return MakeRequest[mcpschema.GetPromptResult](ctx, m, &Request{Method: mcpschema.MethodPromptsGet, Params: params}, options...)
}

// ListResources lists resources
func (m *Manager) ListResources(ctx context.Context, cursor *string, options ...RequestOption) (*mcpschema.ListResourcesResult, error) {
	params := &mcpschema.ListResourcesRequestParams{Cursor: cursor}
	return MakeRequest[mcpschema.ListResourcesResult](ctx, m, &Request{Method: mcpschema.MethodResourcesList, Params: params}, options...)
}

// ReadResource reads a resource
func (m *Manager) ReadResource(ctx context.Context, params *mcpschema.ReadResourceRequestParams, options ...RequestOption) (*mcpschema.ReadResourceResult, error) {
	return MakeRequest[mcpschema.ReadResourceResult](ctx, m, &Request{Method: mcpschema.MethodResourcesRead, Params: params}, options...)
}

// Ping pings the server
func (m *Manager) Ping(ctx context.Context, options ...RequestOption) (*mcpschema.PingResult, error) {
	return MakeRequest[mcpschema.PingResult](ctx, m, &Request{Method: mcpschema.MethodPing, Params: &mcpschema.PingRequestParams{}}, options...)
}

// SetLoggingLevel sets the server logging level
func (m *Manager) SetLoggingLevel(ctx context.Context, level mcpschema.LoggingLevel, options ...RequestOption) (*mcpschema.SetLevelResult, error) {
	params := &mcpschema.SetLevelRequestParams{Level: level}
	return MakeRequest[mcpschema.SetLevelResult](ctx, m, &Request{Method: mcpschema.MethodLoggingSetLevel, Params: params}, options...)
}
