package connection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/jsonrpc"
	mcpschema "github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcpconsole/proxy"
)

// session is a live, initialized link
type session struct {
	link   proxy.Link
	result *mcpschema.InitializeResult
}

// initialize performs the MCP handshake on link
func (m *Manager) initialize(ctx context.Context, link proxy.Link) (*session, error) {
	params := &mcpschema.InitializeRequestParams{
		Capabilities:    m.capabilities,
		ClientInfo:      m.info,
		ProtocolVersion: m.protocolVersion,
	}
	request, err := jsonrpc.NewRequest(mcpschema.MethodInitialize, params)
	if err != nil {
		return nil, jsonrpc.NewInvalidRequest(err.Error(), nil)
	}
	response, err := link.Send(ctx, request)
	if err != nil {
		return nil, err
	}
	if response.Error != nil {
		return nil, response.Error
	}
	result := &mcpschema.InitializeResult{}
	if err = json.Unmarshal(response.Result, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal InitializeResult: %w", err)
	}
	if err = link.Notify(ctx, &jsonrpc.Notification{Method: mcpschema.MethodNotificationInitialized}); err != nil {
		return nil, fmt.Errorf("failed to notify initialized: %w", err)
	}
	return &session{link: link, result: result}, nil
}

// close ends the server side session (streamable links only) and closes the link.
func (s *session) close(ctx context.Context) error {
	if err := s.link.TerminateSession(ctx); err != nil {
		_ = s.link.Close()
		return err
	}
	return s.link.Close()
}
