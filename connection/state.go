package connection

import (
	mcpschema "github.com/viant/mcp-protocol/schema"
)

// Status represents connection status
type Status string

const (
	StatusDisconnected           Status = "disconnected"
	StatusConnecting             Status = "connecting"
	StatusConnected              Status = "connected"
	StatusError                  Status = "error"
	StatusErrorConnectingToProxy Status = "error-connecting-to-proxy"
)

// State is a snapshot of the connection state.
type State struct {
	Status               Status                        `json:"status"`
	Capabilities         *mcpschema.ServerCapabilities `json:"capabilities,omitempty"`
	ServerInfo           *mcpschema.Implementation     `json:"serverInfo,omitempty"`
	ProtocolVersion      string                        `json:"protocolVersion,omitempty"`
	CompletionsSupported bool                          `json:"completionsSupported"`
	// Error holds the message of the failure that moved the connection to an error status.
	Error string `json:"error,omitempty"`
}

// Connected returns true when a session is live
func (s State) Connected() bool {
	return s.Status == StatusConnected
}

func initialState() State {
	return State{Status: StatusDisconnected, CompletionsSupported: true}
}
