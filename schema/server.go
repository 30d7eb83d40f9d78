package schema

import (
	"fmt"
	"strings"
)

// TransportKind identifies how the proxy reaches an upstream MCP server.
type TransportKind string

const (
	TransportStdio      TransportKind = "stdio"
	TransportSSE        TransportKind = "sse"
	TransportStreamable TransportKind = "streamable-http"
	// TransportAggregator connects to the proxy's own aggregated endpoint instead of a single upstream.
	TransportAggregator TransportKind = "aggregator"
)

// ServerDescriptor describes an upstream MCP server. It is treated as immutable for a connection attempt.
type ServerDescriptor struct {
	ID          string            `yaml:"id" json:"id"`
	Name        string            `yaml:"name,omitempty" json:"name,omitempty"`
	Kind        TransportKind     `yaml:"kind" json:"kind"`
	Command     string            `yaml:"command,omitempty" json:"command,omitempty"`
	Args        []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env         map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	URL         string            `yaml:"url,omitempty" json:"url,omitempty"`
	BearerToken string            `yaml:"bearerToken,omitempty" json:"bearerToken,omitempty"`
	// HeaderName overrides the header carrying BearerToken, Authorization by default.
	HeaderName             string `yaml:"headerName,omitempty" json:"headerName,omitempty"`
	IncludeInactiveServers bool   `yaml:"includeInactiveServers,omitempty" json:"includeInactiveServers,omitempty"`
}

// AuthHeaderName returns the header used to carry the bearer token.
func (d *ServerDescriptor) AuthHeaderName() string {
	if d.HeaderName != "" {
		return d.HeaderName
	}
	return "Authorization"
}

// JoinedArgs returns arguments in the space separated form the proxy expects.
func (d *ServerDescriptor) JoinedArgs() string {
	return strings.Join(d.Args, " ")
}

// Validate checks that parameters required by the transport kind are present.
func (d *ServerDescriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("server id was empty")
	}
	switch d.Kind {
	case TransportStdio:
		if d.Command == "" {
			return fmt.Errorf("server %v: command was empty", d.ID)
		}
	case TransportSSE, TransportStreamable:
		if d.URL == "" {
			return fmt.Errorf("server %v: url was empty", d.ID)
		}
	case TransportAggregator:
	default:
		return fmt.Errorf("server %v: %w: %q", d.ID, ErrUnsupportedTransport, d.Kind)
	}
	return nil
}
