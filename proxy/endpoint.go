package proxy

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/viant/mcpconsole/schema"
)

const (
	HealthPath     = "/mcp-proxy/server/health"
	StdioPath      = "/mcp-proxy/server/stdio"
	SSEPath        = "/mcp-proxy/server/sse"
	StreamablePath = "/mcp-proxy/server/mcp"
	// AggregatorPath is formatted with the aggregated endpoint id.
	AggregatorPath = "/mcp-proxy/metamcp/%v/sse"
)

// Endpoint is the proxy URL selected for a server descriptor.
type Endpoint struct {
	Kind schema.TransportKind
	URL  string
}

// Streamable returns true for streamable HTTP endpoints
func (e *Endpoint) Streamable() bool {
	return e.Kind == schema.TransportStreamable
}

// NewEndpoint selects the proxy endpoint and query parameters for descriptor.
func NewEndpoint(proxyAddress string, descriptor *schema.ServerDescriptor) (*Endpoint, error) {
	base := strings.TrimRight(proxyAddress, "/")
	query := url.Values{}
	var path string
	switch descriptor.Kind {
	case schema.TransportStdio:
		path = StdioPath
		query.Set("command", descriptor.Command)
		query.Set("args", descriptor.JoinedArgs())
		env := descriptor.Env
		if env == nil {
			env = map[string]string{}
		}
		data, err := json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("failed to encode env: %w", err)
		}
		query.Set("env", string(data))
	case schema.TransportSSE:
		path = SSEPath
		query.Set("url", descriptor.URL)
	case schema.TransportStreamable:
		path = StreamablePath
		query.Set("url", descriptor.URL)
	case schema.TransportAggregator:
		path = fmt.Sprintf(AggregatorPath, url.PathEscape(descriptor.ID))
		query.Set("includeInactiveServers", strconv.FormatBool(descriptor.IncludeInactiveServers))
		return &Endpoint{Kind: descriptor.Kind, URL: withQuery(base+path, query)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", schema.ErrUnsupportedTransport, descriptor.Kind)
	}
	query.Set("mcpServerName", descriptor.Name)
	query.Set("transportType", string(descriptor.Kind))
	return &Endpoint{Kind: descriptor.Kind, URL: withQuery(base+path, query)}, nil
}

func withQuery(URL string, query url.Values) string {
	if len(query) == 0 {
		return URL
	}
	return URL + "?" + query.Encode()
}
