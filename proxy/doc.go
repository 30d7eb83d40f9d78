// Package proxy builds MCP transports that reach upstream servers through the
// MCP proxy, and gates connection attempts on the proxy health endpoint.
//
// Every transport kind is tunnelled: stdio servers are spawned by the proxy
// and exposed over SSE, SSE and streamable HTTP servers are relayed, and the
// aggregator endpoint exposes the proxy's own merged server. Credentials are
// injected by a RoundTripper on every request and never appear in URLs.
package proxy
