// Package schema defines the types shared by the connection manager packages:
// server descriptors, transport kinds, MCP method names and the error taxonomy.
//
// Errors are exposed as sentinels so callers can test them with errors.Is; the
// Is* helpers additionally recognise failures that only surface as message text
// coming back from the proxy.
package schema
