// Package console implements the mcp-console command.
//
// The command connects to one upstream MCP server through the proxy, runs a
// single action (list tools, call a tool, list prompts or resources, ping,
// complete a prompt argument) and prints the JSON result. When the upstream
// server requires OAuth the browser is opened and a local callback server
// receives the authorization code before the connection is retried.
//
//	mcp-console -x http://localhost:12009 -s <session token> -k sse -u https://host/sse -a tools
package console
