// Package auth implements the client side of the MCP OAuth authorization flow.
//
// Provider is the per-server authorization store: it reads and writes client
// registration, tokens and the PKCE verifier across a transient (session) tier
// and a durable tier, preferring durable data whenever the server record
// exists. Authorize drives discovery, dynamic client registration, code
// exchange, refresh and the redirect to the authorization server. Callback is
// the HTTP handler mounted at the redirect URL; it completes the flow and
// migrates the session values into durable storage.
package auth
