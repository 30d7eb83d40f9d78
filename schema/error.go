package schema

import (
	"errors"
	"strings"

	"github.com/viant/jsonrpc"
)

const (
	// MethodNotFound is the JSON-RPC code servers return for unsupported methods.
	MethodNotFound = -32601
	// RequestTimeout is the MCP code used for requests that ran out of time.
	RequestTimeout = -32001
)

// proxyAuthMessage is the phrase the proxy uses when its own session token is missing or invalid.
const proxyAuthMessage = "Authentication required. Use the session token"

var (
	ErrProxyUnreachable      = errors.New("proxy server is not reachable")
	ErrUnsupportedTransport  = errors.New("unsupported transport kind")
	ErrAuthorizationRequired = errors.New("authorization required: 401")
	ErrProxyAuthentication   = errors.New("proxy authentication failed")
	ErrNotConnected          = errors.New("mcp client not connected")
	ErrRequestTimeout        = errors.New("request timed out")
	ErrMaxTotalTimeout       = errors.New("maximum total timeout exceeded")
	ErrNoVerifier            = errors.New("no code verifier saved for session")
	ErrAuthorizationRedirect = errors.New("redirected for authorization")
	ErrConnectInProgress     = errors.New("connect already in progress")
	ErrConnectAborted        = errors.New("connect aborted by disconnect")
)

// IsUnauthorized reports whether err signals an HTTP 401 from the upstream server.
// Only errors wrapping ErrAuthorizationRequired qualify: messages carry server ids
// and proxy URLs, so their text says nothing reliable about the status code.
func IsUnauthorized(err error) bool {
	return err != nil && errors.Is(err, ErrAuthorizationRequired)
}

// IsProxyAuthError reports whether err was raised by the proxy rejecting its session token.
func IsProxyAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrProxyAuthentication) {
		return true
	}
	return strings.Contains(err.Error(), proxyAuthMessage)
}

// IsProxyAuthMessage reports whether a raw proxy response body carries the proxy session-token rejection.
func IsProxyAuthMessage(body string) bool {
	return strings.Contains(body, proxyAuthMessage)
}

// IsMethodNotFound reports whether err carries a JSON-RPC method-not-found error.
func IsMethodNotFound(err error) bool {
	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == MethodNotFound
	}
	return false
}
