package schema

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/jsonrpc"
)

func TestIsUnauthorized(t *testing.T) {
	var testCases = []struct {
		description string
		err         error
		expect      bool
	}{
		{description: "nil", err: nil},
		{description: "wrapped sentinel", err: fmt.Errorf("%w: failed to connect to srv-1: HTTP 401", ErrAuthorizationRequired), expect: true},
		{description: "joined sentinel", err: errors.Join(ErrAuthorizationRequired, errors.New("invalid_token")), expect: true},
		{description: "server id containing 401", err: errors.New("failed to connect to 7f3a4019-0000: invalid status code: 502")},
		{description: "proxy port containing 401", err: errors.New("dial tcp 127.0.0.1:40123: connection refused")},
		{description: "unauthorized text only", err: errors.New("Unauthorized tool name")},
		{description: "rpc error", err: jsonrpc.NewInternalError("401", nil)},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, IsUnauthorized(testCase.err), testCase.description)
	}
}

func TestIsProxyAuthError(t *testing.T) {
	assert.True(t, IsProxyAuthError(fmt.Errorf("%w: boom", ErrProxyAuthentication)))
	assert.True(t, IsProxyAuthError(errors.New("HTTP 401: Authentication required. Use the session token shown in the console")))
	assert.False(t, IsProxyAuthError(errors.New("HTTP 401: invalid_token")))
	assert.False(t, IsProxyAuthError(nil))
}

func TestIsMethodNotFound(t *testing.T) {
	assert.True(t, IsMethodNotFound(fmt.Errorf("complete: %w", jsonrpc.NewMethodNotFound("nope", nil))))
	assert.False(t, IsMethodNotFound(jsonrpc.NewInternalError("boom", nil)))
	assert.False(t, IsMethodNotFound(errors.New("method not found")))
}
