package connection

import (
	"log/slog"
	"net/http"
	"time"

	mcpschema "github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcpconsole/auth"
	"github.com/viant/mcpconsole/notification"
)

// Option represents manager option
type Option func(m *Manager)

// WithProvider enables OAuth recovery of 401 handshakes
func WithProvider(provider *auth.Provider) Option {
	return func(m *Manager) {
		m.provider = provider
	}
}

// WithAuthorizer replaces the authorization flow starter
func WithAuthorizer(authorizer Authorizer) Option {
	return func(m *Manager) {
		if authorizer != nil {
			m.authorizer = authorizer
		}
	}
}

// WithAlerter sets the user alert sink
func WithAlerter(alerter Alerter) Option {
	return func(m *Manager) {
		if alerter != nil {
			m.alerter = alerter
		}
	}
}

// WithRouter sets the notification router
func WithRouter(router *notification.Router) Option {
	return func(m *Manager) {
		if router != nil {
			m.router = router
		}
	}
}

// WithProxyHeaders sets headers sent to the proxy on every request, e.g. its session token
func WithProxyHeaders(headers http.Header) Option {
	return func(m *Manager) {
		m.proxyHeaders = headers.Clone()
	}
}

// WithClientInfo sets the implementation reported during initialize
func WithClientInfo(name, version string) Option {
	return func(m *Manager) {
		m.info = *mcpschema.NewImplementation(name, version)
	}
}

// WithCapabilities sets client capabilities
func WithCapabilities(capabilities mcpschema.ClientCapabilities) Option {
	return func(m *Manager) {
		m.capabilities = capabilities
	}
}

// WithProtocolVersion sets the protocol version requested during initialize
func WithProtocolVersion(version string) Option {
	return func(m *Manager) {
		m.protocolVersion = version
	}
}

// WithMaxAuthRetries caps handshake retries after a successful authorization
func WithMaxAuthRetries(retries int) Option {
	return func(m *Manager) {
		if retries >= 0 {
			m.maxAuthRetries = retries
		}
	}
}

// WithRequestTimeouts sets the default request and maximum total timeouts
func WithRequestTimeouts(timeout, maxTotal time.Duration) Option {
	return func(m *Manager) {
		if timeout > 0 {
			m.defaults.Timeout = timeout
		}
		if maxTotal > 0 {
			m.defaults.MaxTotalTimeout = maxTotal
		}
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}
