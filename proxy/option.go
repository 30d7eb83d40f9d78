package proxy

import (
	"log/slog"
	"net/http"
)

// FactoryOption customises Factory
type FactoryOption func(f *Factory)

// WithCookieJar attaches proxy session cookies to every request
func WithCookieJar(jar http.CookieJar) FactoryOption {
	return func(f *Factory) {
		f.jar = jar
	}
}

// WithRoundTripper sets the underlying HTTP transport
func WithRoundTripper(rt http.RoundTripper) FactoryOption {
	return func(f *Factory) {
		if rt != nil {
			f.inner = rt
		}
	}
}

// WithReconnect sets the streamable retry policy; nil disables retries
func WithReconnect(reconnect *Reconnect) FactoryOption {
	return func(f *Factory) {
		f.reconnect = reconnect
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}
