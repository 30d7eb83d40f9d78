package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/viant/jsonrpc/transport"
	"github.com/viant/jsonrpc/transport/client/http/sse"
	"github.com/viant/jsonrpc/transport/client/http/streamable"
	"github.com/viant/mcpconsole/schema"
)

// Factory dials upstream servers through the proxy.
type Factory struct {
	address   string
	jar       http.CookieJar
	inner     http.RoundTripper
	reconnect *Reconnect
	logger    *slog.Logger
}

// Address returns the proxy address
func (f *Factory) Address() string {
	return f.address
}

// Endpoint selects the proxy endpoint for descriptor.
func (f *Factory) Endpoint(descriptor *schema.ServerDescriptor) (*Endpoint, error) {
	return NewEndpoint(f.address, descriptor)
}

// Dial opens a transport for descriptor. headers are injected on every request;
// handler receives server initiated requests and notifications.
func (f *Factory) Dial(ctx context.Context, descriptor *schema.ServerDescriptor, headers http.Header, handler transport.Handler) (Link, error) {
	endpoint, err := f.Endpoint(descriptor)
	if err != nil {
		return nil, err
	}
	tripper := NewRoundTripper(f.inner, headers, f.jar, endpoint.Streamable())
	client := &http.Client{Transport: tripper}
	// the stream outlives the dial call, so it only stops on Close
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ret := &link{endpoint: endpoint, tripper: tripper, client: client, cancel: cancel}

	type dialed struct {
		transport transport.Transport
		err       error
	}
	done := make(chan dialed, 1)
	go func() {
		t, err := f.open(streamCtx, endpoint, client, handler)
		done <- dialed{transport: t, err: err}
	}()
	select {
	case <-ctx.Done():
		cancel()
		return nil, fmt.Errorf("failed to connect to %v: %w", descriptor.ID, ctx.Err())
	case result := <-done:
		if result.err != nil {
			cancel()
			return nil, ret.classify(fmt.Errorf("failed to connect to %v: %w", descriptor.ID, result.err))
		}
		ret.transport = result.transport
	}
	if endpoint.Streamable() && f.reconnect != nil && f.reconnect.MaxRetries > 0 {
		ret.transport = &retrying{Transport: ret.transport, policy: f.reconnect, tripper: tripper, logger: f.logger}
	}
	f.logger.Debug("transport created", "server", descriptor.ID, "kind", endpoint.Kind)
	return ret, nil
}

func (f *Factory) open(ctx context.Context, endpoint *Endpoint, client *http.Client, handler transport.Handler) (transport.Transport, error) {
	switch endpoint.Kind {
	case schema.TransportStdio, schema.TransportSSE, schema.TransportAggregator:
		return sse.New(ctx, endpoint.URL,
			sse.WithHandler(handler),
			sse.WithHttpClient(client),
			sse.WithMessageHttpClient(client))
	case schema.TransportStreamable:
		return streamable.New(ctx, endpoint.URL,
			streamable.WithHandler(handler),
			streamable.WithHTTPClient(client))
	}
	return nil, fmt.Errorf("%w: %q", schema.ErrUnsupportedTransport, endpoint.Kind)
}

// NewFactory creates a factory for the proxy at address
func NewFactory(address string, options ...FactoryOption) *Factory {
	ret := &Factory{
		address:   address,
		inner:     http.DefaultTransport,
		reconnect: DefaultReconnect(),
		logger:    slog.Default().With("component", "transport"),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
