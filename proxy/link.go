package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcpconsole/schema"
)

// Link is a live transport to an upstream server through the proxy.
type Link interface {
	transport.Transport
	Kind() schema.TransportKind
	// SessionID returns the streamable session id, empty until negotiated.
	SessionID() string
	// TerminateSession ends the server side session; a no-op for non streamable links.
	TerminateSession(ctx context.Context) error
	Close() error
}

type link struct {
	transport transport.Transport
	endpoint  *Endpoint
	tripper   *RoundTripper
	client    *http.Client
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (l *link) Kind() schema.TransportKind {
	return l.endpoint.Kind
}

func (l *link) SessionID() string {
	return l.tripper.SessionID()
}

func (l *link) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	response, err := l.transport.Send(ctx, request)
	if err != nil {
		return nil, l.classify(err)
	}
	return response, nil
}

func (l *link) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	if err := l.transport.Notify(ctx, notification); err != nil {
		return l.classify(err)
	}
	return nil
}

func (l *link) TerminateSession(ctx context.Context) error {
	if !l.endpoint.Streamable() {
		return nil
	}
	sessionID := l.tripper.SessionID()
	if sessionID == "" {
		return nil
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodDelete, l.endpoint.URL, nil)
	if err != nil {
		return err
	}
	request.Header.Set(SessionHeader, sessionID)
	response, err := l.client.Do(request)
	if err != nil {
		return fmt.Errorf("failed to terminate session %v: %w", sessionID, err)
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)
	// servers that do not support explicit termination answer 405
	if response.StatusCode == http.StatusMethodNotAllowed || (response.StatusCode >= 200 && response.StatusCode < 300) {
		return nil
	}
	return fmt.Errorf("failed to terminate session %v: HTTP %d", sessionID, response.StatusCode)
}

func (l *link) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if closer, ok := l.transport.(io.Closer); ok {
			err = closer.Close()
		}
		if l.cancel != nil {
			l.cancel()
		}
	})
	return err
}

// classify maps failures observed by the RoundTripper onto the error taxonomy.
func (l *link) classify(err error) error {
	body, unauthorized := l.tripper.AuthFailure()
	switch {
	case schema.IsProxyAuthMessage(body) || schema.IsProxyAuthMessage(err.Error()):
		return fmt.Errorf("%w: %w", schema.ErrProxyAuthentication, err)
	case unauthorized:
		return fmt.Errorf("%w: %w", schema.ErrAuthorizationRequired, err)
	}
	return err
}
