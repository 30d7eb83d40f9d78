package connection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	mcpschema "github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcpconsole/proxy"
	"github.com/viant/mcpconsole/schema"
)

type fakeGate struct {
	err   error
	calls int
	block chan struct{}
}

func (g *fakeGate) Check(ctx context.Context) error {
	g.calls++
	if g.block != nil {
		<-g.block
	}
	return g.err
}

type sendFunc func(ctx context.Context, link *fakeLink, request *jsonrpc.Request) (*jsonrpc.Response, error)

type fakeLink struct {
	kind    schema.TransportKind
	handler transport.Handler
	send    sendFunc

	mu            sync.Mutex
	methods       []string
	notifications []string
	notifyErr     error
	terminated    bool
	closed        bool
}

func (l *fakeLink) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	l.mu.Lock()
	l.methods = append(l.methods, request.Method)
	l.mu.Unlock()
	if request.Method == mcpschema.MethodInitialize {
		return result(request, &mcpschema.InitializeResult{
			ServerInfo:      mcpschema.Implementation{Name: "TestServer", Version: "1.0"},
			ProtocolVersion: mcpschema.LatestProtocolVersion,
			Capabilities:    mcpschema.ServerCapabilities{Tools: &mcpschema.ServerCapabilitiesTools{}},
		}), nil
	}
	if l.send == nil {
		return result(request, struct{}{}), nil
	}
	return l.send(ctx, l, request)
}

func (l *fakeLink) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notifications = append(l.notifications, notification.Method)
	return l.notifyErr
}

func (l *fakeLink) Kind() schema.TransportKind { return l.kind }

func (l *fakeLink) SessionID() string { return "" }

func (l *fakeLink) TerminateSession(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.kind == schema.TransportStreamable {
		l.terminated = true
	}
	return nil
}

func (l *fakeLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *fakeLink) count(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	ret := 0
	for _, candidate := range l.methods {
		if candidate == method {
			ret++
		}
	}
	return ret
}

var _ proxy.Link = (*fakeLink)(nil)

type fakeDialer struct {
	mu      sync.Mutex
	block   chan struct{}
	errs    []error
	link    *fakeLink
	calls   int
	headers []http.Header
}

func (d *fakeDialer) Dial(ctx context.Context, descriptor *schema.ServerDescriptor, headers http.Header, handler transport.Handler) (proxy.Link, error) {
	d.mu.Lock()
	d.calls++
	d.headers = append(d.headers, headers)
	block := d.block
	d.mu.Unlock()
	if block != nil {
		<-block
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if d.link == nil {
		d.link = &fakeLink{}
	}
	d.link.kind = descriptor.Kind
	d.link.handler = handler
	return d.link, nil
}

func result(request *jsonrpc.Request, value interface{}) *jsonrpc.Response {
	data, _ := json.Marshal(value)
	return &jsonrpc.Response{Id: request.Id, Jsonrpc: request.Jsonrpc, Result: data}
}

func rpcError(request *jsonrpc.Request, err *jsonrpc.Error) *jsonrpc.Response {
	return &jsonrpc.Response{Id: request.Id, Jsonrpc: request.Jsonrpc, Error: err}
}

func progressToken(request *jsonrpc.Request) string {
	params := struct {
		Meta struct {
			ProgressToken string `json:"progressToken"`
		} `json:"_meta"`
	}{}
	_ = json.Unmarshal(request.Params, &params)
	return params.Meta.ProgressToken
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []*Alert
}

func (r *recordingAlerter) Alert(ctx context.Context, alert *Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
}

func (r *recordingAlerter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

var errUnauthorized = errors.Join(schema.ErrAuthorizationRequired, errors.New("HTTP 401"))
