//go:build transport

package mcpconsole

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	sseserver "github.com/viant/jsonrpc/transport/server/http/sse"
	mcpschema "github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcpconsole/auth"
	"github.com/viant/mcpconsole/auth/mock"
	"github.com/viant/mcpconsole/connection"
	"github.com/viant/mcpconsole/proxy"
	"github.com/viant/mcpconsole/schema"
)

type toolServer struct{}

func (s *toolServer) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Id = request.Id
	response.Jsonrpc = request.Jsonrpc
	switch request.Method {
	case mcpschema.MethodInitialize:
		response.Result, _ = json.Marshal(&mcpschema.InitializeResult{
			ServerInfo:      mcpschema.Implementation{Name: "tools", Version: "1.0"},
			ProtocolVersion: mcpschema.LatestProtocolVersion,
			Capabilities:    mcpschema.ServerCapabilities{Tools: &mcpschema.ServerCapabilitiesTools{}},
		})
	case mcpschema.MethodToolsList:
		response.Result = []byte(`{"tools":[{"name":"echo","inputSchema":{"type":"object"}}]}`)
	default:
		response.Error = jsonrpc.NewMethodNotFound("not found", nil)
	}
}

func (s *toolServer) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {}

// newProxy serves the tool server behind an upstream OAuth check.
func newProxy(t *testing.T) *httptest.Server {
	handler := sseserver.New(func(ctx context.Context, tr transport.Transport) transport.Handler {
		return &toolServer{}
	})
	mux := http.NewServeMux()
	mux.HandleFunc(proxy.HealthPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle(proxy.SSEPath, http.StripPrefix("/mcp-proxy/server", handler))
	mux.Handle("/", handler)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != proxy.HealthPath && !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestConsole_AuthorizationRoundTrip(t *testing.T) {
	ctx := context.Background()
	service, err := mock.NewAuthorizationService()
	require.NoError(t, err)
	authServer := httptest.NewServer(service.Handler())
	defer authServer.Close()
	service.Issuer = authServer.URL
	proxyServer := newProxy(t)

	recorder := &auth.Recorder{}
	console, err := New(ctx, &Options{
		Proxy:     ProxyOptions{Address: proxyServer.URL},
		Server:    schema.ServerDescriptor{ID: "srv-1", Name: "tools", Kind: schema.TransportSSE, URL: authServer.URL + "/sse"},
		Auth:      AuthOptions{RedirectURL: "http://localhost/oauth/callback"},
		Navigator: recorder,
	})
	require.NoError(t, err)
	defer console.Close()

	err = console.Manager.Connect(ctx)
	require.ErrorIs(t, err, schema.ErrAuthorizationRedirect)
	assert.Equal(t, connection.StatusConnecting, console.Manager.State().Status)
	require.NotEmpty(t, recorder.URL())

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	response, err := client.Get(recorder.URL())
	require.NoError(t, err)
	_ = response.Body.Close()
	location, err := url.Parse(response.Header.Get("Location"))
	require.NoError(t, err)
	code := location.Query().Get("code")
	require.NotEmpty(t, code)

	completed := ""
	console.Callback.OnComplete = func(serverID string, err error) {
		assert.NoError(t, err)
		completed = serverID
	}
	callback := httptest.NewRecorder()
	console.Callback.ServeHTTP(callback, httptest.NewRequest(http.MethodGet, "/oauth/callback?code="+url.QueryEscape(code), nil))
	assert.Equal(t, http.StatusFound, callback.Code)
	assert.Equal(t, "/mcp-servers/srv-1", callback.Header().Get("Location"))
	assert.Equal(t, "srv-1", completed)
	assert.Equal(t, 1, service.Exchanges())

	require.NoError(t, console.Manager.Connect(ctx))
	state := console.Manager.State()
	assert.Equal(t, connection.StatusConnected, state.Status)
	assert.Equal(t, "tools", state.ServerInfo.Name)
	tools, err := console.Manager.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)
	assert.Equal(t, "echo", tools.Tools[0].Name)
	assert.NoError(t, console.Manager.Disconnect(ctx))
}
