package connection

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"
	mcpschema "github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcpconsole/auth"
	"github.com/viant/mcpconsole/auth/store"
	"github.com/viant/mcpconsole/schema"
	"golang.org/x/oauth2"
)

func sseDescriptor() *schema.ServerDescriptor {
	return &schema.ServerDescriptor{ID: "srv-1", Name: "remote", Kind: schema.TransportSSE, URL: "https://x/sse", BearerToken: "secret"}
}

func TestManager_Connect(t *testing.T) {
	gate := &fakeGate{}
	dialer := &fakeDialer{}
	manager := New(sseDescriptor(), gate, dialer)

	require.NoError(t, manager.Connect(context.Background()))
	state := manager.State()
	assert.Equal(t, StatusConnected, state.Status)
	require.NotNil(t, state.Capabilities)
	assert.NotNil(t, state.Capabilities.Tools)
	assert.Equal(t, "TestServer", state.ServerInfo.Name)
	assert.True(t, state.CompletionsSupported)
	assert.Equal(t, []string{mcpschema.MethodNotificationInitialized}, dialer.link.notifications)
	assert.Equal(t, "Bearer secret", dialer.headers[0].Get("Authorization"))
	assert.Same(t, manager.Router(), dialer.link.handler)
}

func TestManager_Connect_CustomHeader(t *testing.T) {
	descriptor := sseDescriptor()
	descriptor.HeaderName = "X-Api-Key"
	dialer := &fakeDialer{}
	manager := New(descriptor, &fakeGate{}, dialer)
	require.NoError(t, manager.Connect(context.Background()))
	assert.Equal(t, "secret", dialer.headers[0].Get("X-Api-Key"))
	assert.Equal(t, "", dialer.headers[0].Get("Authorization"))
}

func TestManager_Connect_ProxyUnreachable(t *testing.T) {
	gate := &fakeGate{err: fmt.Errorf("%w: HTTP 500", schema.ErrProxyUnreachable)}
	dialer := &fakeDialer{}
	manager := New(sseDescriptor(), gate, dialer)

	err := manager.Connect(context.Background())
	assert.ErrorIs(t, err, schema.ErrProxyUnreachable)
	assert.Equal(t, StatusErrorConnectingToProxy, manager.State().Status)
	assert.Equal(t, 0, dialer.calls)
}

func TestManager_Connect_UnsupportedKind(t *testing.T) {
	gate := &fakeGate{}
	dialer := &fakeDialer{}
	manager := New(&schema.ServerDescriptor{ID: "srv-1", Kind: "websocket"}, gate, dialer)

	err := manager.Connect(context.Background())
	assert.ErrorIs(t, err, schema.ErrUnsupportedTransport)
	assert.Equal(t, StatusError, manager.State().Status)
	assert.Equal(t, 0, gate.calls)
	assert.Equal(t, 0, dialer.calls)
}

func TestManager_Connect_ProxyAuthentication(t *testing.T) {
	alerter := &recordingAlerter{}
	authorized := 0
	dialer := &fakeDialer{errs: []error{fmt.Errorf("%w: Authentication required. Use the session token", schema.ErrProxyAuthentication)}}
	manager := New(sseDescriptor(), &fakeGate{}, dialer,
		WithAlerter(alerter),
		WithProvider(auth.NewProvider("srv-1", nil, store.NewMemoryTransient())),
		WithAuthorizer(func(ctx context.Context, provider *auth.Provider, serverURL string) (auth.Result, error) {
			authorized++
			return auth.Authorized, nil
		}))

	err := manager.Connect(context.Background())
	assert.ErrorIs(t, err, schema.ErrProxyAuthentication)
	assert.Equal(t, StatusError, manager.State().Status)
	assert.Equal(t, 1, alerter.count())
	assert.Equal(t, 0, authorized)
	assert.Equal(t, 1, dialer.calls)
}

func TestManager_Connect_Unauthorized(t *testing.T) {
	var testCases = []struct {
		description  string
		dialErrs     []error
		result       auth.Result
		authErr      error
		expectErr    error
		expectStatus Status
		expectDials  int
		expectAuths  int
	}{
		{
			description:  "redirect",
			dialErrs:     []error{errUnauthorized},
			result:       auth.Redirect,
			expectErr:    schema.ErrAuthorizationRedirect,
			expectStatus: StatusConnecting,
			expectDials:  1,
			expectAuths:  1,
		},
		{
			description:  "refreshed then connected",
			dialErrs:     []error{errUnauthorized, nil},
			result:       auth.Authorized,
			expectStatus: StatusConnected,
			expectDials:  2,
			expectAuths:  1,
		},
		{
			description:  "retry capped",
			dialErrs:     []error{errUnauthorized, errUnauthorized, errUnauthorized},
			result:       auth.Authorized,
			expectErr:    schema.ErrAuthorizationRequired,
			expectStatus: StatusError,
			expectDials:  2,
			expectAuths:  1,
		},
		{
			description:  "authorization failure",
			dialErrs:     []error{errUnauthorized},
			authErr:      errors.New("discovery failed"),
			expectStatus: StatusError,
			expectDials:  1,
			expectAuths:  1,
		},
	}

	for _, testCase := range testCases {
		transient := store.NewMemoryTransient()
		provider := auth.NewProvider("srv-1", nil, transient)
		dialer := &fakeDialer{errs: testCase.dialErrs}
		auths := 0
		manager := New(sseDescriptor(), &fakeGate{}, dialer, WithProvider(provider),
			WithAuthorizer(func(ctx context.Context, p *auth.Provider, serverURL string) (auth.Result, error) {
				auths++
				assert.Equal(t, "https://x/sse", serverURL, testCase.description)
				return testCase.result, testCase.authErr
			}))

		err := manager.Connect(context.Background())
		switch {
		case testCase.expectErr != nil:
			assert.ErrorIs(t, err, testCase.expectErr, testCase.description)
		case testCase.authErr != nil:
			assert.ErrorIs(t, err, testCase.authErr, testCase.description)
		default:
			assert.NoError(t, err, testCase.description)
		}
		assert.Equal(t, testCase.expectStatus, manager.State().Status, testCase.description)
		assert.Equal(t, testCase.expectDials, dialer.calls, testCase.description)
		assert.Equal(t, testCase.expectAuths, auths, testCase.description)

		serverURL, serverID, ok := auth.Target(context.Background(), transient)
		assert.True(t, ok, testCase.description)
		assert.Equal(t, "https://x/sse", serverURL, testCase.description)
		assert.Equal(t, "srv-1", serverID, testCase.description)
	}
}

func TestManager_Connect_ServerIDContaining401(t *testing.T) {
	descriptor := sseDescriptor()
	descriptor.ID = "7f3a4019-0000"
	dialer := &fakeDialer{errs: []error{errors.New("failed to connect to 7f3a4019-0000: invalid status code: 502")}}
	auths := 0
	manager := New(descriptor, &fakeGate{}, dialer,
		WithProvider(auth.NewProvider(descriptor.ID, nil, store.NewMemoryTransient())),
		WithAuthorizer(func(ctx context.Context, provider *auth.Provider, serverURL string) (auth.Result, error) {
			auths++
			return auth.Redirect, nil
		}))

	err := manager.Connect(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, schema.ErrAuthorizationRedirect)
	assert.Equal(t, StatusError, manager.State().Status)
	assert.Equal(t, 0, auths)
}

func TestManager_Connect_UsesStoredToken(t *testing.T) {
	descriptor := sseDescriptor()
	descriptor.BearerToken = ""
	provider := auth.NewProvider("srv-1", nil, store.NewMemoryTransient())
	require.NoError(t, provider.SaveTokens(context.Background(), &oauth2.Token{AccessToken: "access-1", TokenType: "Bearer"}))
	dialer := &fakeDialer{}
	manager := New(descriptor, &fakeGate{}, dialer, WithProvider(provider))
	require.NoError(t, manager.Connect(context.Background()))
	assert.Equal(t, "Bearer access-1", dialer.headers[0].Get("Authorization"))
}

func TestManager_Connect_InProgress(t *testing.T) {
	gate := &fakeGate{block: make(chan struct{})}
	manager := New(sseDescriptor(), gate, &fakeDialer{})
	done := make(chan error, 1)
	go func() {
		done <- manager.Connect(context.Background())
	}()
	require.Eventually(t, func() bool { return manager.State().Status == StatusConnecting }, time.Second, time.Millisecond)
	assert.ErrorIs(t, manager.Connect(context.Background()), schema.ErrConnectInProgress)
	close(gate.block)
	assert.NoError(t, <-done)
	assert.Equal(t, StatusConnected, manager.State().Status)
}

func TestManager_DisconnectDuringConnect(t *testing.T) {
	var testCases = []struct {
		description      string
		gate             *fakeGate
		dialer           *fakeDialer
		expectDials      int
		expectLinkClosed bool
	}{
		{
			description: "while checking the proxy",
			gate:        &fakeGate{block: make(chan struct{})},
			dialer:      &fakeDialer{},
		},
		{
			description:      "while dialing",
			gate:             &fakeGate{},
			dialer:           &fakeDialer{block: make(chan struct{})},
			expectDials:      1,
			expectLinkClosed: true,
		},
	}
	for _, testCase := range testCases {
		manager := New(sseDescriptor(), testCase.gate, testCase.dialer)
		done := make(chan error, 1)
		go func() {
			done <- manager.Connect(context.Background())
		}()
		require.Eventually(t, func() bool { return manager.State().Status == StatusConnecting }, time.Second, time.Millisecond, testCase.description)
		if testCase.dialer.block != nil {
			require.Eventually(t, func() bool {
				testCase.dialer.mu.Lock()
				defer testCase.dialer.mu.Unlock()
				return testCase.dialer.calls == 1
			}, time.Second, time.Millisecond, testCase.description)
		}
		require.NoError(t, manager.Disconnect(context.Background()), testCase.description)
		assert.Equal(t, StatusDisconnected, manager.State().Status, testCase.description)
		if testCase.gate.block != nil {
			close(testCase.gate.block)
		}
		if testCase.dialer.block != nil {
			close(testCase.dialer.block)
		}

		assert.ErrorIs(t, <-done, schema.ErrConnectAborted, testCase.description)
		assert.Equal(t, StatusDisconnected, manager.State().Status, testCase.description)
		assert.Nil(t, manager.live(), testCase.description)
		testCase.dialer.mu.Lock()
		assert.Equal(t, testCase.expectDials, testCase.dialer.calls, testCase.description)
		testCase.dialer.mu.Unlock()
		if testCase.expectLinkClosed {
			assert.True(t, testCase.dialer.link.closed, testCase.description)
		}
		require.NoError(t, manager.Connect(context.Background()), testCase.description)
		assert.Equal(t, StatusConnected, manager.State().Status, testCase.description)
	}
}

func TestManager_Disconnect(t *testing.T) {
	ctx := context.Background()
	descriptor := sseDescriptor()
	descriptor.Kind = schema.TransportStreamable
	transient := store.NewMemoryTransient()
	provider := auth.NewProvider("srv-1", nil, transient)
	dialer := &fakeDialer{link: &fakeLink{send: func(ctx context.Context, link *fakeLink, request *jsonrpc.Request) (*jsonrpc.Response, error) {
		return rpcError(request, jsonrpc.NewMethodNotFound("completion not supported", nil)), nil
	}}}
	manager := New(descriptor, &fakeGate{}, dialer, WithProvider(provider), WithAlerter(&recordingAlerter{}))
	require.NoError(t, manager.Connect(ctx))
	require.NoError(t, provider.SaveTokens(ctx, &oauth2.Token{AccessToken: "access-1"}))
	require.NoError(t, provider.SaveCodeVerifier(ctx, "verifier"))
	_, err := manager.HandleCompletion(ctx, PromptReference("greet"), "name", "a")
	require.NoError(t, err)
	assert.False(t, manager.State().CompletionsSupported)

	require.NoError(t, manager.Disconnect(ctx))
	state := manager.State()
	assert.Equal(t, initialState(), state)
	assert.Nil(t, state.Capabilities)
	assert.True(t, dialer.link.terminated)
	assert.True(t, dialer.link.closed)
	assert.Nil(t, manager.live())
	assert.Nil(t, provider.Tokens(ctx))
	_, err = provider.CodeVerifier(ctx)
	assert.ErrorIs(t, err, schema.ErrNoVerifier)

	_, err = manager.ListTools(ctx, nil)
	assert.ErrorIs(t, err, schema.ErrNotConnected)
}

func TestManager_Watch(t *testing.T) {
	manager := New(sseDescriptor(), &fakeGate{}, &fakeDialer{})
	states, release := manager.Watch()
	defer release()
	assert.Equal(t, StatusDisconnected, (<-states).Status)
	require.NoError(t, manager.Connect(context.Background()))
	assert.Equal(t, StatusConnected, (<-states).Status)
	require.NoError(t, manager.Disconnect(context.Background()))
	assert.Equal(t, StatusDisconnected, (<-states).Status)
}

func TestManager_Bind(t *testing.T) {
	dialer := &fakeDialer{}
	manager := New(sseDescriptor(), &fakeGate{}, dialer)
	require.NoError(t, manager.Connect(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	_ = manager.Bind(ctx)
	cancel()
	assert.Eventually(t, func() bool {
		return manager.State().Status == StatusDisconnected
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		dialer.link.mu.Lock()
		defer dialer.link.mu.Unlock()
		return dialer.link.closed
	}, time.Second, 5*time.Millisecond)
}

func TestManager_Bind_Release(t *testing.T) {
	manager := New(sseDescriptor(), &fakeGate{}, &fakeDialer{})
	require.NoError(t, manager.Connect(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	release := manager.Bind(ctx)
	release()
	cancel()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StatusConnected, manager.State().Status)

	// a context that never ends binds nothing
	manager.Bind(context.Background())()
}
