package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/viant/jsonrpc/transport"
	mcpschema "github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcpconsole/auth"
	"github.com/viant/mcpconsole/notification"
	"github.com/viant/mcpconsole/proxy"
	"github.com/viant/mcpconsole/schema"
)

const proxyAuthAlert = "Please enter the session token from the proxy server console in the Configuration settings."

// Gate verifies the proxy is reachable
type Gate interface {
	Check(ctx context.Context) error
}

// Dialer opens a link to the upstream server through the proxy
type Dialer interface {
	Dial(ctx context.Context, descriptor *schema.ServerDescriptor, headers http.Header, handler transport.Handler) (proxy.Link, error)
}

type endpointSelector interface {
	Endpoint(descriptor *schema.ServerDescriptor) (*proxy.Endpoint, error)
}

// Authorizer starts, refreshes or completes authorization for serverURL
type Authorizer func(ctx context.Context, provider *auth.Provider, serverURL string) (auth.Result, error)

// Manager owns one connection to the server described by its descriptor.
type Manager struct {
	descriptor *schema.ServerDescriptor
	gate       Gate
	dialer     Dialer
	provider   *auth.Provider
	authorizer Authorizer
	alerter    Alerter
	router     *notification.Router

	proxyHeaders    http.Header
	info            mcpschema.Implementation
	capabilities    mcpschema.ClientCapabilities
	protocolVersion string
	maxAuthRetries  int
	defaults        RequestOptions
	logger          *slog.Logger

	mu       sync.Mutex
	state    State
	session  *session
	inFlight bool
	// generation is bumped by Disconnect; a connect attempt started under an
	// older generation must not install its session or touch the state.
	generation uint64
	abort      context.CancelFunc
	watchers map[uint64]chan State
	seq      uint64

	history history
}

// Descriptor returns the server descriptor
func (m *Manager) Descriptor() *schema.ServerDescriptor {
	return m.descriptor
}

// Router returns the notification router
func (m *Manager) Router() *notification.Router {
	return m.router
}

// State returns the current connection state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// History returns request history in completion order
func (m *Manager) History() []Entry {
	return m.history.snapshot()
}

// ClearHistory removes all history entries
func (m *Manager) ClearHistory() {
	m.history.reset()
}

// Watch returns a channel receiving state changes and a function releasing it.
// A slow watcher only misses intermediate states, never the latest one.
func (m *Manager) Watch() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := m.seq
	ch := make(chan State, 1)
	ch <- m.state
	m.watchers[id] = ch
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.watchers[id]; ok {
			delete(m.watchers, id)
			close(ch)
		}
	}
}

// Bind disconnects the manager when ctx ends while it is connected.
// The returned function releases the binding.
func (m *Manager) Bind(ctx context.Context) func() {
	stop := context.AfterFunc(ctx, func() {
		if !m.State().Connected() {
			return
		}
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Disconnect(disconnectCtx); err != nil {
			m.logger.Warn("failed to disconnect on unbind", "server", m.descriptor.ID, "error", err)
		}
	})
	return func() { stop() }
}

// Connect establishes the connection. It returns schema.ErrAuthorizationRedirect
// when the user has been sent to authorize; the status then stays connecting
// until Connect is invoked again after the callback completes.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return schema.ErrConnectInProgress
	}
	m.inFlight = true
	generation := m.generation
	ctx, cancel := context.WithCancel(ctx)
	m.abort = cancel
	previous := m.session
	m.session = nil
	m.setState(State{Status: StatusConnecting, CompletionsSupported: true})
	m.mu.Unlock()
	defer func() {
		cancel()
		m.mu.Lock()
		m.inFlight = false
		m.abort = nil
		m.mu.Unlock()
	}()
	if previous != nil {
		if err := previous.close(ctx); err != nil {
			m.logger.Debug("failed to close previous session", "server", m.descriptor.ID, "error", err)
		}
	}
	return m.connect(ctx, generation, 0)
}

func (m *Manager) connect(ctx context.Context, generation uint64, retry int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("connect panicked: %v", r)
			m.fail(generation, StatusError, err)
		}
	}()
	if err = m.descriptor.Validate(); err != nil {
		m.fail(generation, StatusError, err)
		return err
	}
	if err = m.gate.Check(ctx); err != nil {
		if m.stale(generation) {
			return schema.ErrConnectAborted
		}
		m.logger.Warn("proxy health check failed", "server", m.descriptor.ID, "error", err)
		m.fail(generation, StatusErrorConnectingToProxy, err)
		return err
	}
	if m.stale(generation) {
		return schema.ErrConnectAborted
	}
	link, err := m.dialer.Dial(ctx, m.descriptor, m.headers(ctx), m.router)
	if err != nil {
		return m.onHandshakeFailure(ctx, generation, err, retry)
	}
	aSession, err := m.initialize(ctx, link)
	if err != nil {
		_ = link.Close()
		return m.onHandshakeFailure(ctx, generation, err, retry)
	}
	m.mu.Lock()
	if m.generation != generation {
		m.mu.Unlock()
		if closeErr := aSession.close(context.WithoutCancel(ctx)); closeErr != nil {
			m.logger.Debug("failed to close aborted session", "server", m.descriptor.ID, "error", closeErr)
		}
		return schema.ErrConnectAborted
	}
	m.session = aSession
	capabilities := aSession.result.Capabilities
	serverInfo := aSession.result.ServerInfo
	m.setState(State{
		Status:               StatusConnected,
		Capabilities:         &capabilities,
		ServerInfo:           &serverInfo,
		ProtocolVersion:      aSession.result.ProtocolVersion,
		CompletionsSupported: true,
	})
	m.mu.Unlock()
	m.logger.Info("connected", "server", m.descriptor.ID, "kind", m.descriptor.Kind, "retry", retry)
	return nil
}

func (m *Manager) onHandshakeFailure(ctx context.Context, generation uint64, err error, retry int) error {
	if m.stale(generation) {
		return schema.ErrConnectAborted
	}
	switch {
	case schema.IsProxyAuthError(err):
		m.alerter.Alert(ctx, &Alert{Title: "Proxy Authentication Required", Message: proxyAuthAlert})
		m.fail(generation, StatusError, err)
		return err
	case schema.IsUnauthorized(err) && m.provider != nil:
		if retry >= m.maxAuthRetries {
			err = fmt.Errorf("still unauthorized after %d authorization retries: %w", retry, err)
			m.fail(generation, StatusError, err)
			return err
		}
		serverURL := m.authorizationURL()
		if stashErr := m.provider.StashTarget(ctx, serverURL); stashErr != nil {
			m.logger.Warn("failed to stash authorization target", "server", m.descriptor.ID, "error", stashErr)
		}
		result, authErr := m.authorizer(ctx, m.provider, serverURL)
		if authErr != nil {
			authErr = fmt.Errorf("failed to authorize %v: %w", m.descriptor.ID, authErr)
			m.fail(generation, StatusError, authErr)
			return authErr
		}
		if result == auth.Redirect {
			m.logger.Info("redirected for authorization", "server", m.descriptor.ID)
			return schema.ErrAuthorizationRedirect
		}
		return m.connect(ctx, generation, retry+1)
	}
	m.logger.Warn("failed to connect", "server", m.descriptor.ID, "error", err)
	m.fail(generation, StatusError, err)
	return err
}

// Disconnect closes the session, clears transient authorization material and resets the state.
// A Connect still in progress is aborted and never installs its session.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	if m.abort != nil {
		m.abort()
	}
	aSession := m.session
	m.session = nil
	m.mu.Unlock()
	var errs []error
	if aSession != nil {
		if err := aSession.close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if m.provider != nil {
		if err := m.provider.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	m.mu.Lock()
	m.setState(initialState())
	m.mu.Unlock()
	m.logger.Info("disconnected", "server", m.descriptor.ID)
	return errors.Join(errs...)
}

func (m *Manager) live() *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// headers builds credentials sent to the proxy; they never appear in the URL.
func (m *Manager) headers(ctx context.Context) http.Header {
	ret := http.Header{}
	for name, values := range m.proxyHeaders {
		ret[name] = append([]string(nil), values...)
	}
	if token := m.descriptor.BearerToken; token != "" {
		if m.descriptor.HeaderName != "" {
			ret.Set(m.descriptor.HeaderName, token)
		} else {
			ret.Set("Authorization", "Bearer "+token)
		}
	}
	if m.provider != nil && ret.Get("Authorization") == "" {
		if token := m.provider.Tokens(ctx); token != nil && token.AccessToken != "" {
			ret.Set("Authorization", token.Type()+" "+token.AccessToken)
		}
	}
	return ret
}

func (m *Manager) authorizationURL() string {
	if m.descriptor.URL != "" {
		return m.descriptor.URL
	}
	if selector, ok := m.dialer.(endpointSelector); ok {
		if endpoint, err := selector.Endpoint(m.descriptor); err == nil {
			return endpoint.URL
		}
	}
	return ""
}

func (m *Manager) stale(generation uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation != generation
}

// fail records a failed attempt unless Disconnect superseded it.
func (m *Manager) fail(generation uint64, status Status, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != generation {
		return
	}
	state := initialState()
	state.Status = status
	if err != nil {
		state.Error = err.Error()
	}
	m.setState(state)
}

// setState must be called with mu held
func (m *Manager) setState(state State) {
	m.state = state
	for _, ch := range m.watchers {
		select {
		case ch <- state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}

func (m *Manager) alert(ctx context.Context, title string, err error) {
	m.alerter.Alert(ctx, &Alert{Title: title, Message: err.Error()})
}

// New creates a connection manager for descriptor
func New(descriptor *schema.ServerDescriptor, gate Gate, dialer Dialer, options ...Option) *Manager {
	ret := &Manager{
		descriptor: descriptor,
		gate:       gate,
		dialer:     dialer,
		authorizer: func(ctx context.Context, provider *auth.Provider, serverURL string) (auth.Result, error) {
			return auth.Authorize(ctx, provider, serverURL)
		},
		router:          notification.NewRouter(),
		info:            *mcpschema.NewImplementation("mcp-console", "0.1.0"),
		protocolVersion: mcpschema.LatestProtocolVersion,
		maxAuthRetries:  1,
		defaults:        DefaultRequestOptions(),
		logger:          slog.Default().With("component", "connection"),
		state:           initialState(),
		watchers:        map[uint64]chan State{},
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.alerter == nil {
		ret.alerter = NewLogAlerter(ret.logger)
	}
	return ret
}
