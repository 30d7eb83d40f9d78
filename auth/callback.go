package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/viant/mcpconsole/auth/store"
)

// Callback completes the authorization flow at the OAuth redirect URL.
// On success the session values are migrated into the durable tier, the
// transient keys are cleared and the user agent lands on the server page;
// any failure lands on the server list.
type Callback struct {
	Config     *Config
	Durable    store.Durable
	HTTPClient *http.Client
	// ServerPage is the server list path; server detail pages live under it.
	ServerPage string
	// Session resolves the transient tier of the requesting user agent.
	Session func(r *http.Request) store.Transient
	// OnComplete is notified with the server id (possibly empty) and the outcome.
	OnComplete func(serverID string, err error)
	Logger     *slog.Logger
}

func (c *Callback) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	if oauthErr := query.Get("error"); oauthErr != "" {
		c.fail(w, r, "", fmt.Errorf("authorization failed: %v %v", oauthErr, query.Get("error_description")))
		return
	}
	transient := c.Session(r)
	code := query.Get("code")
	serverURL, serverID, ok := Target(ctx, transient)
	if code == "" || !ok {
		c.fail(w, r, serverID, fmt.Errorf("missing authorization code or target"))
		return
	}
	provider := NewProvider(serverID, c.Config, transient, WithDurable(c.Durable), WithLogger(c.logger()))
	result, err := Authorize(ctx, provider, serverURL, WithAuthorizationCode(code), WithHTTPClient(c.HTTPClient))
	if err != nil {
		c.fail(w, r, serverID, err)
		return
	}
	if result != Authorized {
		c.fail(w, r, serverID, fmt.Errorf("unexpected authorization result: %v", result))
		return
	}
	if err = provider.Promote(ctx); err != nil {
		c.fail(w, r, serverID, err)
		return
	}
	if err = provider.Clear(ctx); err != nil {
		c.logger().Warn("failed to clear session values", "server", serverID, "error", err)
	}
	if err = ClearTarget(ctx, transient); err != nil {
		c.logger().Warn("failed to clear authorization target", "server", serverID, "error", err)
	}
	c.logger().Info("authorization completed", "server", serverID)
	if c.OnComplete != nil {
		c.OnComplete(serverID, nil)
	}
	http.Redirect(w, r, c.serverPage()+"/"+serverID, http.StatusFound)
}

func (c *Callback) fail(w http.ResponseWriter, r *http.Request, serverID string, err error) {
	c.logger().Warn("oauth callback failed", "server", serverID, "error", err)
	if c.OnComplete != nil {
		c.OnComplete(serverID, err)
	}
	http.Redirect(w, r, c.serverPage(), http.StatusFound)
}

func (c *Callback) serverPage() string {
	if c.ServerPage == "" {
		return "/mcp-servers"
	}
	return strings.TrimRight(c.ServerPage, "/")
}

func (c *Callback) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default().With("component", "oauth-callback")
	}
	return c.Logger
}

// NewCallback creates a callback handler serving a single transient session
func NewCallback(config *Config, transient store.Transient, durable store.Durable) *Callback {
	return &Callback{
		Config:  config,
		Durable: durable,
		Session: func(*http.Request) store.Transient { return transient },
	}
}
