package mcpconsole

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/viant/afs"
	"github.com/viant/mcpconsole/auth"
	"github.com/viant/mcpconsole/proxy"
	"github.com/viant/mcpconsole/schema"
	"gopkg.in/yaml.v3"
)

// Options defines the console configuration.
type Options struct {
	Name            string                  `yaml:"name" json:"name,omitempty" short:"n" long:"name" description:"client name"`
	Version         string                  `yaml:"version,omitempty" json:"version,omitempty" long:"client-version" description:"client version"`
	ProtocolVersion string                  `yaml:"protocol,omitempty" json:"protocol,omitempty" short:"p" long:"protocol" description:"mcp protocol"`
	Proxy           ProxyOptions            `yaml:"proxy" json:"proxy" group:"proxy"`
	Server          schema.ServerDescriptor `yaml:"server" json:"server"`
	Auth            AuthOptions             `yaml:"auth,omitempty" json:"auth,omitempty" group:"auth"`
	Request         RequestOptions          `yaml:"request,omitempty" json:"request,omitempty" group:"request"`
	Reconnect       *proxy.Reconnect        `yaml:"reconnect,omitempty" json:"reconnect,omitempty"`

	// Navigator, if set, replaces the system browser for authorization redirects.
	Navigator auth.Navigator `yaml:"-" json:"-"`
	// CookieJar, if set, carries the proxy session cookies.
	CookieJar http.CookieJar `yaml:"-" json:"-"`
}

// ProxyOptions defines how the console reaches the proxy.
type ProxyOptions struct {
	Address       string `yaml:"address" json:"address" short:"x" long:"proxy" description:"proxy address"`
	SessionToken  string `yaml:"sessionToken,omitempty" json:"sessionToken,omitempty" short:"s" long:"session-token" description:"proxy session token"`
	TokenHeader   string `yaml:"tokenHeader,omitempty" json:"tokenHeader,omitempty" long:"session-header" description:"header carrying the proxy session token"`
	CookieURL     string `yaml:"cookieURL,omitempty" json:"cookieURL,omitempty" long:"cookies" description:"proxy cookie file URL"`
	HealthTimeout int    `yaml:"healthTimeoutMs,omitempty" json:"healthTimeoutMs,omitempty" long:"health-timeout" description:"health check timeout in ms"`
}

// AuthOptions defines OAuth options.
type AuthOptions struct {
	RedirectURL     string   `yaml:"redirectURL,omitempty" json:"redirectURL,omitempty" short:"r" long:"redirect" description:"oauth redirect url"`
	ClientName      string   `yaml:"clientName,omitempty" json:"clientName,omitempty" long:"client-name" description:"oauth client name"`
	Scopes          []string `yaml:"scopes,omitempty" json:"scopes,omitempty" long:"scope" description:"oauth scopes"`
	OAuth2ConfigURL string   `yaml:"oauth2ConfigURL,omitempty" json:"oauth2ConfigURL,omitempty" short:"c" long:"oauth2-config" description:"static oauth2 client config"`
	EncryptionKey   string   `yaml:"encryptionKey,omitempty" json:"encryptionKey,omitempty" long:"key" description:"oauth2 config encryption key"`
	SessionURL      string   `yaml:"sessionURL,omitempty" json:"sessionURL,omitempty" long:"session" description:"transient session file URL"`
	DatabasePath    string   `yaml:"database,omitempty" json:"database,omitempty" short:"d" long:"db" description:"sqlite path of the durable store"`
	Disabled        bool     `yaml:"disabled,omitempty" json:"disabled,omitempty" long:"no-oauth" description:"disable oauth recovery"`
}

// RequestOptions defines request defaults.
type RequestOptions struct {
	TimeoutMs         int `yaml:"timeoutMs,omitempty" json:"timeoutMs,omitempty" long:"timeout" description:"request timeout in ms"`
	MaxTotalTimeoutMs int `yaml:"maxTotalTimeoutMs,omitempty" json:"maxTotalTimeoutMs,omitempty" long:"max-timeout" description:"maximum total request timeout in ms"`
}

const (
	defaultProxyAddress = "http://localhost:12009"
	defaultTokenHeader  = "X-MCP-Proxy-Auth"
)

// Init sets defaults
func (o *Options) Init() {
	if o.Name == "" {
		o.Name = "mcp-console"
		if o.Version == "" {
			o.Version = "0.1.0"
		}
	}
	if o.Proxy.Address == "" {
		o.Proxy.Address = defaultProxyAddress
	}
	if o.Proxy.TokenHeader == "" {
		o.Proxy.TokenHeader = defaultTokenHeader
	}
	if o.Reconnect == nil {
		o.Reconnect = proxy.DefaultReconnect()
	}
}

// Validate checks options
func (o *Options) Validate() error {
	if o.Proxy.Address == "" {
		return fmt.Errorf("proxy address was empty")
	}
	return o.Server.Validate()
}

// ProxyHeaders returns the headers authenticating the console with the proxy.
func (o *Options) ProxyHeaders() http.Header {
	ret := http.Header{}
	if o.Proxy.SessionToken != "" {
		ret.Set(o.Proxy.TokenHeader, "Bearer "+o.Proxy.SessionToken)
	}
	return ret
}

// HealthTimeout returns the health check timeout
func (o *Options) HealthTimeout() time.Duration {
	return time.Duration(o.Proxy.HealthTimeout) * time.Millisecond
}

// AuthConfig returns the OAuth client configuration
func (o *Options) AuthConfig() *auth.Config {
	ret := &auth.Config{
		RedirectURL: o.Auth.RedirectURL,
		ClientName:  o.Auth.ClientName,
		Scopes:      o.Auth.Scopes,
	}
	ret.Init()
	return ret
}

// LoadOptions loads YAML options from URL (any afs supported scheme).
func LoadOptions(ctx context.Context, URL string) (*Options, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load options %v: %w", URL, err)
	}
	ret := &Options{}
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode options %v: %w", URL, err)
	}
	ret.Init()
	return ret, nil
}
