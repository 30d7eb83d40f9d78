package mcpconsole

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/viant/mcpconsole/auth"
	"github.com/viant/mcpconsole/auth/store"
	"github.com/viant/mcpconsole/connection"
	"github.com/viant/mcpconsole/proxy"
)

// Console holds a wired connection stack for a single server.
type Console struct {
	Options   *Options
	Manager   *connection.Manager
	Provider  *auth.Provider
	Transient store.Transient
	Durable   store.Durable
	Callback  *auth.Callback
	closers   []io.Closer
}

// Close releases the durable store
func (c *Console) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New creates a console for options.Server; extra connection options are applied last.
func New(ctx context.Context, options *Options, connectionOptions ...connection.Option) (*Console, error) {
	options.Init()
	if err := options.Validate(); err != nil {
		return nil, err
	}
	ret := &Console{Options: options}
	transient, err := newTransient(options)
	if err != nil {
		return nil, err
	}
	ret.Transient = transient
	if ret.Durable, err = ret.newDurable(ctx); err != nil {
		return nil, err
	}

	jar := options.CookieJar
	if jar == nil && options.Proxy.CookieURL != "" {
		if jar, err = proxy.NewFileJar(ctx, options.Proxy.CookieURL); err != nil {
			_ = ret.Close()
			return nil, err
		}
	}
	headers := options.ProxyHeaders()
	gate := proxy.NewHealthGate(options.Proxy.Address, headers, jar, options.HealthTimeout())
	factory := proxy.NewFactory(options.Proxy.Address, proxy.WithCookieJar(jar), proxy.WithReconnect(options.Reconnect))

	managerOptions := []connection.Option{
		connection.WithProxyHeaders(headers),
		connection.WithClientInfo(options.Name, options.Version),
		connection.WithRequestTimeouts(
			time.Duration(options.Request.TimeoutMs)*time.Millisecond,
			time.Duration(options.Request.MaxTotalTimeoutMs)*time.Millisecond),
	}
	if options.ProtocolVersion != "" {
		managerOptions = append(managerOptions, connection.WithProtocolVersion(options.ProtocolVersion))
	}
	if !options.Auth.Disabled {
		if ret.Provider, err = ret.newProvider(ctx); err != nil {
			_ = ret.Close()
			return nil, err
		}
		managerOptions = append(managerOptions, connection.WithProvider(ret.Provider))
		ret.Callback = auth.NewCallback(options.AuthConfig(), ret.Transient, ret.Durable)
	}
	managerOptions = append(managerOptions, connectionOptions...)
	ret.Manager = connection.New(&options.Server, gate, factory, managerOptions...)
	return ret, nil
}

func newTransient(options *Options) (store.Transient, error) {
	if options.Auth.SessionURL == "" {
		return store.NewMemoryTransient(), nil
	}
	return store.NewFileTransient(options.Auth.SessionURL), nil
}

func (c *Console) newDurable(ctx context.Context) (store.Durable, error) {
	if c.Options.Auth.DatabasePath == "" {
		return store.NewMemoryDurable(c.Options.Server.ID), nil
	}
	durable, err := store.NewSQLiteDurable(c.Options.Auth.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err = durable.RegisterServer(ctx, &c.Options.Server); err != nil {
		_ = durable.Close()
		return nil, fmt.Errorf("failed to register server %v: %w", c.Options.Server.ID, err)
	}
	c.closers = append(c.closers, durable)
	return durable, nil
}

func (c *Console) newProvider(ctx context.Context) (*auth.Provider, error) {
	navigator := c.Options.Navigator
	if navigator == nil {
		navigator = &auth.BrowserNavigator{}
	}
	providerOptions := []auth.Option{auth.WithDurable(c.Durable), auth.WithNavigator(navigator)}
	if URL := c.Options.Auth.OAuth2ConfigURL; URL != "" {
		static, err := auth.LoadStaticClient(ctx, URL, c.Options.Auth.EncryptionKey)
		if err != nil {
			return nil, err
		}
		providerOptions = append(providerOptions, auth.WithStaticClient(static))
	}
	return auth.NewProvider(c.Options.Server.ID, c.Options.AuthConfig(), c.Transient, providerOptions...), nil
}
