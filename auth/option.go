package auth

import (
	"log/slog"

	"github.com/viant/mcpconsole/auth/store"
)

type Option func(p *Provider)

// WithDurable sets the durable tier
func WithDurable(durable store.Durable) Option {
	return func(p *Provider) {
		p.durable = durable
	}
}

// WithNavigator sets the navigator used by RedirectToAuthorization
func WithNavigator(navigator Navigator) Option {
	return func(p *Provider) {
		p.navigator = navigator
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithStaticClient sets a pre-registered client used instead of dynamic registration
func WithStaticClient(info *ClientInformation) Option {
	return func(p *Provider) {
		p.static = info
	}
}
