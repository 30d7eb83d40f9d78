package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/viant/mcpconsole/auth/store"
	"github.com/viant/mcpconsole/schema"
	"golang.org/x/oauth2"
)

const (
	keyClientInformation = "mcp_client_information"
	keyTokens            = "mcp_tokens"
	keyCodeVerifier      = "mcp_code_verifier"

	// KeyServerURL and KeyServerID hold the authorization target across the redirect.
	KeyServerURL = "mcp_server_url"
	KeyServerID  = "mcp_server_id"
)

// Provider is the authorization store of a single server.
// Reads prefer the durable tier when the server record exists; writes always
// hit the transient tier and additionally the durable one when the record exists.
type Provider struct {
	serverID  string
	config    *Config
	transient store.Transient
	durable   store.Durable
	navigator Navigator
	static    *ClientInformation
	logger    *slog.Logger
}

// ServerID returns server id
func (p *Provider) ServerID() string {
	return p.serverID
}

func (p *Provider) key(name string) string {
	return name + "_" + p.serverID
}

// RedirectURL returns the OAuth redirect URL
func (p *Provider) RedirectURL() string {
	return p.config.RedirectURL
}

// ClientMetadata returns metadata used for dynamic registration
func (p *Provider) ClientMetadata() *ClientMetadata {
	ret := &ClientMetadata{
		RedirectURIs:            []string{p.config.RedirectURL},
		TokenEndpointAuthMethod: "none",
		GrantTypes:              []string{"authorization_code", "refresh_token"},
		ResponseTypes:           []string{"code"},
		ClientName:              p.config.ClientName,
		ClientURI:               p.config.ClientURI,
	}
	if len(p.config.Scopes) > 0 {
		ret.Scope = joinScopes(p.config.Scopes)
	}
	return ret
}

// RedirectToAuthorization hands the authorization URL to the navigator.
func (p *Provider) RedirectToAuthorization(ctx context.Context, URL string) error {
	if p.navigator == nil {
		return fmt.Errorf("navigator was not configured; open %v to authorize", URL)
	}
	return p.navigator.Navigate(ctx, URL)
}

// ClientInformation returns the client registration or nil.
func (p *Provider) ClientInformation(ctx context.Context) *ClientInformation {
	info := &ClientInformation{}
	if !p.lookup(ctx, keyClientInformation, func(r *store.Record) []byte { return r.ClientInformation }, info) {
		return nil
	}
	return info
}

func (p *Provider) SaveClientInformation(ctx context.Context, info *ClientInformation) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return p.save(ctx, keyClientInformation, string(data), &store.Record{ClientInformation: data})
}

// Tokens returns the stored token or nil.
func (p *Provider) Tokens(ctx context.Context) *oauth2.Token {
	token := &oauth2.Token{}
	if !p.lookup(ctx, keyTokens, func(r *store.Record) []byte { return r.Tokens }, token) {
		return nil
	}
	return withJWTExpiry(token)
}

func (p *Provider) SaveTokens(ctx context.Context, token *oauth2.Token) error {
	data, err := json.Marshal(withJWTExpiry(token))
	if err != nil {
		return err
	}
	return p.save(ctx, keyTokens, string(data), &store.Record{Tokens: data})
}

// CodeVerifier returns the PKCE verifier or schema.ErrNoVerifier.
func (p *Provider) CodeVerifier(ctx context.Context) (string, error) {
	if record := p.durableRecord(ctx); record != nil && record.CodeVerifier != "" {
		return record.CodeVerifier, nil
	}
	value, ok, err := p.transient.Get(ctx, p.key(keyCodeVerifier))
	if err != nil {
		return "", err
	}
	if !ok || value == "" {
		return "", schema.ErrNoVerifier
	}
	return value, nil
}

func (p *Provider) SaveCodeVerifier(ctx context.Context, verifier string) error {
	return p.save(ctx, keyCodeVerifier, verifier, &store.Record{CodeVerifier: verifier})
}

// Clear removes every transient value of the server. Durable values stay.
func (p *Provider) Clear(ctx context.Context) error {
	return p.transient.Delete(ctx, p.key(keyClientInformation), p.key(keyTokens), p.key(keyCodeVerifier))
}

// Promote copies all transient values into the durable tier.
func (p *Provider) Promote(ctx context.Context) error {
	if !p.serverExists(ctx) {
		return fmt.Errorf("failed to persist oauth session: server %v not found", p.serverID)
	}
	record := &store.Record{ServerID: p.serverID}
	if value, ok, err := p.transient.Get(ctx, p.key(keyClientInformation)); err != nil {
		return err
	} else if ok {
		record.ClientInformation = json.RawMessage(value)
	}
	if value, ok, err := p.transient.Get(ctx, p.key(keyTokens)); err != nil {
		return err
	} else if ok {
		record.Tokens = json.RawMessage(value)
	}
	if value, ok, err := p.transient.Get(ctx, p.key(keyCodeVerifier)); err != nil {
		return err
	} else if ok {
		record.CodeVerifier = value
	}
	if record.IsEmpty() {
		return nil
	}
	return p.durable.Upsert(ctx, record)
}

// StashTarget remembers which server the pending authorization belongs to.
func (p *Provider) StashTarget(ctx context.Context, serverURL string) error {
	if err := p.transient.Put(ctx, KeyServerURL, serverURL); err != nil {
		return err
	}
	return p.transient.Put(ctx, KeyServerID, p.serverID)
}

// Target returns the stashed authorization target.
func Target(ctx context.Context, transient store.Transient) (serverURL, serverID string, ok bool) {
	serverURL, hasURL, err := transient.Get(ctx, KeyServerURL)
	if err != nil || !hasURL || serverURL == "" {
		return "", "", false
	}
	serverID, hasID, err := transient.Get(ctx, KeyServerID)
	if err != nil || !hasID || serverID == "" {
		return "", "", false
	}
	return serverURL, serverID, true
}

// ClearTarget removes the stashed authorization target.
func ClearTarget(ctx context.Context, transient store.Transient) error {
	return transient.Delete(ctx, KeyServerURL, KeyServerID)
}

func (p *Provider) save(ctx context.Context, name, value string, record *store.Record) error {
	if err := p.transient.Put(ctx, p.key(name), value); err != nil {
		return fmt.Errorf("failed to save %v: %w", name, err)
	}
	if !p.serverExists(ctx) {
		return nil
	}
	record.ServerID = p.serverID
	if err := p.durable.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to persist %v: %w", name, err)
	}
	return nil
}

func (p *Provider) lookup(ctx context.Context, name string, field func(r *store.Record) []byte, target interface{}) bool {
	if record := p.durableRecord(ctx); record != nil {
		if data := field(record); len(data) > 0 {
			err := json.Unmarshal(data, target)
			if err == nil {
				return true
			}
			p.logger.Warn("invalid durable value", "server", p.serverID, "key", name, "error", err)
		}
	}
	value, ok, err := p.transient.Get(ctx, p.key(name))
	if err != nil {
		p.logger.Warn("failed to read session value", "server", p.serverID, "key", name, "error", err)
		return false
	}
	if !ok || value == "" {
		return false
	}
	if err = json.Unmarshal([]byte(value), target); err != nil {
		p.logger.Warn("invalid session value", "server", p.serverID, "key", name, "error", err)
		return false
	}
	return true
}

func (p *Provider) serverExists(ctx context.Context) bool {
	if p.durable == nil || p.serverID == "" {
		return false
	}
	exists, err := p.durable.ServerExists(ctx, p.serverID)
	if err != nil {
		p.logger.Warn("failed to check server record", "server", p.serverID, "error", err)
		return false
	}
	return exists
}

func (p *Provider) durableRecord(ctx context.Context) *store.Record {
	if !p.serverExists(ctx) {
		return nil
	}
	record, err := p.durable.Get(ctx, p.serverID)
	if err != nil {
		p.logger.Warn("failed to load oauth session", "server", p.serverID, "error", err)
		return nil
	}
	return record
}

// NewProvider creates a provider for serverID
func NewProvider(serverID string, config *Config, transient store.Transient, options ...Option) *Provider {
	if config == nil {
		config = &Config{}
	}
	config.Init()
	ret := &Provider{
		serverID:  serverID,
		config:    config,
		transient: transient,
		logger:    slog.Default().With("component", "auth"),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
