package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Result is the outcome of Authorize
type Result string

const (
	// Authorized means usable tokens are now stored
	Authorized Result = "AUTHORIZED"
	// Redirect means the user agent was sent to the authorization server
	Redirect Result = "REDIRECT"
)

type authorizeOptions struct {
	code       string
	httpClient *http.Client
}

// AuthorizeOption customises Authorize
type AuthorizeOption func(o *authorizeOptions)

// WithAuthorizationCode completes the flow by exchanging code
func WithAuthorizationCode(code string) AuthorizeOption {
	return func(o *authorizeOptions) {
		o.code = code
	}
}

// WithHTTPClient sets the client used for discovery, registration and token calls
func WithHTTPClient(client *http.Client) AuthorizeOption {
	return func(o *authorizeOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// Authorize runs the authorization flow for serverURL: with a code it exchanges
// the code for tokens, with a stored refresh token it refreshes, otherwise it
// saves a new PKCE verifier and redirects to the authorization endpoint.
func Authorize(ctx context.Context, provider *Provider, serverURL string, options ...AuthorizeOption) (Result, error) {
	opts := &authorizeOptions{httpClient: http.DefaultClient}
	for _, opt := range options {
		opt(opts)
	}
	metadata, err := Discover(ctx, serverURL, opts.httpClient)
	if err != nil {
		return "", err
	}
	info, err := ensureClient(ctx, provider, metadata, opts)
	if err != nil {
		return "", err
	}
	config := oauthConfig(provider, metadata, info)
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, opts.httpClient)

	if opts.code != "" {
		verifier, err := provider.CodeVerifier(ctx)
		if err != nil {
			return "", err
		}
		token, err := config.Exchange(tokenCtx, opts.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return "", fmt.Errorf("failed to exchange authorization code: %w", err)
		}
		if err = provider.SaveTokens(ctx, token); err != nil {
			return "", err
		}
		return Authorized, nil
	}

	if cached := provider.Tokens(ctx); cached != nil && cached.RefreshToken != "" {
		if refreshed := refreshToken(tokenCtx, config, cached); refreshed != nil {
			if err = provider.SaveTokens(ctx, refreshed); err != nil {
				return "", err
			}
			return Authorized, nil
		}
		provider.logger.Info("token refresh failed, starting new authorization", "server", provider.serverID)
	}

	verifier := oauth2.GenerateVerifier()
	if err = provider.SaveCodeVerifier(ctx, verifier); err != nil {
		return "", err
	}
	authURL := config.AuthCodeURL(uuid.NewString(), oauth2.S256ChallengeOption(verifier))
	if err = provider.RedirectToAuthorization(ctx, authURL); err != nil {
		return "", err
	}
	return Redirect, nil
}

func ensureClient(ctx context.Context, provider *Provider, metadata *ServerMetadata, opts *authorizeOptions) (*ClientInformation, error) {
	if info := provider.ClientInformation(ctx); info != nil {
		return info, nil
	}
	if opts.code != "" {
		return nil, fmt.Errorf("client information was not found for server %v", provider.serverID)
	}
	info := provider.static
	if info == nil {
		var err error
		if info, err = Register(ctx, metadata.RegistrationEndpoint, provider.ClientMetadata(), opts.httpClient); err != nil {
			return nil, err
		}
	}
	if err := provider.SaveClientInformation(ctx, info); err != nil {
		return nil, err
	}
	return info, nil
}

func oauthConfig(provider *Provider, metadata *ServerMetadata, info *ClientInformation) *oauth2.Config {
	ret := &oauth2.Config{
		ClientID:     info.ClientID,
		ClientSecret: info.ClientSecret,
		RedirectURL:  provider.RedirectURL(),
		Scopes:       provider.config.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  metadata.AuthorizationEndpoint,
			TokenURL: metadata.TokenEndpoint,
		},
	}
	if info.ClientSecret == "" {
		ret.Endpoint.AuthStyle = oauth2.AuthStyleInParams
	}
	return ret
}

func refreshToken(ctx context.Context, config *oauth2.Config, cached *oauth2.Token) *oauth2.Token {
	expired := *cached
	expired.AccessToken = ""
	refreshed, err := config.TokenSource(ctx, &expired).Token()
	if err != nil {
		return nil
	}
	// preserve refresh token if provider omitted it
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = cached.RefreshToken
	}
	return refreshed
}

func joinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}
