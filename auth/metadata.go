package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	furl "github.com/viant/afs/url"
	"github.com/viant/mcp-protocol/oauth2/meta"
)

// ServerMetadata is the subset of RFC 8414 authorization server metadata used by the flow.
type ServerMetadata struct {
	Issuer                        string   `json:"issuer"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	RegistrationEndpoint          string   `json:"registration_endpoint,omitempty"`
	ScopesSupported               []string `json:"scopes_supported,omitempty"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`
}

// Discover resolves authorization server metadata for an MCP server URL.
// Protected resource metadata is consulted first; when the authorization
// server publishes no metadata the conventional endpoints are assumed.
func Discover(ctx context.Context, serverURL string, client *http.Client) (*ServerMetadata, error) {
	origin, err := originOf(serverURL)
	if err != nil {
		return nil, err
	}
	issuer := origin
	resource, err := meta.FetchProtectedResourceMetadata(ctx, furl.Join(origin, ".well-known/oauth-protected-resource"), client)
	if err == nil && resource != nil && len(resource.AuthorizationServers) > 0 {
		issuer = resource.AuthorizationServers[0]
	}
	metadata, found, err := fetchServerMetadata(ctx, issuer, client)
	if err != nil {
		return nil, err
	}
	if !found {
		return defaultMetadata(issuer), nil
	}
	if metadata.Issuer == "" {
		metadata.Issuer = issuer
	}
	return metadata, nil
}

func fetchServerMetadata(ctx context.Context, issuer string, client *http.Client) (*ServerMetadata, bool, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, furl.Join(issuer, ".well-known/oauth-authorization-server"), nil)
	if err != nil {
		return nil, false, err
	}
	request.Header.Set("Accept", "application/json")
	response, err := client.Do(request)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch authorization server metadata: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, false, err
	}
	if response.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("failed to fetch authorization server metadata: HTTP %d: %s", response.StatusCode, body)
	}
	metadata := &ServerMetadata{}
	if err = json.Unmarshal(body, metadata); err != nil {
		return nil, false, fmt.Errorf("invalid authorization server metadata: %w", err)
	}
	return metadata, true, nil
}

func defaultMetadata(issuer string) *ServerMetadata {
	return &ServerMetadata{
		Issuer:                        issuer,
		AuthorizationEndpoint:         furl.Join(issuer, "authorize"),
		TokenEndpoint:                 furl.Join(issuer, "token"),
		RegistrationEndpoint:          furl.Join(issuer, "register"),
		CodeChallengeMethodsSupported: []string{"S256"},
	}
}

func originOf(serverURL string) (string, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", serverURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid server url %q", serverURL)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}
