package auth

import (
	"context"
	"fmt"

	"github.com/viant/scy/auth/authorizer"
)

// LoadStaticClient loads a pre-registered OAuth client (optionally encrypted) with scy.
func LoadStaticClient(ctx context.Context, configURL, encryptionKey string) (*ClientInformation, error) {
	if encryptionKey != "" {
		configURL += "|" + encryptionKey
	}
	anAuthorizer := authorizer.New()
	oauthConfig := &authorizer.OAuthConfig{ConfigURL: configURL}
	if err := anAuthorizer.EnsureConfig(ctx, oauthConfig); err != nil {
		return nil, fmt.Errorf("failed to load oauth2 config %q: %w", configURL, err)
	}
	if oauthConfig.Config == nil || oauthConfig.Config.ClientID == "" {
		return nil, fmt.Errorf("oauth2 config %q has no client id", configURL)
	}
	ret := &ClientInformation{
		ClientID:     oauthConfig.Config.ClientID,
		ClientSecret: oauthConfig.Config.ClientSecret,
	}
	if oauthConfig.Config.RedirectURL != "" {
		ret.RedirectURIs = []string{oauthConfig.Config.RedirectURL}
	}
	return ret, nil
}
