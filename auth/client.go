package auth

// ClientInformation is the OAuth client registration (RFC 7591 response).
type ClientInformation struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at,omitempty"`
	ClientSecretExpiresAt   int64    `json:"client_secret_expires_at,omitempty"`
	RedirectURIs            []string `json:"redirect_uris,omitempty"`
	RegistrationAccessToken string   `json:"registration_access_token,omitempty"`
}

// ClientMetadata is sent to the registration endpoint.
type ClientMetadata struct {
	RedirectURIs            []string `json:"redirect_uris"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	ClientName              string   `json:"client_name,omitempty"`
	ClientURI               string   `json:"client_uri,omitempty"`
	Scope                   string   `json:"scope,omitempty"`
}

// Config holds static client settings shared by all providers.
type Config struct {
	RedirectURL string   `yaml:"redirectURL,omitempty" json:"redirectURL,omitempty"`
	ClientName  string   `yaml:"clientName,omitempty" json:"clientName,omitempty"`
	ClientURI   string   `yaml:"clientURI,omitempty" json:"clientURI,omitempty"`
	Scopes      []string `yaml:"scopes,omitempty" json:"scopes,omitempty"`
}

// Init sets defaults
func (c *Config) Init() {
	if c.RedirectURL == "" {
		c.RedirectURL = "http://localhost:12008/oauth/callback"
	}
	if c.ClientName == "" {
		c.ClientName = "MCP Console"
	}
}
