package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
)

// AuthorizationService is a test server that simulates an OAuth2 authorization server
type AuthorizationService struct {
	PrivateKey   *rsa.PrivateKey
	Issuer       string
	ClientID     string
	ClientSecret string
	// DisableRegistration hides the registration endpoint from metadata
	DisableRegistration bool
	// FailRefresh rejects refresh_token grants
	FailRefresh bool

	mu            sync.Mutex
	challenges    map[string]string
	registrations int32
	exchanges     int32
	refreshes     int32
}

// Registrations returns number of dynamic registrations
func (m *AuthorizationService) Registrations() int {
	return int(atomic.LoadInt32(&m.registrations))
}

// Exchanges returns number of authorization code exchanges
func (m *AuthorizationService) Exchanges() int {
	return int(atomic.LoadInt32(&m.exchanges))
}

// Refreshes returns number of successful refresh grants
func (m *AuthorizationService) Refreshes() int {
	return int(atomic.LoadInt32(&m.refreshes))
}

// IssueCode registers an authorization code bound to a PKCE challenge
func (m *AuthorizationService) IssueCode(code, challenge string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges[code] = challenge
}

func (m *AuthorizationService) takeChallenge(code string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	challenge, ok := m.challenges[code]
	delete(m.challenges, code)
	return challenge, ok
}

// Handler returns an http.Handler for all mock endpoints, suitable for any HTTP server.
func (m *AuthorizationService) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/oauth-protected-resource", m.resourceMetadataHandler)
	mux.HandleFunc("/.well-known/oauth-authorization-server", m.metadataHandler)
	mux.HandleFunc("/authorize", m.authorizeHandler)
	mux.HandleFunc("/token", m.tokenHandler)
	mux.HandleFunc("/register", m.registerHandler)
	return mux
}

// NewAuthorizationService creates a new mock OAuth2 authorization server
func NewAuthorizationService() (*AuthorizationService, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %v", err)
	}
	return &AuthorizationService{
		PrivateKey: privateKey,
		ClientID:   "test_client_id",
		challenges: map[string]string{},
	}, nil
}
