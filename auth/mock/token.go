package mock

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenClaims are carried by every issued token; Use tells access and refresh tokens apart.
type tokenClaims struct {
	jwt.RegisteredClaims
	Use string `json:"token_use"`
}

// signToken issues an RS256 token for clientID valid for ttl.
func (m *AuthorizationService) signToken(clientID, use string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.Issuer,
			Subject:   "console-user",
			Audience:  jwt.ClaimStrings{clientID},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Use: use,
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(m.PrivateKey)
}

func (m *AuthorizationService) tokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	clientID, clientSecret, ok := r.BasicAuth()
	if !ok {
		clientID = r.FormValue("client_id")
		clientSecret = r.FormValue("client_secret")
	}
	if clientID != m.ClientID || clientSecret != m.ClientSecret {
		http.Error(w, "Invalid client credentials", http.StatusUnauthorized)
		return
	}
	switch r.FormValue("grant_type") {
	case "authorization_code":
		challenge, ok := m.takeChallenge(r.FormValue("code"))
		if !ok {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		sum := sha256.Sum256([]byte(r.FormValue("code_verifier")))
		if base64.RawURLEncoding.EncodeToString(sum[:]) != challenge {
			http.Error(w, `{"error":"invalid_grant","error_description":"PKCE verification failed"}`, http.StatusBadRequest)
			return
		}
		atomic.AddInt32(&m.exchanges, 1)
	case "refresh_token":
		if m.FailRefresh || r.FormValue("refresh_token") == "" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		atomic.AddInt32(&m.refreshes, 1)
	default:
		http.Error(w, "Unsupported grant type", http.StatusBadRequest)
		return
	}
	expiresIn := 3600
	accessToken, err := m.signToken(clientID, "access", time.Duration(expiresIn)*time.Second)
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	refreshToken, err := m.signToken(clientID, "refresh", 24*time.Hour)
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	response := map[string]interface{}{
		"access_token":  accessToken,
		"token_type":    "Bearer",
		"refresh_token": refreshToken,
		"expires_in":    expiresIn,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}
