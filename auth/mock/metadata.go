package mock

import (
	"encoding/json"
	"net/http"
)

func (m *AuthorizationService) metadataHandler(w http.ResponseWriter, _ *http.Request) {
	metadata := map[string]interface{}{
		"issuer":                           m.Issuer,
		"authorization_endpoint":           m.Issuer + "/authorize",
		"token_endpoint":                   m.Issuer + "/token",
		"response_types_supported":         []string{"code"},
		"grant_types_supported":            []string{"authorization_code", "refresh_token"},
		"code_challenge_methods_supported": []string{"S256"},
	}
	if !m.DisableRegistration {
		metadata["registration_endpoint"] = m.Issuer + "/register"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(metadata)
}

func (m *AuthorizationService) resourceMetadataHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"resource":              m.Issuer + "/mcp",
		"authorization_servers": []string{m.Issuer},
	})
}
