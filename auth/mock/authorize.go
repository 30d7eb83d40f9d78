package mock

import (
	"fmt"
	"net/http"
	"net/url"
)

// authorizeHandler issues a code bound to the request's PKCE challenge and redirects back.
func (m *AuthorizationService) authorizeHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("client_id") != m.ClientID {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	redirectURI := query.Get("redirect_uri")
	if redirectURI == "" {
		http.Error(w, "Missing redirect URI", http.StatusBadRequest)
		return
	}
	if query.Get("code_challenge_method") != "S256" || query.Get("code_challenge") == "" {
		http.Error(w, "PKCE S256 challenge required", http.StatusBadRequest)
		return
	}
	code := "test_authorization_code"
	m.IssueCode(code, query.Get("code_challenge"))
	redirectURL := fmt.Sprintf("%s?code=%s&state=%s", redirectURI, code, url.QueryEscape(query.Get("state")))
	http.Redirect(w, r, redirectURL, http.StatusFound)
}
