package mock

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

func (m *AuthorizationService) registerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var request map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid registration request", http.StatusBadRequest)
		return
	}
	if _, ok := request["redirect_uris"]; !ok {
		http.Error(w, "Missing redirect_uris", http.StatusBadRequest)
		return
	}
	atomic.AddInt32(&m.registrations, 1)
	request["client_id"] = m.ClientID
	if m.ClientSecret != "" {
		request["client_secret"] = m.ClientSecret
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(request)
}
