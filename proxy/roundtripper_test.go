package proxy

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripper(t *testing.T) {
	var seen []*http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Clone(r.Context()))
		switch r.URL.Path {
		case "/login":
			http.SetCookie(w, &http.Cookie{Name: "proxy_session", Value: "c1", Path: "/"})
			w.Header().Set(SessionHeader, "session-1")
		case "/denied":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Authentication required. Use the session token"}`))
		}
	}))
	defer server.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	headers := http.Header{}
	headers.Set("X-Auth", "Bearer secret")
	tripper := NewRoundTripper(nil, headers, jar, true)
	client := &http.Client{Transport: tripper}

	assert.Equal(t, "", tripper.SessionID())
	response, err := client.Get(server.URL + "/login")
	require.NoError(t, err)
	response.Body.Close()
	assert.Equal(t, "session-1", tripper.SessionID())

	response, err = client.Get(server.URL + "/next")
	require.NoError(t, err)
	response.Body.Close()
	require.Len(t, seen, 2)
	assert.Equal(t, "Bearer secret", seen[1].Header.Get("X-Auth"))
	assert.Equal(t, "session-1", seen[1].Header.Get(SessionHeader))
	cookie, err := seen[1].Cookie("proxy_session")
	require.NoError(t, err)
	assert.Equal(t, "c1", cookie.Value)

	_, failed := tripper.AuthFailure()
	assert.False(t, failed)
	response, err = client.Get(server.URL + "/denied")
	require.NoError(t, err)
	body, err := io.ReadAll(response.Body)
	response.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "session token")
	failure, failed := tripper.AuthFailure()
	assert.True(t, failed)
	assert.Contains(t, failure, "Authentication required")

	serverURL, _ := url.Parse(server.URL)
	assert.NotEmpty(t, jar.Cookies(serverURL))
}

func TestRoundTripper_NoSessionTracking(t *testing.T) {
	var sessionHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionHeader = r.Header.Get(SessionHeader)
		w.Header().Set(SessionHeader, "session-1")
	}))
	defer server.Close()
	tripper := NewRoundTripper(nil, nil, nil, false)
	client := &http.Client{Transport: tripper}
	for i := 0; i < 2; i++ {
		response, err := client.Get(server.URL)
		require.NoError(t, err)
		response.Body.Close()
	}
	assert.Equal(t, "", sessionHeader)
	assert.Equal(t, "", tripper.SessionID())
}

func TestRoundTripper_AuthFailureCleared(t *testing.T) {
	authorized := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case !authorized:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer server.Close()
	tripper := NewRoundTripper(nil, nil, nil, true)
	client := &http.Client{Transport: tripper}

	response, err := client.Post(server.URL, "application/json", nil)
	require.NoError(t, err)
	response.Body.Close()
	body, unauthorized := tripper.AuthFailure()
	assert.True(t, unauthorized)
	assert.Contains(t, body, "invalid_token")

	authorized = true
	response, err = client.Get(server.URL)
	require.NoError(t, err)
	response.Body.Close()
	_, unauthorized = tripper.AuthFailure()
	assert.True(t, unauthorized, "non 2xx keeps the failure")

	response, err = client.Post(server.URL, "application/json", nil)
	require.NoError(t, err)
	response.Body.Close()
	_, unauthorized = tripper.AuthFailure()
	assert.False(t, unauthorized)
}
