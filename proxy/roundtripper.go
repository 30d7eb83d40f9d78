package proxy

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// SessionHeader carries the streamable HTTP session id.
const SessionHeader = "Mcp-Session-Id"

const maxFailureBody = 4096

// RoundTripper injects credentials and cookies into every proxy request,
// tracks the negotiated session id and records a 401 response until the
// next successful one.
type RoundTripper struct {
	inner        http.RoundTripper
	headers      http.Header
	jar          http.CookieJar
	trackSession bool

	mu          sync.Mutex
	sessionID   string
	authFailure *authFailure
}

type authFailure struct {
	body string
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for name, values := range r.headers {
		clone.Header.Del(name)
		for _, value := range values {
			clone.Header.Add(name, value)
		}
	}
	if r.trackSession {
		if sessionID := r.SessionID(); sessionID != "" && clone.Header.Get(SessionHeader) == "" {
			clone.Header.Set(SessionHeader, sessionID)
		}
	}
	if r.jar != nil {
		for _, cookie := range r.jar.Cookies(clone.URL) {
			clone.AddCookie(cookie)
		}
	}
	resp, err := r.inner.RoundTrip(clone)
	if err != nil {
		return nil, err
	}
	if r.jar != nil {
		r.jar.SetCookies(clone.URL, resp.Cookies())
	}
	if r.trackSession {
		if sessionID := resp.Header.Get(SessionHeader); sessionID != "" {
			r.mu.Lock()
			r.sessionID = sessionID
			r.mu.Unlock()
		}
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		r.recordFailure(resp)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		r.clearFailure()
	}
	return resp, nil
}

// recordFailure keeps a bounded excerpt of the 401 body and restores the body for the caller.
func (r *RoundTripper) recordFailure(resp *http.Response) {
	var excerpt []byte
	if resp.Body != nil {
		excerpt, _ = io.ReadAll(io.LimitReader(resp.Body, maxFailureBody))
		resp.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(excerpt), resp.Body), resp.Body}
	}
	r.mu.Lock()
	r.authFailure = &authFailure{body: string(excerpt)}
	r.mu.Unlock()
}

// clearFailure forgets a 401 once the proxy accepts a request again.
func (r *RoundTripper) clearFailure() {
	r.mu.Lock()
	r.authFailure = nil
	r.mu.Unlock()
}

// SessionID returns the negotiated streamable session id, empty until the server assigns one.
func (r *RoundTripper) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

// AuthFailure returns the body of the last 401 response, if any.
func (r *RoundTripper) AuthFailure() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.authFailure == nil {
		return "", false
	}
	return r.authFailure.body, true
}

// NewRoundTripper creates a credential injecting RoundTripper
func NewRoundTripper(inner http.RoundTripper, headers http.Header, jar http.CookieJar, trackSession bool) *RoundTripper {
	if inner == nil {
		inner = http.DefaultTransport
	}
	return &RoundTripper{inner: inner, headers: headers.Clone(), jar: jar, trackSession: trackSession}
}
