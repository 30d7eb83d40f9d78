package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viant/mcpconsole/schema"
)

// DefaultHealthTimeout bounds a single health check
const DefaultHealthTimeout = 5 * time.Second

// HealthGate verifies the proxy is reachable before a connection attempt.
type HealthGate struct {
	address string
	client  *http.Client
	timeout time.Duration
}

type healthStatus struct {
	Status string `json:"status"`
}

// Check returns nil when the proxy answers its health check with status "ok";
// any other outcome wraps schema.ErrProxyUnreachable.
func (g *HealthGate) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	URL := strings.TrimRight(g.address, "/") + HealthPath
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, URL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", schema.ErrProxyUnreachable, err)
	}
	request.Header.Set("Accept", "application/json")
	response, err := g.client.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", schema.ErrProxyUnreachable, err)
	}
	defer response.Body.Close()
	body, err := io.ReadAll(io.LimitReader(response.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("%w: %v", schema.ErrProxyUnreachable, err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("%w: health check returned HTTP %d", schema.ErrProxyUnreachable, response.StatusCode)
	}
	status := &healthStatus{}
	if err = json.Unmarshal(body, status); err != nil {
		return fmt.Errorf("%w: invalid health response: %v", schema.ErrProxyUnreachable, err)
	}
	if status.Status != "ok" {
		return fmt.Errorf("%w: health status %q", schema.ErrProxyUnreachable, status.Status)
	}
	return nil
}

// NewHealthGate creates a gate probing the proxy at address with the given
// credential headers and cookie jar.
func NewHealthGate(address string, headers http.Header, jar http.CookieJar, timeout time.Duration) *HealthGate {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}
	return &HealthGate{
		address: address,
		client:  &http.Client{Transport: NewRoundTripper(nil, headers, jar, false)},
		timeout: timeout,
	}
}
