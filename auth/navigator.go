package auth

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/viant/gosh"
	"github.com/viant/gosh/runner/local"
)

// Navigator sends the user agent to the authorization URL.
// Callers must treat a successful Navigate as the end of their flow.
type Navigator interface {
	Navigate(ctx context.Context, URL string) error
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(ctx context.Context, URL string) error

func (f NavigatorFunc) Navigate(ctx context.Context, URL string) error {
	return f(ctx, URL)
}

// Recorder keeps the last authorization URL, so that an HTTP handler can answer with a redirect.
type Recorder struct {
	mu  sync.Mutex
	url string
}

func (r *Recorder) Navigate(_ context.Context, URL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.url = URL
	return nil
}

// URL returns the last recorded URL
func (r *Recorder) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.url
}

// BrowserNavigator opens the authorization URL in the system browser.
type BrowserNavigator struct{}

func (b *BrowserNavigator) Navigate(ctx context.Context, URL string) error {
	term, err := gosh.New(ctx, local.New())
	if err != nil {
		return fmt.Errorf("failed to start shell: %w", err)
	}
	output, code, err := term.Run(ctx, openCommand(URL))
	if err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("failed to open browser: exit code %v: %s", code, strings.TrimSpace(output))
	}
	return nil
}

func openCommand(URL string) string {
	quoted := "'" + strings.ReplaceAll(URL, "'", `'\''`) + "'"
	switch runtime.GOOS {
	case "darwin":
		return "open " + quoted
	case "windows":
		return "rundll32 url.dll,FileProtocolHandler " + quoted
	default:
		return "xdg-open " + quoted
	}
}
