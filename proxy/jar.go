package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/viant/afs"
)

// FileJar is a cookie jar persisting the proxy session cookies at an afs URL,
// so a proxy login survives console restarts.
type FileJar struct {
	mu      sync.Mutex
	inner   *cookiejar.Jar
	fs      afs.Service
	URL     string
	cookies map[string]*storedCookie
	logger  *slog.Logger
}

type storedCookie struct {
	Origin   string    `json:"origin"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain,omitempty"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
}

func (s *storedCookie) key() string {
	return s.Origin + "|" + s.Domain + "|" + s.Path + "|" + s.Name
}

func (s *storedCookie) expired(now time.Time) bool {
	return !s.Expires.IsZero() && now.After(s.Expires)
}

func (s *storedCookie) cookie() *http.Cookie {
	return &http.Cookie{Name: s.Name, Value: s.Value, Domain: s.Domain, Path: s.Path, Expires: s.Expires, Secure: s.Secure, HttpOnly: s.HttpOnly}
}

type jarSnapshot struct {
	Cookies []*storedCookie `json:"cookies"`
}

func (j *FileJar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

func (j *FileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	j.inner.SetCookies(u, cookies)
	j.mu.Lock()
	defer j.mu.Unlock()
	origin := u.Scheme + "://" + u.Host
	now := time.Now()
	for _, cookie := range cookies {
		stored := &storedCookie{Origin: origin, Name: cookie.Name, Value: cookie.Value, Domain: cookie.Domain,
			Path: cookie.Path, Expires: cookie.Expires, Secure: cookie.Secure, HttpOnly: cookie.HttpOnly}
		if cookie.MaxAge > 0 {
			stored.Expires = now.Add(time.Duration(cookie.MaxAge) * time.Second)
		}
		if cookie.MaxAge < 0 || stored.expired(now) {
			delete(j.cookies, stored.key())
			continue
		}
		j.cookies[stored.key()] = stored
	}
	if err := j.save(context.Background()); err != nil {
		j.logger.Warn("failed to persist cookies", "URL", j.URL, "error", err)
	}
}

func (j *FileJar) save(ctx context.Context) error {
	snapshot := &jarSnapshot{}
	for _, stored := range j.cookies {
		snapshot.Cookies = append(snapshot.Cookies, stored)
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	return j.fs.Upload(ctx, j.URL, 0o600, bytes.NewReader(data))
}

func (j *FileJar) load(ctx context.Context) error {
	exists, err := j.fs.Exists(ctx, j.URL)
	if err != nil || !exists {
		return err
	}
	data, err := j.fs.DownloadWithURL(ctx, j.URL)
	if err != nil {
		return err
	}
	snapshot := &jarSnapshot{}
	if err = json.Unmarshal(data, snapshot); err != nil {
		return fmt.Errorf("failed to decode cookies %v: %w", j.URL, err)
	}
	now := time.Now()
	for _, stored := range snapshot.Cookies {
		if stored.expired(now) {
			continue
		}
		origin, err := url.Parse(stored.Origin)
		if err != nil {
			continue
		}
		j.inner.SetCookies(origin, []*http.Cookie{stored.cookie()})
		j.cookies[stored.key()] = stored
	}
	return nil
}

// NewFileJar creates a jar backed by URL (any afs supported scheme), loading previously saved cookies.
func NewFileJar(ctx context.Context, URL string) (*FileJar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	ret := &FileJar{
		inner:   inner,
		fs:      afs.New(),
		URL:     URL,
		cookies: map[string]*storedCookie{},
		logger:  slog.Default().With("component", "cookiejar"),
	}
	if err = ret.load(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}
