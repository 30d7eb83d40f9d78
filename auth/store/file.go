package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/viant/afs"
)

// FileTransient persists transient values as a JSON snapshot at an afs URL,
// so that an authorization flow started by one process can be completed by another.
type FileTransient struct {
	mu     sync.Mutex
	fs     afs.Service
	URL    string
	values map[string]string
	loaded bool
}

type transientSnapshot struct {
	Values map[string]string `json:"values"`
}

func (f *FileTransient) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(ctx); err != nil {
		return "", false, err
	}
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *FileTransient) Put(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(ctx); err != nil {
		return err
	}
	f.values[key] = value
	return f.save(ctx)
}

func (f *FileTransient) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(ctx); err != nil {
		return err
	}
	changed := false
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return f.save(ctx)
}

// Reload drops the cached snapshot so the next access reads the file again.
func (f *FileTransient) Reload() {
	f.mu.Lock()
	f.loaded = false
	f.mu.Unlock()
}

func (f *FileTransient) load(ctx context.Context) error {
	if f.loaded {
		return nil
	}
	f.values = map[string]string{}
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil {
		return fmt.Errorf("failed to check session file %v: %w", f.URL, err)
	}
	if exists {
		data, err := f.fs.DownloadWithURL(ctx, f.URL)
		if err != nil {
			return fmt.Errorf("failed to read session file %v: %w", f.URL, err)
		}
		var snapshot transientSnapshot
		if len(data) > 0 {
			if err = json.Unmarshal(data, &snapshot); err != nil {
				return fmt.Errorf("failed to decode session file %v: %w", f.URL, err)
			}
		}
		for k, v := range snapshot.Values {
			f.values[k] = v
		}
	}
	f.loaded = true
	return nil
}

func (f *FileTransient) save(ctx context.Context) error {
	data, err := json.MarshalIndent(transientSnapshot{Values: f.values}, "", "  ")
	if err != nil {
		return err
	}
	if err = f.fs.Upload(ctx, f.URL, 0o600, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write session file %v: %w", f.URL, err)
	}
	return nil
}

// NewFileTransient creates a transient store persisted at URL (any afs supported scheme).
func NewFileTransient(URL string) *FileTransient {
	return &FileTransient{fs: afs.New(), URL: URL, values: map[string]string{}}
}
