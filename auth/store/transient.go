package store

import (
	"context"

	"github.com/viant/mcpconsole/internal/collection"
)

// Transient is a string key/value store scoped to a single user session.
type Transient interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type memoryTransient struct {
	values *collection.SyncMap[string, string]
}

func (m *memoryTransient) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := m.values.Get(key)
	return value, ok, nil
}

func (m *memoryTransient) Put(_ context.Context, key, value string) error {
	m.values.Put(key, value)
	return nil
}

func (m *memoryTransient) Delete(_ context.Context, keys ...string) error {
	m.values.Delete(keys...)
	return nil
}

// NewMemoryTransient creates an in-memory transient store
func NewMemoryTransient() Transient {
	return &memoryTransient{values: collection.NewSyncMap[string, string]()}
}
