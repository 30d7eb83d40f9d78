package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Record is the durable OAuth session of a single server.
type Record struct {
	ServerID          string          `json:"serverId"`
	ClientInformation json.RawMessage `json:"clientInformation,omitempty"`
	Tokens            json.RawMessage `json:"tokens,omitempty"`
	CodeVerifier      string          `json:"codeVerifier,omitempty"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// IsEmpty returns true if record carries no value
func (r *Record) IsEmpty() bool {
	return len(r.ClientInformation) == 0 && len(r.Tokens) == 0 && r.CodeVerifier == ""
}

// merge copies non-empty fields of update into r
func (r *Record) merge(update *Record) {
	if len(update.ClientInformation) > 0 {
		r.ClientInformation = update.ClientInformation
	}
	if len(update.Tokens) > 0 {
		r.Tokens = update.Tokens
	}
	if update.CodeVerifier != "" {
		r.CodeVerifier = update.CodeVerifier
	}
	r.UpdatedAt = update.UpdatedAt
}

// Durable persists OAuth sessions keyed by server id.
// Upsert is idempotent and never clears a stored field with an empty one.
type Durable interface {
	ServerExists(ctx context.Context, serverID string) (bool, error)
	// Get returns nil without error when nothing is stored for the server.
	Get(ctx context.Context, serverID string) (*Record, error)
	Upsert(ctx context.Context, record *Record) error
}

// MemoryDurable is an in-process Durable implementation
type MemoryDurable struct {
	mu      sync.RWMutex
	servers map[string]bool
	records map[string]*Record
}

// RegisterServer creates the server record so that its session values become durable.
func (m *MemoryDurable) RegisterServer(serverID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers[serverID] = true
}

func (m *MemoryDurable) ServerExists(_ context.Context, serverID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.servers[serverID], nil
}

func (m *MemoryDurable) Get(_ context.Context, serverID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[serverID]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (m *MemoryDurable) Upsert(_ context.Context, record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}
	existing, ok := m.records[record.ServerID]
	if !ok {
		existing = &Record{ServerID: record.ServerID}
		m.records[record.ServerID] = existing
	}
	existing.merge(record)
	return nil
}

// NewMemoryDurable creates an in-memory durable store
func NewMemoryDurable(serverIDs ...string) *MemoryDurable {
	ret := &MemoryDurable{servers: map[string]bool{}, records: map[string]*Record{}}
	for _, id := range serverIDs {
		ret.servers[id] = true
	}
	return ret
}
