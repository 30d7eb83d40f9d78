package connection

import (
	"encoding/json"
	"sync"
	"time"
)

// Entry is a request history record. Notifications have no Response.
type Entry struct {
	Method       string          `json:"method"`
	Request      json.RawMessage `json:"request"`
	Response     json.RawMessage `json:"response,omitempty"`
	Error        string          `json:"error,omitempty"`
	Notification bool            `json:"notification,omitempty"`
	Time         time.Time       `json:"time"`
}

// history is an append only log ordered by completion
type history struct {
	mu      sync.Mutex
	entries []Entry
}

func (h *history) append(entry Entry) {
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()
}

func (h *history) snapshot() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Entry(nil), h.entries...)
}

func (h *history) reset() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}

func encode(value interface{}) json.RawMessage {
	if value == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return data
}
