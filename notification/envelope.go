package notification

import (
	"encoding/json"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcpconsole/internal/conv"
	"github.com/viant/mcpconsole/schema"
)

// Kind identifies a notification topic
type Kind string

const (
	KindCancelled           Kind = "cancelled"
	KindMessage             Kind = "message"
	KindResourceUpdated     Kind = "resource-updated"
	KindResourceListChanged Kind = "resource-list-changed"
	KindToolListChanged     Kind = "tool-list-changed"
	KindPromptListChanged   Kind = "prompt-list-changed"
	KindProgress            Kind = "progress"
	KindStderr              Kind = "stderr"
	KindUnknown             Kind = "unknown"
)

var kinds = map[string]Kind{
	schema.MethodNotificationCancel:              KindCancelled,
	schema.MethodNotificationMessage:             KindMessage,
	schema.MethodNotificationResourceUpdated:     KindResourceUpdated,
	schema.MethodNotificationResourceListChanged: KindResourceListChanged,
	schema.MethodNotificationToolListChanged:     KindToolListChanged,
	schema.MethodNotificationPromptListChanged:   KindPromptListChanged,
	schema.MethodNotificationProgress:            KindProgress,
	schema.MethodNotificationStderr:              KindStderr,
}

// KindOf returns the topic for a notification method
func KindOf(method string) Kind {
	if kind, ok := kinds[method]; ok {
		return kind
	}
	return KindUnknown
}

// Envelope is a notification received from the server.
type Envelope struct {
	Kind   Kind            `json:"kind"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	Time   time.Time       `json:"time"`
}

type progressParams struct {
	ProgressToken interface{} `json:"progressToken"`
	Progress      float64     `json:"progress"`
	Total         *float64    `json:"total,omitempty"`
	Message       string      `json:"message,omitempty"`
}

// ProgressToken returns the normalised progress token of a progress notification.
func (e *Envelope) ProgressToken() (string, bool) {
	if e.Kind != KindProgress || len(e.Params) == 0 {
		return "", false
	}
	params := &progressParams{}
	if err := json.Unmarshal(e.Params, params); err != nil || params.ProgressToken == nil {
		return "", false
	}
	return conv.AsKey(params.ProgressToken), true
}

// Decode unmarshals params into target
func (e *Envelope) Decode(target interface{}) error {
	if len(e.Params) == 0 {
		return nil
	}
	return json.Unmarshal(e.Params, target)
}

// NewEnvelope wraps a JSON-RPC notification
func NewEnvelope(notification *jsonrpc.Notification) *Envelope {
	ret := &Envelope{
		Kind:   KindOf(notification.Method),
		Method: notification.Method,
		Time:   time.Now(),
	}
	if len(notification.Params) > 0 {
		ret.Params = append(json.RawMessage(nil), notification.Params...)
	}
	return ret
}
