package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcpconsole/internal/collection"
	"github.com/viant/mcpconsole/schema"
)

// Handler receives notifications
type Handler func(ctx context.Context, envelope *Envelope)

type subscription struct {
	id      uint64
	handler Handler
}

// Router dispatches server notifications to subscribers.
type Router struct {
	mu       sync.RWMutex
	seq      uint64
	byKind   map[Kind][]subscription
	all      []subscription
	watches  *collection.SyncMap[string, Handler]
	delivery sync.Mutex
	logger   *slog.Logger
}

var _ transport.Handler = (*Router)(nil)

// Subscribe registers handler for kind; the returned function removes it.
func (r *Router) Subscribe(kind Kind, handler Handler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	id := r.seq
	r.byKind[kind] = append(r.byKind[kind], subscription{id: id, handler: handler})
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.byKind[kind] = without(r.byKind[kind], id)
	}
}

// SubscribeAll registers a catch-all handler receiving every notification except stderr.
func (r *Router) SubscribeAll(handler Handler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	id := r.seq
	r.all = append(r.all, subscription{id: id, handler: handler})
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.all = without(r.all, id)
	}
}

// Watch installs a per-request progress hook for token. Progress carrying a
// watched token is delivered to the hook only.
func (r *Router) Watch(token string, hook Handler) func() {
	r.watches.Put(token, hook)
	return func() {
		r.watches.Delete(token)
	}
}

// Publish delivers envelope to subscribers of its kind and to catch-all subscribers.
func (r *Router) Publish(ctx context.Context, envelope *Envelope) {
	for _, handler := range r.handlers(envelope.Kind) {
		handler(ctx, envelope)
	}
}

func (r *Router) handlers(kind Kind) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]Handler, 0, len(r.byKind[kind])+len(r.all))
	for _, sub := range r.byKind[kind] {
		ret = append(ret, sub.handler)
	}
	if kind != KindStderr {
		for _, sub := range r.all {
			ret = append(ret, sub.handler)
		}
	}
	return ret
}

// Serve answers server initiated requests
func (r *Router) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Id = request.Id
	response.Jsonrpc = request.Jsonrpc
	switch request.Method {
	case schema.MethodPing:
		r.setResponse(response, struct{}{}, nil)
	default:
		r.logger.Debug("unsupported server request", "method", request.Method)
		response.Error = jsonrpc.NewMethodNotFound(fmt.Sprintf("method %s not found", request.Method), nil)
	}
}

// OnNotification handles notification
func (r *Router) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	r.delivery.Lock()
	defer r.delivery.Unlock()
	envelope := NewEnvelope(notification)
	if token, ok := envelope.ProgressToken(); ok {
		if hook, watched := r.watches.Get(token); watched {
			hook(ctx, envelope)
			return
		}
	}
	if envelope.Kind == KindUnknown {
		r.logger.Debug("unrecognised notification", "method", envelope.Method)
	}
	r.Publish(ctx, envelope)
}

func (r *Router) setResponse(response *jsonrpc.Response, result interface{}, rpcError *jsonrpc.Error) {
	if rpcError != nil {
		response.Error = rpcError
		return
	}
	var err error
	if response.Result, err = json.Marshal(result); err != nil {
		response.Error = jsonrpc.NewInternalError(err.Error(), nil)
	}
}

func without(subscriptions []subscription, id uint64) []subscription {
	ret := make([]subscription, 0, len(subscriptions))
	for _, sub := range subscriptions {
		if sub.id != id {
			ret = append(ret, sub)
		}
	}
	return ret
}

// NewRouter creates a router
func NewRouter() *Router {
	return &Router{
		byKind:  map[Kind][]subscription{},
		watches: collection.NewSyncMap[string, Handler](),
		logger:  slog.Default().With("component", "notification"),
	}
}
