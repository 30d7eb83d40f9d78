package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcpconsole/notification"
	"github.com/viant/mcpconsole/schema"
)

// Request is an MCP request issued through the manager
type Request struct {
	Method string
	Params interface{}
}

// RequestOptions controls a single request
type RequestOptions struct {
	Timeout                time.Duration
	MaxTotalTimeout        time.Duration
	ResetTimeoutOnProgress bool
	SuppressAlert          bool
	OnProgress             notification.Handler
}

// RequestOption represents request option
type RequestOption func(o *RequestOptions)

// DefaultRequestOptions returns the default request options
func DefaultRequestOptions() RequestOptions {
	return RequestOptions{
		Timeout:                60 * time.Second,
		MaxTotalTimeout:        60 * time.Second,
		ResetTimeoutOnProgress: true,
	}
}

// WithTimeout sets the timeout between progress notifications
func WithTimeout(timeout time.Duration) RequestOption {
	return func(o *RequestOptions) {
		o.Timeout = timeout
	}
}

// WithMaxTotalTimeout sets the overall request timeout
func WithMaxTotalTimeout(timeout time.Duration) RequestOption {
	return func(o *RequestOptions) {
		o.MaxTotalTimeout = timeout
	}
}

// WithResetTimeoutOnProgress controls whether progress restarts the request timeout
func WithResetTimeoutOnProgress(reset bool) RequestOption {
	return func(o *RequestOptions) {
		o.ResetTimeoutOnProgress = reset
	}
}

// WithoutAlert suppresses the user alert on failure
func WithoutAlert() RequestOption {
	return func(o *RequestOptions) {
		o.SuppressAlert = true
	}
}

// WithProgress sets a progress handler for the request
func WithProgress(handler notification.Handler) RequestOption {
	return func(o *RequestOptions) {
		o.OnProgress = handler
	}
}

// MakeRequest sends request and decodes the result into R. If *R implements
// Validate() error, the decoded value is validated.
func MakeRequest[R any](ctx context.Context, m *Manager, request *Request, options ...RequestOption) (*R, error) {
	aSession := m.live()
	if aSession == nil {
		return nil, schema.ErrNotConnected
	}
	opts := m.defaults
	for _, opt := range options {
		opt(&opts)
	}
	var token string
	if opts.ResetTimeoutOnProgress || opts.OnProgress != nil {
		token = uuid.NewString()
	}
	rpcRequest, err := newRPCRequest(request, token)
	if err != nil {
		return nil, err
	}
	response, err := m.send(ctx, aSession, rpcRequest, token, &opts)
	var result R
	if err == nil {
		err = decode(response, &result)
	}
	if err != nil {
		m.history.append(Entry{Method: request.Method, Request: encode(rpcRequest), Error: err.Error()})
		if !opts.SuppressAlert {
			m.alert(ctx, "Error", err)
		}
		return nil, err
	}
	m.history.append(Entry{Method: request.Method, Request: encode(rpcRequest), Response: response.Result})
	return &result, nil
}

type validator interface {
	Validate() error
}

func decode(response *jsonrpc.Response, target interface{}) error {
	if response.Error != nil {
		return response.Error
	}
	if err := json.Unmarshal(response.Result, target); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	if aValidator, ok := target.(validator); ok {
		if err := aValidator.Validate(); err != nil {
			return fmt.Errorf("invalid result: %w", err)
		}
	}
	return nil
}

// send waits for the response, enforcing the per request and the total timeout.
func (m *Manager) send(ctx context.Context, aSession *session, request *jsonrpc.Request, token string, opts *RequestOptions) (*jsonrpc.Response, error) {
	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	progressed := make(chan struct{}, 1)
	if token != "" {
		release := m.router.Watch(token, func(ctx context.Context, envelope *notification.Envelope) {
			if opts.ResetTimeoutOnProgress {
				select {
				case progressed <- struct{}{}:
				default:
				}
			}
			if opts.OnProgress != nil {
				opts.OnProgress(ctx, envelope)
			}
			m.router.Publish(ctx, envelope)
		})
		defer release()
	}

	type outcome struct {
		response *jsonrpc.Response
		err      error
	}
	done := make(chan outcome, 1)
	go func() {
		response, err := aSession.link.Send(sendCtx, request)
		done <- outcome{response: response, err: err}
	}()

	timeout := time.NewTimer(opts.Timeout)
	defer timeout.Stop()
	maxTotal := time.NewTimer(opts.MaxTotalTimeout)
	defer maxTotal.Stop()
	for {
		select {
		case result := <-done:
			if result.err == nil && result.response == nil {
				return nil, fmt.Errorf("%v: empty response", request.Method)
			}
			return result.response, result.err
		case <-progressed:
			timeout.Reset(opts.Timeout)
		case <-timeout.C:
			return nil, fmt.Errorf("%w: %v after %v", schema.ErrRequestTimeout, request.Method, opts.Timeout)
		case <-maxTotal.C:
			return nil, fmt.Errorf("%w: %v after %v", schema.ErrMaxTotalTimeout, request.Method, opts.MaxTotalTimeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// SendNotification sends notification to the server.
func (m *Manager) SendNotification(ctx context.Context, aNotification *jsonrpc.Notification) error {
	aSession := m.live()
	if aSession == nil {
		return schema.ErrNotConnected
	}
	entry := Entry{Method: aNotification.Method, Request: encode(aNotification), Notification: true}
	if err := aSession.link.Notify(ctx, aNotification); err != nil {
		entry.Error = err.Error()
		m.history.append(entry)
		m.alert(ctx, "Error", err)
		return err
	}
	m.history.append(entry)
	return nil
}

// newRPCRequest builds a JSON-RPC request, adding _meta.progressToken when token is set.
func newRPCRequest(request *Request, token string) (*jsonrpc.Request, error) {
	params := request.Params
	if token != "" {
		withToken, err := withProgressToken(params, token)
		if err != nil {
			return nil, err
		}
		params = withToken
	}
	ret, err := jsonrpc.NewRequest(request.Method, params)
	if err != nil {
		return nil, jsonrpc.NewInvalidRequest(err.Error(), nil)
	}
	return ret, nil
}

func withProgressToken(params interface{}, token string) (map[string]interface{}, error) {
	ret := map[string]interface{}{}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode params: %w", err)
		}
		if string(data) != "null" {
			if err = json.Unmarshal(data, &ret); err != nil {
				return nil, fmt.Errorf("params must be an object: %w", err)
			}
		}
	}
	meta, ok := ret["_meta"].(map[string]interface{})
	if !ok {
		meta = map[string]interface{}{}
	}
	meta["progressToken"] = token
	ret["_meta"] = meta
	return ret, nil
}
