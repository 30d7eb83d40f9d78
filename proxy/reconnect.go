package proxy

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
)

// Reconnect controls how a streamable link retries when the proxy cannot be reached.
// Only failures to open the connection are retried; once a request may have
// reached the proxy it is never sent again.
type Reconnect struct {
	InitialDelay time.Duration `yaml:"initialDelay,omitempty" json:"initialDelay,omitempty"`
	MaxDelay     time.Duration `yaml:"maxDelay,omitempty" json:"maxDelay,omitempty"`
	GrowFactor   float64       `yaml:"growFactor,omitempty" json:"growFactor,omitempty"`
	MaxRetries   int           `yaml:"maxRetries,omitempty" json:"maxRetries,omitempty"`
}

// DefaultReconnect returns the default policy
func DefaultReconnect() *Reconnect {
	return &Reconnect{
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		GrowFactor:   1.5,
		MaxRetries:   2,
	}
}

// Delay returns the backoff before retry attempt (1-based) plus up to the same amount of jitter.
func (r *Reconnect) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	growFactor := r.GrowFactor
	if growFactor < 1 {
		growFactor = 1
	}
	backoff := time.Duration(float64(r.InitialDelay) * math.Pow(growFactor, float64(attempt-1)))
	if r.MaxDelay > 0 {
		backoff = min(backoff, r.MaxDelay)
	}
	if backoff <= 0 {
		return 0
	}
	return backoff + rand.N(backoff)
}

// retrying re-sends messages whose connection to the proxy could not be established.
type retrying struct {
	transport.Transport
	policy  *Reconnect
	tripper *RoundTripper
	logger  *slog.Logger
}

func (r *retrying) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	var response *jsonrpc.Response
	err := r.retry(ctx, request.Method, func() error {
		var err error
		response, err = r.Transport.Send(ctx, request)
		return err
	})
	return response, err
}

func (r *retrying) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	return r.retry(ctx, notification.Method, func() error {
		return r.Transport.Notify(ctx, notification)
	})
}

func (r *retrying) retry(ctx context.Context, method string, call func() error) error {
	err := call()
	for attempt := 1; err != nil && attempt <= r.policy.MaxRetries && r.retryable(ctx, err); attempt++ {
		delay := r.policy.Delay(attempt)
		r.logger.Debug("retrying streamable request", "method", method, "attempt", attempt, "delay", delay, "error", err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		err = call()
	}
	return err
}

// retryable reports whether err happened before the request left the client.
// Reset, EOF or 5xx may follow server side execution, so they are final.
func (r *retrying) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if _, unauthorized := r.tripper.AuthFailure(); unauthorized {
		return false
	}
	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		return false
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
