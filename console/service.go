package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	mcpschema "github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcpconsole"
	"github.com/viant/mcpconsole/connection"
	"github.com/viant/mcpconsole/notification"
	"github.com/viant/mcpconsole/schema"
)

const authorizationTimeout = 5 * time.Minute

// Service runs console actions against a connected server.
type Service struct {
	console *mcpconsole.Console
	out     io.Writer
	logger  *slog.Logger
}

// Run connects, runs the selected action, prints its JSON result and disconnects.
func (s *Service) Run(ctx context.Context, options *Options) error {
	router := s.console.Manager.Router()
	defer router.Subscribe(notification.KindStderr, s.onStderr)()
	defer router.SubscribeAll(s.onNotification)()

	if err := s.connect(ctx, options.Listen); err != nil {
		return err
	}
	defer func() {
		if err := s.console.Manager.Disconnect(context.Background()); err != nil {
			s.logger.Warn("disconnect failed", "error", err)
		}
	}()
	result, err := s.execute(ctx, options)
	if err != nil {
		return err
	}
	return s.print(result)
}

func (s *Service) connect(ctx context.Context, listen string) error {
	err := s.console.Manager.Connect(ctx)
	if !errors.Is(err, schema.ErrAuthorizationRedirect) || s.console.Callback == nil {
		return err
	}
	if err = s.awaitAuthorization(ctx, listen); err != nil {
		return err
	}
	return s.console.Manager.Connect(ctx)
}

// awaitAuthorization serves the OAuth callback until the flow completes.
func (s *Service) awaitAuthorization(ctx context.Context, listen string) error {
	address, path, err := callbackAddress(s.console.Options.AuthConfig().RedirectURL, listen)
	if err != nil {
		return err
	}
	done := make(chan error, 1)
	callback := s.console.Callback
	callback.OnComplete = func(serverID string, err error) {
		select {
		case done <- err:
		default:
		}
	}
	mux := http.NewServeMux()
	mux.Handle(path, callback)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Authorization finished, you can return to the console.\n")
	})
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen for oauth callback on %v: %w", address, err)
	}
	server := &http.Server{Handler: mux}
	go func() { _ = server.Serve(listener) }()
	defer func() { _ = server.Shutdown(context.Background()) }()
	s.logger.Info("waiting for authorization", "callback", "http://"+listener.Addr().String()+path)

	ctx, cancel := context.WithTimeout(ctx, authorizationTimeout)
	defer cancel()
	select {
	case <-ctx.Done():
		return fmt.Errorf("authorization was not completed: %w", ctx.Err())
	case err = <-done:
		return err
	}
}

func (s *Service) execute(ctx context.Context, options *Options) (interface{}, error) {
	manager := s.console.Manager
	switch options.Action {
	case "", "tools":
		return manager.ListTools(ctx, nil)
	case "call":
		if options.Tool == "" {
			return nil, fmt.Errorf("tool was empty")
		}
		params := &mcpschema.CallToolRequestParams{Name: options.Tool}
		if options.Arguments != "" {
			if err := json.Unmarshal([]byte(options.Arguments), &params.Arguments); err != nil {
				return nil, fmt.Errorf("invalid tool arguments: %w", err)
			}
		}
		return manager.CallTool(ctx, params)
	case "prompts":
		return manager.ListPrompts(ctx, nil)
	case "resources":
		return manager.ListResources(ctx, nil)
	case "ping":
		return manager.Ping(ctx)
	case "complete":
		name, value, _ := strings.Cut(options.Argument, "=")
		if options.Tool == "" || name == "" {
			return nil, fmt.Errorf("complete requires --tool and --argument NAME=VALUE")
		}
		return manager.HandleCompletion(ctx, connection.PromptReference(options.Tool), name, value)
	}
	return nil, fmt.Errorf("unsupported action: %v", options.Action)
}

func (s *Service) print(result interface{}) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}

func (s *Service) onStderr(ctx context.Context, envelope *notification.Envelope) {
	params := struct {
		Content string `json:"content"`
	}{}
	if err := envelope.Decode(&params); err != nil {
		return
	}
	s.logger.Info("server stderr", "content", params.Content)
}

func (s *Service) onNotification(ctx context.Context, envelope *notification.Envelope) {
	s.logger.Debug("notification", "kind", envelope.Kind, "method", envelope.Method)
}

// callbackAddress returns the listen address and path serving redirectURL.
func callbackAddress(redirectURL, listen string) (string, string, error) {
	parsed, err := url.Parse(redirectURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect url %v: %w", redirectURL, err)
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}
	if listen != "" {
		return listen, path, nil
	}
	port := parsed.Port()
	if port == "" {
		port = "80"
	}
	return net.JoinHostPort(parsed.Hostname(), port), path, nil
}

// NewService creates a service writing results to out
func NewService(console *mcpconsole.Console, out io.Writer) *Service {
	return &Service{console: console, out: out, logger: slog.Default().With("component", "console")}
}
