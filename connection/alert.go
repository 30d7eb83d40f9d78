package connection

import (
	"context"
	"log/slog"
)

// Alert is a user visible message
type Alert struct {
	Title   string
	Message string
}

// Alerter surfaces alerts to the user.
type Alerter interface {
	Alert(ctx context.Context, alert *Alert)
}

// AlertFunc adapts a function to Alerter
type AlertFunc func(ctx context.Context, alert *Alert)

func (f AlertFunc) Alert(ctx context.Context, alert *Alert) {
	f(ctx, alert)
}

type logAlerter struct {
	logger *slog.Logger
}

func (l *logAlerter) Alert(ctx context.Context, alert *Alert) {
	l.logger.WarnContext(ctx, alert.Message, "title", alert.Title)
}

// NewLogAlerter returns an Alerter writing alerts as slog warnings.
func NewLogAlerter(logger *slog.Logger) Alerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &logAlerter{logger: logger.With("component", "alert")}
}
