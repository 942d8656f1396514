// Package notify delivers short user-facing notifications. The admin UI
// renders them as toasts; this module only owns the dispatch surface.
package notify

import (
	"context"

	"estate_admin_backend/platform/logger"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier delivers one user-facing message. Implementations must not
// block the caller's control flow.
type Notifier interface {
	Notify(ctx context.Context, level Level, message string)
}

// LogNotifier writes notifications to the structured log. Deployments that
// push toasts over SSE wrap or replace this.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(ctx context.Context, level Level, message string) {
	if level == LevelError {
		n.log.WithContext(ctx).Warn("user_notification", "level", string(level), "message", message)
		return
	}
	n.log.WithContext(ctx).Info("user_notification", "level", string(level), "message", message)
}
