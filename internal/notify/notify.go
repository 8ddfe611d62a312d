// Package notify delivers transient user-facing notifications.
package notify

import (
	"context"
	"log/slog"

	"github.com/zippy-delivery/zippy-console/internal/shared"
)

// Notifier delivers a notification. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, n shared.FlashMessage)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n shared.FlashMessage)

// Notify calls f.
func (f Func) Notify(ctx context.Context, n shared.FlashMessage) {
	f(ctx, n)
}

// Session queues notifications on the request session so the next rendered
// page shows them. Without a session the notification is logged instead.
type Session struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (s Session) Notify(ctx context.Context, n shared.FlashMessage) {
	if sess := shared.SessionFromContext(ctx); sess != nil {
		sess.AddFlash(n)
		return
	}
	Log{Logger: s.Logger}.Notify(ctx, n)
}

// Log writes notifications to a structured logger. Used for process-level
// events that have no session to attach to.
type Log struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l Log) Notify(ctx context.Context, n shared.FlashMessage) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if n.Kind == shared.FlashDestructive {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "notification",
		slog.String("kind", n.Kind),
		slog.String("title", n.Title),
		slog.String("message", n.Message),
	)
}

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, n shared.FlashMessage) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}
