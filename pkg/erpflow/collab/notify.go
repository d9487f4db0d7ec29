package collab

import (
	"context"
	"log/slog"
)

// Notification is one in-app or push notification.
type Notification struct {
	// UserID targets a single user; Team targets a named internal group
	// (e.g. "sales", "purchasing"). Exactly one should be set.
	UserID string
	Team   string

	Title string
	Body  string
}

// Notifier dispatches one notification. Same contract shape as
// EmailSender, different channel.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier is a Notifier for development and tests.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	if l.Logger != nil {
		l.Logger.Info("notification",
			slog.String("user_id", n.UserID),
			slog.String("team", n.Team),
			slog.String("title", n.Title),
		)
	}
	return nil
}
