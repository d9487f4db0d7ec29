// Package collab defines the external collaborators the workflow handlers
// call into: email delivery, notification dispatch, and the application's
// own relational data layer. The orchestration layer only consumes these
// interfaces; delivery itself is someone else's service.
package collab

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
)

// Email is one outbound message. Template and Fields are interpreted by
// the delivery provider; this layer never renders content.
type Email struct {
	To       string
	Subject  string
	Template string
	Fields   map[string]string

	// DedupKey lets an idempotency-aware provider drop the duplicate
	// send when a redelivered invocation re-runs the step. Derived from
	// the event id and step id; see DedupeKey.
	DedupKey string
}

// EmailSender delivers one email. A returned error fails the calling step
// and is retried within the platform's budget, so implementations should
// honor DedupKey where the provider supports it.
type EmailSender interface {
	Send(ctx context.Context, email Email) error
}

// DedupeKey derives a stable idempotency key for a side-effecting step
// from its invocation id and step id. Redeliveries of the same event
// produce the same key.
func DedupeKey(eventID, stepID string) string {
	sum := sha256.Sum256([]byte(eventID + ":" + stepID))
	return hex.EncodeToString(sum[:16])
}

// LogEmailSender is an EmailSender for development and tests: it logs the
// send instead of delivering.
type LogEmailSender struct {
	Logger *slog.Logger
}

// Send implements EmailSender.
func (s *LogEmailSender) Send(_ context.Context, email Email) error {
	if s.Logger != nil {
		s.Logger.Info("email send",
			slog.String("to", email.To),
			slog.String("subject", email.Subject),
			slog.String("template", email.Template),
			slog.String("dedup_key", email.DedupKey),
		)
	}
	return nil
}
