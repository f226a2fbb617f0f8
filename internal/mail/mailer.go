// Package mail abstracts outbound email. The server only ever sends one
// kind of message — the password-reset link — so the interface stays
// deliberately small.
package mail

import (
	"context"
	"log/slog"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages. The auth service treats a delivery error as
// fatal for the reset flow: the stored reset token is abandoned so the
// user can simply try again.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the structured log instead of an SMTP
// server. It is the default in development; production wires a real
// transport behind the same interface.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send logs the message. The body contains the reset link, so at debug
// level a developer can complete the flow end to end from the log.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.InfoContext(ctx, "outbound email",
		"to", msg.To,
		"subject", msg.Subject,
	)
	m.log.DebugContext(ctx, "email body", "body", msg.Body)
	return nil
}
