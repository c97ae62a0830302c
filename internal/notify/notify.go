// Package notify defines narrow outbound notification ports. Callers
// invoke them after the fact and log failures rather than propagating
// them; notification delivery never gates a domain operation.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// sendTimeout bounds every outbound delivery attempt.
const sendTimeout = 10 * time.Second

// Email is one outbound email message. Body is rendered HTML.
type Email struct {
	To      string
	Subject string
	Body    string
}

// EmailSender delivers a single email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg Email) error
}

// SMSSender delivers a single SMS message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// LogSender writes notifications to the structured log instead of
// delivering them. It is the default wiring until a real provider is
// configured, and doubles as the test sender.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-backed sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendEmail(ctx context.Context, msg Email) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	s.logger.InfoContext(ctx, "email notification",
		"to", msg.To,
		"subject", msg.Subject,
		"bytes", len(msg.Body),
	)
	return nil
}

func (s *LogSender) SendSMS(ctx context.Context, to, body string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	s.logger.InfoContext(ctx, "sms notification", "to", to, "bytes", len(body))
	return nil
}

var (
	_ EmailSender = (*LogSender)(nil)
	_ SMSSender   = (*LogSender)(nil)
)
