package mailer

import (
	"context"
	"log/slog"
)

// LogMailer writes mail to the log instead of the network. Used in
// development and test, where no SMTP relay is configured.
type LogMailer struct {
	Logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{Logger: logger}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	m.Logger.InfoContext(ctx, "password reset email (log mailer)",
		slog.String("to", to),
		slog.String("reset_url", resetURL),
	)
	return nil
}
