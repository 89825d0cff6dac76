// Package mail delivers account emails. The current dispatcher writes the
// message to the structured log instead of talking to an SMTP relay, which
// is enough for development and for environments where mail is handled by a
// separate relay service reading the log stream.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"localbite/config"
	"localbite/internal/domain/service"
)

// LogDispatcher implements service.EmailDispatcher against the logger.
type LogDispatcher struct {
	from    string
	baseURL string
	logger  *slog.Logger
}

// NewLogDispatcher creates the log-backed email dispatcher.
func NewLogDispatcher(cfg *config.Config, logger *slog.Logger) service.EmailDispatcher {
	from := "no-reply@localbite.dev"
	baseURL := "http://localhost:8080"

	if cfg.Mail != nil {
		if cfg.Mail.From != "" {
			from = cfg.Mail.From
		}
		if cfg.Mail.BaseURL != "" {
			baseURL = cfg.Mail.BaseURL
		}
	}

	return &LogDispatcher{
		from:    from,
		baseURL: baseURL,
		logger:  logger,
	}
}

// SendVerificationEmail emits the verification link for the recipient.
// Failures here must never fail the calling flow; the caller treats delivery
// as best effort and this implementation cannot fail at all.
func (d *LogDispatcher) SendVerificationEmail(ctx context.Context, recipient, token string) error {
	link := fmt.Sprintf("%s/api/auth/verify-email?token=%s", d.baseURL, token)

	d.logger.InfoContext(ctx, "Sending verification email",
		slog.String("from", d.from),
		slog.String("to", recipient),
		slog.String("link", link),
	)

	return nil
}
