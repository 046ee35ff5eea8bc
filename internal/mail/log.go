// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package mail

import (
	"context"
	"log/slog"

	"github.com/teambee/teambee/internal/auth"
)

// LogMailer writes outgoing mail to the log instead of delivering it.
// Used when no SMTP host is configured, typically in development, so
// reset and invitation links stay reachable through the log output.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message instead of delivering it.
func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.InfoContext(ctx, "mail delivery disabled, logging message",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

var _ auth.Mailer = (*LogMailer)(nil)
