// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

// Package mail sends credential lifecycle emails over SMTP and renders
// their bilingual subjects and bodies.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/samber/oops"

	"github.com/teambee/teambee/internal/auth"
)

// Config holds SMTP delivery settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Validate checks the delivery settings.
func (c Config) Validate() error {
	if c.Host == "" {
		return oops.Code("MAIL_CONFIG_INVALID").Errorf("smtp host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return oops.Code("MAIL_CONFIG_INVALID").Errorf("invalid smtp port: %d", c.Port)
	}
	if c.From == "" {
		return oops.Code("MAIL_CONFIG_INVALID").Errorf("from address is required")
	}
	return nil
}

// sendFunc matches smtp.SendMail so delivery can be faked in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer implements auth.Mailer over net/smtp. Authentication is
// negotiated with STARTTLS when the server offers it, which is what
// smtp.SendMail does by default.
type SMTPMailer struct {
	cfg  Config
	auth smtp.Auth
	send sendFunc
}

// NewSMTPMailer creates a mailer from the given delivery settings.
func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{cfg: cfg, auth: auth, send: smtp.SendMail}, nil
}

// Send delivers a plain-text message to a single recipient.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("to", to).Wrap(err)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := buildMessage(m.cfg.From, to, subject, body)

	if err := m.send(addr, m.auth, m.cfg.From, []string{to}, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "send mail").
			With("to", to).
			Wrap(err)
	}
	return nil
}

// buildMessage assembles an RFC 5322 plain-text message.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// Compile-time interface check.
var _ auth.Mailer = (*SMTPMailer)(nil)
