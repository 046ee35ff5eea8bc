// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package mail

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teambee/teambee/internal/i18n"
	"github.com/teambee/teambee/pkg/errutil"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg:  Config{Host: "smtp.example.com", Port: 587, From: "noreply@teambee.example"},
		},
		{
			name:    "missing host",
			cfg:     Config{Port: 587, From: "noreply@teambee.example"},
			wantErr: true,
		},
		{
			name:    "zero port",
			cfg:     Config{Host: "smtp.example.com", From: "noreply@teambee.example"},
			wantErr: true,
		},
		{
			name:    "port out of range",
			cfg:     Config{Host: "smtp.example.com", Port: 70000, From: "noreply@teambee.example"},
			wantErr: true,
		},
		{
			name:    "missing from",
			cfg:     Config{Host: "smtp.example.com", Port: 587},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "MAIL_CONFIG_INVALID")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSMTPMailer_Send(t *testing.T) {
	cfg := Config{Host: "smtp.example.com", Port: 587, From: "noreply@teambee.example"}
	mailer, err := NewSMTPMailer(cfg)
	require.NoError(t, err)

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  []byte
	)
	mailer.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotFrom = from
		gotTo = to
		gotMsg = msg
		return nil
	}

	err = mailer.Send(context.Background(), "member@club.example", "Subject line", "Body text")
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@teambee.example", gotFrom)
	assert.Equal(t, []string{"member@club.example"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Subject line")
	assert.Contains(t, string(gotMsg), "To: member@club.example")
	assert.Contains(t, string(gotMsg), "Body text")
}

func TestSMTPMailer_Send_Failure(t *testing.T) {
	mailer, err := NewSMTPMailer(Config{Host: "smtp.example.com", Port: 587, From: "noreply@teambee.example"})
	require.NoError(t, err)
	mailer.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err = mailer.Send(context.Background(), "member@club.example", "s", "b")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MAIL_SEND_FAILED")
}

func TestSMTPMailer_Send_CancelledContext(t *testing.T) {
	mailer, err := NewSMTPMailer(Config{Host: "smtp.example.com", Port: 587, From: "noreply@teambee.example"})
	require.NoError(t, err)

	called := false
	mailer.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = mailer.Send(ctx, "member@club.example", "s", "b")
	require.Error(t, err)
	assert.False(t, called, "delivery must not start on a cancelled context")
}

func TestMessages_PasswordReset(t *testing.T) {
	catalog, err := i18n.Load()
	require.NoError(t, err)
	messages := NewMessages(catalog)

	subject, body := messages.PasswordReset("en", "https://teambee.example/reset-password/tok")
	assert.Equal(t, "Teambee - Reset your password", subject)
	assert.Contains(t, body, "https://teambee.example/reset-password/tok")

	subject, body = messages.PasswordReset("nl", "https://teambee.example/reset-password/tok")
	assert.Equal(t, "Teambee - Wachtwoord opnieuw instellen", subject)
	assert.Contains(t, body, "https://teambee.example/reset-password/tok")

	// Unknown language falls back to Dutch.
	subject, _ = messages.PasswordReset("fr", "https://teambee.example/reset-password/tok")
	assert.Equal(t, "Teambee - Wachtwoord opnieuw instellen", subject)
}

func TestMessages_RegistrationInvite(t *testing.T) {
	catalog, err := i18n.Load()
	require.NoError(t, err)
	messages := NewMessages(catalog)

	subject, body := messages.RegistrationInvite("en", "FitClub", "https://teambee.example/register/tok")
	assert.Equal(t, "Invitation to Teambee - FitClub", subject)
	assert.Contains(t, body, "FitClub")
	assert.Contains(t, body, "https://teambee.example/register/tok")
}
