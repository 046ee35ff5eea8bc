// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package mail

import (
	"github.com/teambee/teambee/internal/auth"
	"github.com/teambee/teambee/internal/i18n"
)

// Messages renders email subjects and bodies from the bilingual catalog.
type Messages struct {
	catalog *i18n.Catalog
}

// NewMessages creates a message builder over the given catalog.
func NewMessages(catalog *i18n.Catalog) *Messages {
	return &Messages{catalog: catalog}
}

// PasswordReset renders the password reset email for the given language.
func (m *Messages) PasswordReset(lang, link string) (subject, body string) {
	subject = m.catalog.Text(lang, "password_reset_subject")
	body = m.catalog.Format(lang, "password_reset_body", link)
	return subject, body
}

// RegistrationInvite renders the club registration invitation email.
func (m *Messages) RegistrationInvite(lang, clubName, link string) (subject, body string) {
	subject = m.catalog.Format(lang, "registration_invite_subject", clubName)
	body = m.catalog.Format(lang, "registration_invite_body", clubName, link)
	return subject, body
}

// Compile-time interface check.
var _ auth.MessageBuilder = (*Messages)(nil)
