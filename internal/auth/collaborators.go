// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package auth

import "context"

// Mailer delivers outbound mail. The auth services construct complete
// reset and invitation links and pass them as data; transport details
// belong to the implementation.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MessageBuilder renders localized mail content for the auth flows.
type MessageBuilder interface {
	// PasswordReset renders the reset mail for the given locale.
	PasswordReset(lang, link string) (subject, body string)

	// RegistrationInvite renders the invitation mail for the given
	// locale and club.
	RegistrationInvite(lang, clubName, link string) (subject, body string)
}

// Transactor runs a function inside a storage transaction. Repository
// calls made with the context passed to fn join the same transaction;
// fn returning an error rolls everything back.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
