// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/teambee/teambee/pkg/errutil"
)

// PasswordResetService handles the password reset flow.
type PasswordResetService struct {
	users    UserRepository
	tokens   TokenRepository
	tx       Transactor
	hasher   PasswordHasher
	mailer   Mailer
	messages MessageBuilder
	baseURL  string
	logger   *slog.Logger
}

// PasswordResetDeps are the collaborators of a PasswordResetService.
type PasswordResetDeps struct {
	Users    UserRepository
	Tokens   TokenRepository
	Tx       Transactor
	Hasher   PasswordHasher
	Mailer   Mailer
	Messages MessageBuilder
	BaseURL  string
	Logger   *slog.Logger
}

// NewPasswordResetService creates a new PasswordResetService.
func NewPasswordResetService(deps PasswordResetDeps) *PasswordResetService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordResetService{
		users:    deps.Users,
		tokens:   deps.Tokens,
		tx:       deps.Tx,
		hasher:   deps.Hasher,
		mailer:   deps.Mailer,
		messages: deps.Messages,
		baseURL:  deps.BaseURL,
		logger:   logger,
	}
}

// InitiateReset starts a password reset for the given email.
//
// When the email is unknown this returns nil without creating anything,
// so callers can render the same "if this email exists..." message
// either way and an attacker cannot probe for accounts. When the email
// exists, a one-hour token is stored with the requested locale and the
// reset link is handed to the mailer. A mail delivery failure is
// reported with CodeEmailFailed but does not undo the token.
func (s *PasswordResetService) InitiateReset(ctx context.Context, email, language string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code(CodeStorageFailed).
			With("operation", "get user by email").
			Wrap(err)
	}

	if ValidateLanguage(language) != nil {
		language = DefaultLanguage
	}

	value, err := GenerateToken()
	if err != nil {
		return oops.Code(CodeStorageFailed).
			With("operation", "generate reset token").
			Wrap(err)
	}

	userID := user.ID
	if _, err := s.tokens.Create(ctx, &Token{
		Value:     value,
		Kind:      TokenKindPasswordReset,
		UserID:    &userID,
		Language:  language,
		ExpiresAt: time.Now().Add(ResetTokenTTL),
	}); err != nil {
		return oops.Code(CodeStorageFailed).
			With("operation", "store reset token").
			Wrap(err)
	}

	link := s.baseURL + "/reset-password/" + value
	subject, body := s.messages.PasswordReset(language, link)
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		errutil.LogError(s.logger, "sending password reset mail", err)
		return oops.Code(CodeEmailFailed).
			With("operation", "send reset mail").
			Wrap(err)
	}

	return nil
}

// ConsumeReset sets a new password using a reset token.
//
// Validity is rechecked here at the point of use. The conditional
// mark-used and the credential update run in one transaction, so of two
// racing submissions exactly one succeeds and the loser sees
// AUTH_TOKEN_USED, and a partial failure can never leave the token
// consumed without the password changed.
func (s *PasswordResetService) ConsumeReset(ctx context.Context, value, newPassword string) error {
	token, err := s.getResetToken(ctx, value)
	if err != nil {
		return err
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, *token.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeTokenInvalid).Errorf("invalid or expired reset token")
		}
		return oops.Code(CodeStorageFailed).
			With("operation", "get user for reset").
			Wrap(err)
	}

	same, err := s.hasher.Verify(newPassword, user.PasswordHash, user.Salt)
	if err == nil && same {
		return oops.Code(CodeSamePassword).Errorf("new password must differ from the current password")
	}

	hash, salt, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code(CodeStorageFailed).
			With("operation", "hash new password").
			Wrap(err)
	}

	return s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.tokens.MarkUsed(ctx, value, time.Now()); err != nil {
			if errors.Is(err, ErrNotFound) {
				// Validated a moment ago, so another consumer won the race.
				return oops.Code(CodeTokenUsed).Errorf("reset token has already been used")
			}
			return oops.Code(CodeStorageFailed).
				With("operation", "mark token used").
				Wrap(err)
		}
		if err := s.users.UpdateCredentials(ctx, user.ID, hash, salt); err != nil {
			return oops.Code(CodeStorageFailed).
				With("operation", "update credentials").
				Wrap(err)
		}
		return nil
	})
}

// ValidateReset checks that a reset token is currently consumable
// without consuming it, for rendering the reset form.
func (s *PasswordResetService) ValidateReset(ctx context.Context, value string) error {
	_, err := s.getResetToken(ctx, value)
	return err
}

// TokenLanguage returns the locale stored with a reset token. It never
// fails: unknown tokens and tokens without a locale fall back to the
// default language, so even an expired-link page renders in the right
// language.
func (s *PasswordResetService) TokenLanguage(ctx context.Context, value string) string {
	token, err := s.tokens.GetByValue(ctx, value)
	if err != nil || token.Language == "" {
		return DefaultLanguage
	}
	return token.Language
}

// getResetToken fetches a token and checks that it is a currently valid
// password reset token.
func (s *PasswordResetService) getResetToken(ctx context.Context, value string) (*Token, error) {
	token, err := s.tokens.GetByValue(ctx, value)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeTokenInvalid).Errorf("invalid or expired reset token")
		}
		return nil, oops.Code(CodeStorageFailed).
			With("operation", "get reset token").
			Wrap(err)
	}
	if token.Kind != TokenKindPasswordReset {
		return nil, oops.Code(CodeTokenInvalid).Errorf("invalid or expired reset token")
	}

	switch token.StatusAt(time.Now()) {
	case TokenUsed:
		return nil, oops.Code(CodeTokenUsed).Errorf("reset token has already been used")
	case TokenExpired:
		return nil, oops.Code(CodeTokenInvalid).Errorf("invalid or expired reset token")
	}
	return token, nil
}
