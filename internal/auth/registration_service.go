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

// RegistrationService handles club registration invitations.
type RegistrationService struct {
	users  UserRepository
	clubs  ClubRepository
	tokens TokenRepository
	tx     Transactor
	hasher PasswordHasher
	logger *slog.Logger
}

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(users UserRepository, clubs ClubRepository, tokens TokenRepository, tx Transactor, hasher PasswordHasher, logger *slog.Logger) *RegistrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{
		users:  users,
		clubs:  clubs,
		tokens: tokens,
		tx:     tx,
		hasher: hasher,
		logger: logger,
	}
}

// CreateInvite issues a registration invitation token scoped to a club.
// A zero ttl means DefaultInviteTTL. The invite inherits the club's
// language for later rendering.
func (s *RegistrationService) CreateInvite(ctx context.Context, clubID int64, ttl time.Duration) (string, error) {
	// Opportunistic housekeeping; failures never block the invite.
	if _, err := s.CleanupExpired(ctx); err != nil {
		errutil.LogError(s.logger, "cleaning up expired tokens", err)
	}

	club, err := s.clubs.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code(CodeClubNotFound).
				With("club_id", clubID).
				Errorf("club does not exist")
		}
		return "", oops.Code(CodeStorageFailed).
			With("operation", "get club").
			Wrap(err)
	}

	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}

	value, err := GenerateToken()
	if err != nil {
		return "", oops.Code(CodeStorageFailed).
			With("operation", "generate invite token").
			Wrap(err)
	}

	if _, err := s.tokens.Create(ctx, &Token{
		Value:     value,
		Kind:      TokenKindRegistrationInvite,
		ClubID:    &club.ID,
		Language:  club.Language,
		ExpiresAt: time.Now().Add(ttl),
	}); err != nil {
		return "", oops.Code(CodeStorageFailed).
			With("operation", "store invite token").
			Wrap(err)
	}

	return value, nil
}

// ValidateInvite checks an invitation token and returns the club it
// admits into. The club id comes from the token row itself, never from
// anything client-supplied.
func (s *RegistrationService) ValidateInvite(ctx context.Context, value string) (int64, error) {
	token, err := s.getInviteToken(ctx, value)
	if err != nil {
		return 0, err
	}
	return *token.ClubID, nil
}

// CompleteRegistration turns a valid invitation into a real user.
//
// The token is revalidated at the instant of completion - it may have
// expired between page load and submit. Consuming the token and creating
// the user happen in one transaction: a duplicate email rolls the
// mark-used back, and of two racing submissions only one creates a user
// while the other fails with AUTH_TOKEN_USED.
func (s *RegistrationService) CompleteRegistration(ctx context.Context, value, email, password string) (int64, error) {
	if err := ValidateEmail(email); err != nil {
		return 0, err
	}
	if err := ValidatePassword(password); err != nil {
		return 0, err
	}

	token, err := s.getInviteToken(ctx, value)
	if err != nil {
		return 0, err
	}

	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return 0, oops.Code(CodeStorageFailed).
			With("operation", "hash password").
			Wrap(err)
	}

	var userID int64
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.tokens.MarkUsed(ctx, value, time.Now()); err != nil {
			if errors.Is(err, ErrNotFound) {
				return oops.Code(CodeTokenUsed).Errorf("registration token has already been used")
			}
			return oops.Code(CodeStorageFailed).
				With("operation", "mark token used").
				Wrap(err)
		}

		id, err := s.users.Create(ctx, &User{
			ClubID:       token.ClubID,
			Email:        email,
			PasswordHash: hash,
			Salt:         salt,
		})
		if err != nil {
			return err
		}
		userID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	return userID, nil
}

// CleanupExpired removes expired unused tokens and consumed tokens past
// the retention window, returning the number of rows removed. Safe to
// run before any token operation and on a schedule: a token mid-
// completion is either already marked used or not yet expired, so the
// expiry and used_at predicates can never race a live consumption.
func (s *RegistrationService) CleanupExpired(ctx context.Context) (int64, error) {
	now := time.Now()

	expired, err := s.tokens.DeleteExpired(ctx, now)
	if err != nil {
		return 0, oops.Code(CodeStorageFailed).
			With("operation", "delete expired tokens").
			Wrap(err)
	}

	spent, err := s.tokens.DeleteUsedBefore(ctx, now.Add(-UsedTokenRetention))
	if err != nil {
		return expired, oops.Code(CodeStorageFailed).
			With("operation", "delete spent tokens").
			Wrap(err)
	}

	return expired + spent, nil
}

// getInviteToken fetches a token and checks that it is a currently
// valid registration invitation.
func (s *RegistrationService) getInviteToken(ctx context.Context, value string) (*Token, error) {
	token, err := s.tokens.GetByValue(ctx, value)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeTokenInvalid).Errorf("invalid or expired registration token")
		}
		return nil, oops.Code(CodeStorageFailed).
			With("operation", "get invite token").
			Wrap(err)
	}
	if token.Kind != TokenKindRegistrationInvite || token.ClubID == nil {
		return nil, oops.Code(CodeTokenInvalid).Errorf("invalid or expired registration token")
	}

	switch token.StatusAt(time.Now()) {
	case TokenUsed:
		return nil, oops.Code(CodeTokenUsed).Errorf("registration token has already been used")
	case TokenExpired:
		return nil, oops.Code(CodeTokenInvalid).Errorf("invalid or expired registration token")
	}
	return token, nil
}
