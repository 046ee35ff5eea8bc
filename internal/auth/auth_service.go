// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/teambee/teambee/pkg/errutil"
)

// Service provides authentication and session operations.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewService creates a new Service.
func NewService(users UserRepository, sessions SessionRepository, hasher PasswordHasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
	}
}

// dummyPasswordHash is verified against when a user doesn't exist, so
// response time stays flat for unknown emails. This is NOT a real
// credential - it can never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Authenticate verifies an email/password pair.
//
// Unknown email and wrong password produce the same
// AUTH_INVALID_CREDENTIALS error. A locked account is rejected before the
// password is checked and without touching the failure counter. On the
// Nth consecutive failure (N = LockoutThreshold) the account locks for
// LockoutDuration. Success resets the counter, clears any lockout and
// stamps last_login.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Profile, error) {
	user, clubName, lookupErr := s.users.GetWithClubName(ctx, email)
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code(CodeStorageFailed).
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
		// Verify against a dummy hash anyway to keep timing flat.
		_, _ = s.hasher.Verify(password, dummyPasswordHash, "") //nolint:errcheck // result is never used
		return nil, oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
	}

	if user.IsLocked() {
		return nil, oops.Code(CodeAccountLocked).
			With("locked_until", user.LockedUntil).
			Errorf("account is temporarily locked")
	}

	valid, verifyErr := s.hasher.Verify(password, user.PasswordHash, user.Salt)
	if verifyErr != nil {
		return nil, oops.Code(CodeStorageFailed).
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !valid {
		lockAt := time.Now().Add(LockoutDuration)
		attempts, lockedUntil, err := s.users.RecordFailure(ctx, user.ID, LockoutThreshold, lockAt)
		if err != nil {
			errutil.LogError(s.logger, "recording login failure", err)
		} else if lockedUntil != nil {
			s.logger.Warn("account locked after repeated failures",
				"user_id", user.ID,
				"attempts", attempts,
				"locked_until", lockedUntil,
			)
		}
		return nil, oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
	}

	// Re-hash legacy credentials with the current scheme while the
	// plaintext is at hand.
	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		if hash, salt, err := s.hasher.Hash(password); err == nil {
			if err := s.users.UpdateCredentials(ctx, user.ID, hash, salt); err != nil {
				errutil.LogError(s.logger, "upgrading password hash", err)
			}
		}
	}

	if err := s.users.RecordSuccess(ctx, user.ID, time.Now()); err != nil {
		return nil, oops.Code(CodeStorageFailed).
			With("operation", "record login success").
			Wrap(err)
	}

	return &Profile{
		UserID:   user.ID,
		ClubID:   user.ClubID,
		Email:    user.Email,
		ClubName: clubName,
	}, nil
}

// Login authenticates the user and creates a web session.
// Returns the profile, session and plaintext session token.
func (s *Service) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*Profile, *Session, string, error) {
	profile, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, "", err
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, nil, "", oops.Code(CodeStorageFailed).
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(profile.UserID, tokenHash, userAgent, ipAddress, time.Now().Add(SessionTokenExpiry))
	if err != nil {
		return nil, nil, "", oops.Code(CodeStorageFailed).
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, "", oops.Code(CodeStorageFailed).
			With("operation", "persist session").
			Wrap(err)
	}

	return profile, session, token, nil
}

// Logout invalidates a web session.
func (s *Service) Logout(ctx context.Context, sessionID ulid.ULID) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("SESSION_NOT_FOUND").
				With("session_id", sessionID.String()).
				Wrap(err)
		}
		return oops.Code(CodeStorageFailed).
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// ValidateSession resolves a session token to the owning user's profile.
// Also bumps the session's LastSeenAt, best effort.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Profile, *Session, error) {
	if token == "" {
		return nil, nil, oops.Code("SESSION_INVALID").Errorf("session token cannot be empty")
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, oops.Code("SESSION_INVALID").Errorf("invalid session token")
		}
		return nil, nil, oops.Code(CodeStorageFailed).
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpired() {
		return nil, nil, oops.Code("SESSION_EXPIRED").Errorf("session has expired")
	}

	profile, err := s.users.GetProfile(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Account deleted since login; the session is orphaned.
			return nil, nil, oops.Code("SESSION_INVALID").Errorf("invalid session token")
		}
		return nil, nil, oops.Code(CodeStorageFailed).
			With("operation", "get profile for session").
			Wrap(err)
	}

	_ = s.sessions.UpdateLastSeen(ctx, session.ID, time.Now()) //nolint:errcheck // Best effort, validation succeeds regardless

	return profile, session, nil
}
