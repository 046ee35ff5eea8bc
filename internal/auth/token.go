// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/samber/oops"
)

// TokenKind discriminates what a token authorizes.
type TokenKind string

// Token kinds.
const (
	TokenKindPasswordReset      TokenKind = "password_reset"
	TokenKindRegistrationInvite TokenKind = "registration_invite"
)

// Token lifetimes.
const (
	// TokenBytes is the entropy of a token value; 32 bytes encode to 43
	// URL-safe characters.
	TokenBytes = 32

	// ResetTokenTTL is the lifetime of a password reset token.
	ResetTokenTTL = time.Hour

	// DefaultInviteTTL is the default lifetime of a registration
	// invitation token.
	DefaultInviteTTL = 24 * time.Hour

	// UsedTokenRetention is how long consumed tokens are kept before
	// cleanup removes them. Retention cap, not correctness-critical.
	UsedTokenRetention = 7 * 24 * time.Hour
)

// TokenStatus is the lifecycle state of a token at a point in time.
type TokenStatus string

// Token states. Pending can move to Used or Expired; both are terminal.
const (
	TokenPending TokenStatus = "pending"
	TokenUsed    TokenStatus = "used"
	TokenExpired TokenStatus = "expired"
)

// Token is a single-use, time-limited secret granting one follow-up
// action. Password reset tokens reference the user whose password they
// reset; registration invites carry the club they admit into. The kind
// tag replaces the placeholder-user encoding of the original schema.
type Token struct {
	ID        int64
	Value     string
	Kind      TokenKind
	UserID    *int64 // set for password resets
	ClubID    *int64 // set for registration invites
	Language  string // locale for rendering reset UI and mails, may be empty
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// StatusAt returns the token state at the given instant. Status is a
// pure function of used_at and the clock; it is never cached.
func (t *Token) StatusAt(now time.Time) TokenStatus {
	if t.UsedAt != nil {
		return TokenUsed
	}
	if now.After(t.ExpiresAt) {
		return TokenExpired
	}
	return TokenPending
}

// IsValidAt returns true if the token is unused and unexpired at the
// given instant. Expiry is inclusive: a token expiring exactly now is
// still valid.
func (t *Token) IsValidAt(now time.Time) bool {
	return t.StatusAt(now) == TokenPending
}

// GenerateToken creates a cryptographically random URL-safe token value.
func GenerateToken() (string, error) {
	raw := make([]byte, TokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", oops.Code("AUTH_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// TokenRepository manages token persistence.
type TokenRepository interface {
	// Create stores a new token and returns its id.
	Create(ctx context.Context, token *Token) (int64, error)

	// GetByValue retrieves a token by its secret value.
	GetByValue(ctx context.Context, value string) (*Token, error)

	// MarkUsed consumes the token with a conditional update: the row is
	// stamped only while still unused and unexpired. Returns ErrNotFound
	// (wrapped) when no row qualified, which a caller holding a
	// just-validated token must treat as a lost race.
	MarkUsed(ctx context.Context, value string, usedAt time.Time) error

	// DeleteExpired removes unused tokens whose expiry is past and
	// returns the count.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// DeleteUsedBefore removes consumed tokens older than the cutoff and
	// returns the count.
	DeleteUsedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
