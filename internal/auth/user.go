// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/samber/oops"
)

// emailRegex is a deliberately loose shape check. Deliverability is
// proven by the reset/invitation mails, not by the pattern.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User is a Teambee account. A nil ClubID marks a platform
// administrator; club members always carry their club's id.
type User struct {
	ID             int64
	ClubID         *int64
	Email          string
	PasswordHash   string
	Salt           string
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
	CreatedAt      time.Time
}

// IsAdmin returns true for platform administrators.
func (u *User) IsAdmin() bool {
	return u.ClubID == nil
}

// IsLocked returns true if the account is currently locked out.
func (u *User) IsLocked() bool {
	return IsLockedOut(u.LockedUntil)
}

// Profile is the public view of an authenticated user, safe to hand to
// the session store and UI.
type Profile struct {
	UserID   int64
	ClubID   *int64
	Email    string
	ClubName *string
}

// IsAdmin returns true for platform administrators.
func (p Profile) IsAdmin() bool {
	return p.ClubID == nil
}

// ValidateEmail validates an email address shape.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("email", email).
			Errorf("email address is not valid")
	}
	return nil
}

// UserSummary is one row of the administrative user listing.
type UserSummary struct {
	UserID    int64
	Email     string
	ClubID    *int64
	ClubName  *string
	LastLogin *time.Time
	CreatedAt time.Time
}

// IsAdmin returns true for platform administrators.
func (s UserSummary) IsAdmin() bool {
	return s.ClubID == nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user and returns its id. Returns an error
	// carrying CodeUserExists if the email is already taken.
	Create(ctx context.Context, user *User) (int64, error)

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by exact email match.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetWithClubName retrieves a user by exact email match together
	// with the joined club name (nil for administrators).
	GetWithClubName(ctx context.Context, email string) (*User, *string, error)

	// GetProfile retrieves the public profile for a user id.
	GetProfile(ctx context.Context, id int64) (*Profile, error)

	// RecordFailure atomically increments the failed-attempt counter
	// and, when the new count reaches threshold, sets the lockout
	// timestamp. Returns the new count and lockout state. The increment
	// and check happen in a single statement so racing failures cannot
	// skip past the threshold.
	RecordFailure(ctx context.Context, id int64, threshold int, lockedUntil time.Time) (int, *time.Time, error)

	// RecordSuccess resets the failure counter, clears any lockout and
	// stamps last_login.
	RecordSuccess(ctx context.Context, id int64, loginAt time.Time) error

	// UpdateCredentials replaces the credential material and clears
	// lockout state.
	UpdateCredentials(ctx context.Context, id int64, hash, salt string) error

	// List returns all users with club information, newest id last.
	List(ctx context.Context) ([]UserSummary, error)

	// Delete removes a user.
	Delete(ctx context.Context, id int64) error
}
