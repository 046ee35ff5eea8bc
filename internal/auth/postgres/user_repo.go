// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/teambee/teambee/internal/auth"
)

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `user_id, club_id, email, password_hash, salt,
	       failed_login_attempts, account_locked_until, last_login, created_at`

// Create stores a new user and returns its id.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) (int64, error) {
	var id int64
	err := querier(ctx, r.db).QueryRow(ctx, `
		INSERT INTO users (club_id, email, password_hash, salt)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id
	`, user.ClubID, user.Email, user.PasswordHash, user.Salt).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, oops.Code(auth.CodeUserExists).
				With("email", user.Email).
				Errorf("user with this email already exists")
		}
		return 0, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}
	return id, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	row := querier(ctx, r.db).QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE user_id = $1
	`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("user_id", id).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by exact email match.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := querier(ctx, r.db).QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// GetWithClubName retrieves a user together with the joined club name.
func (r *UserRepository) GetWithClubName(ctx context.Context, email string) (*auth.User, *string, error) {
	row := querier(ctx, r.db).QueryRow(ctx, `
		SELECT u.user_id, u.club_id, u.email, u.password_hash, u.salt,
		       u.failed_login_attempts, u.account_locked_until, u.last_login, u.created_at,
		       c.name
		FROM users u
		LEFT JOIN clubs c ON u.club_id = c.club_id
		WHERE u.email = $1
	`, email)

	var (
		user     auth.User
		clubName *string
	)
	err := row.Scan(
		&user.ID,
		&user.ClubID,
		&user.Email,
		&user.PasswordHash,
		&user.Salt,
		&user.FailedAttempts,
		&user.LockedUntil,
		&user.LastLogin,
		&user.CreatedAt,
		&clubName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, nil, oops.Code("USER_GET_FOR_LOGIN_FAILED").
			With("operation", "get user with club name").
			Wrap(err)
	}
	return &user, clubName, nil
}

// GetProfile retrieves the public profile for a user id.
func (r *UserRepository) GetProfile(ctx context.Context, id int64) (*auth.Profile, error) {
	row := querier(ctx, r.db).QueryRow(ctx, `
		SELECT u.user_id, u.club_id, u.email, c.name
		FROM users u
		LEFT JOIN clubs c ON u.club_id = c.club_id
		WHERE u.user_id = $1
	`, id)

	var profile auth.Profile
	err := row.Scan(&profile.UserID, &profile.ClubID, &profile.Email, &profile.ClubName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_PROFILE_FAILED").
			With("operation", "get profile").
			With("user_id", id).
			Wrap(err)
	}
	return &profile, nil
}

// RecordFailure atomically increments the failure counter and applies
// the lockout timestamp when the new count reaches the threshold. The
// single UPDATE makes racing failures safe: the counter can undercount
// under extreme contention but can never skip past the threshold.
func (r *UserRepository) RecordFailure(ctx context.Context, id int64, threshold int, lockedUntil time.Time) (int, *time.Time, error) {
	row := querier(ctx, r.db).QueryRow(ctx, `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    account_locked_until = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN $3
		        ELSE account_locked_until
		    END
		WHERE user_id = $1
		RETURNING failed_login_attempts, account_locked_until
	`, id, threshold, lockedUntil)

	var (
		attempts int
		lockout  *time.Time
	)
	err := row.Scan(&attempts, &lockout)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, oops.Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return 0, nil, oops.Code("USER_RECORD_FAILURE_FAILED").
			With("operation", "record login failure").
			With("user_id", id).
			Wrap(err)
	}
	return attempts, lockout, nil
}

// RecordSuccess resets the failure counter, clears the lockout and
// stamps last_login.
func (r *UserRepository) RecordSuccess(ctx context.Context, id int64, loginAt time.Time) error {
	result, err := querier(ctx, r.db).Exec(ctx, `
		UPDATE users
		SET failed_login_attempts = 0,
		    account_locked_until = NULL,
		    last_login = $2
		WHERE user_id = $1
	`, id, loginAt)
	if err != nil {
		return oops.Code("USER_RECORD_SUCCESS_FAILED").
			With("operation", "record login success").
			With("user_id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateCredentials replaces the credential material and clears lockout
// state in the same statement.
func (r *UserRepository) UpdateCredentials(ctx context.Context, id int64, hash, salt string) error {
	result, err := querier(ctx, r.db).Exec(ctx, `
		UPDATE users
		SET password_hash = $2,
		    salt = $3,
		    failed_login_attempts = 0,
		    account_locked_until = NULL
		WHERE user_id = $1
	`, id, hash, salt)
	if err != nil {
		return oops.Code("USER_UPDATE_CREDENTIALS_FAILED").
			With("operation", "update credentials").
			With("user_id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// List returns all users with club information ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]auth.UserSummary, error) {
	rows, err := querier(ctx, r.db).Query(ctx, `
		SELECT u.user_id, u.email, u.club_id, c.name, u.last_login, u.created_at
		FROM users u
		LEFT JOIN clubs c ON u.club_id = c.club_id
		ORDER BY u.user_id ASC
	`)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "list users").
			Wrap(err)
	}
	defer rows.Close()

	var users []auth.UserSummary
	for rows.Next() {
		var s auth.UserSummary
		if err := rows.Scan(&s.UserID, &s.Email, &s.ClubID, &s.ClubName, &s.LastLogin, &s.CreatedAt); err != nil {
			return nil, oops.Code("USER_LIST_FAILED").
				With("operation", "scan user row").
				Wrap(err)
		}
		users = append(users, s)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "iterate users").
			Wrap(err)
	}
	return users, nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := querier(ctx, r.db).Exec(ctx, `
		DELETE FROM users WHERE user_id = $1
	`, id)
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").
			With("operation", "delete user").
			With("user_id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser scans a single row into a User.
// Callers are responsible for handling pgx.ErrNoRows.
func scanUser(row pgx.Row) (*auth.User, error) {
	var user auth.User
	err := row.Scan(
		&user.ID,
		&user.ClubID,
		&user.Email,
		&user.PasswordHash,
		&user.Salt,
		&user.FailedAttempts,
		&user.LockedUntil,
		&user.LastLogin,
		&user.CreatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to wrap with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}
	return &user, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
