// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/teambee/teambee/internal/auth"
)

// TokenRepository implements auth.TokenRepository using PostgreSQL.
type TokenRepository struct {
	db DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores a new token and returns its id.
func (r *TokenRepository) Create(ctx context.Context, token *auth.Token) (int64, error) {
	var id int64
	err := querier(ctx, r.db).QueryRow(ctx, `
		INSERT INTO tokens (token, kind, user_id, club_id, language, expires_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING token_id
	`, token.Value, string(token.Kind), token.UserID, token.ClubID, token.Language, token.ExpiresAt).Scan(&id)
	if err != nil {
		return 0, oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "insert token").
			With("kind", string(token.Kind)).
			Wrap(err)
	}
	return id, nil
}

// GetByValue retrieves a token by its secret value.
func (r *TokenRepository) GetByValue(ctx context.Context, value string) (*auth.Token, error) {
	row := querier(ctx, r.db).QueryRow(ctx, `
		SELECT token_id, token, kind, user_id, club_id, language, expires_at, used_at, created_at
		FROM tokens
		WHERE token = $1
	`, value)

	var (
		token    auth.Token
		kind     string
		language *string
	)
	err := row.Scan(
		&token.ID,
		&token.Value,
		&kind,
		&token.UserID,
		&token.ClubID,
		&language,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_GET_FAILED").
			With("operation", "get token by value").
			Wrap(err)
	}

	token.Kind = auth.TokenKind(kind)
	if language != nil {
		token.Language = *language
	}
	return &token, nil
}

// MarkUsed consumes the token with a conditional update. Only a row
// that is still unused and unexpired at usedAt qualifies; of two racing
// consumers exactly one sees the row, the other gets ErrNotFound.
func (r *TokenRepository) MarkUsed(ctx context.Context, value string, usedAt time.Time) error {
	result, err := querier(ctx, r.db).Exec(ctx, `
		UPDATE tokens
		SET used_at = $2
		WHERE token = $1
		  AND used_at IS NULL
		  AND expires_at >= $2
	`, value, usedAt)
	if err != nil {
		return oops.Code("TOKEN_MARK_USED_FAILED").
			With("operation", "mark token used").
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TOKEN_SPENT").Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes unused tokens whose expiry is past.
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := querier(ctx, r.db).Exec(ctx, `
		DELETE FROM tokens
		WHERE used_at IS NULL
		  AND expires_at < $1
	`, now)
	if err != nil {
		return 0, oops.Code("TOKEN_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired tokens").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteUsedBefore removes consumed tokens older than the cutoff.
func (r *TokenRepository) DeleteUsedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := querier(ctx, r.db).Exec(ctx, `
		DELETE FROM tokens
		WHERE used_at IS NOT NULL
		  AND used_at < $1
	`, cutoff)
	if err != nil {
		return 0, oops.Code("TOKEN_DELETE_USED_FAILED").
			With("operation", "delete spent tokens").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// Compile-time interface check.
var _ auth.TokenRepository = (*TokenRepository)(nil)
