// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/teambee/teambee/internal/auth"
)

// ClubRepository implements auth.ClubRepository using PostgreSQL.
type ClubRepository struct {
	db DB
}

// NewClubRepository creates a new ClubRepository.
func NewClubRepository(db DB) *ClubRepository {
	return &ClubRepository{db: db}
}

// Create stores a new club and returns its id.
func (r *ClubRepository) Create(ctx context.Context, club *auth.Club) (int64, error) {
	var id int64
	err := querier(ctx, r.db).QueryRow(ctx, `
		INSERT INTO clubs (name, system_prefix, language)
		VALUES ($1, $2, $3)
		RETURNING club_id
	`, club.Name, club.SystemPrefix, club.Language).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, oops.Code(auth.CodeClubExists).
				With("name", club.Name).
				Errorf("club with this name already exists")
		}
		return 0, oops.Code("CLUB_CREATE_FAILED").
			With("operation", "insert club").
			With("name", club.Name).
			Wrap(err)
	}
	return id, nil
}

// GetByID retrieves a club by id.
func (r *ClubRepository) GetByID(ctx context.Context, id int64) (*auth.Club, error) {
	row := querier(ctx, r.db).QueryRow(ctx, `
		SELECT club_id, name, system_prefix, language, created_at
		FROM clubs
		WHERE club_id = $1
	`, id)

	club, err := scanClub(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CLUB_NOT_FOUND").
			With("club_id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CLUB_GET_BY_ID_FAILED").
			With("operation", "get club by id").
			With("club_id", id).
			Wrap(err)
	}
	return club, nil
}

// GetByName retrieves a club by its unique name.
func (r *ClubRepository) GetByName(ctx context.Context, name string) (*auth.Club, error) {
	row := querier(ctx, r.db).QueryRow(ctx, `
		SELECT club_id, name, system_prefix, language, created_at
		FROM clubs
		WHERE name = $1
	`, name)

	club, err := scanClub(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CLUB_NOT_FOUND").
			With("name", name).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CLUB_GET_BY_NAME_FAILED").
			With("operation", "get club by name").
			With("name", name).
			Wrap(err)
	}
	return club, nil
}

// List returns all clubs ordered by id.
func (r *ClubRepository) List(ctx context.Context) ([]*auth.Club, error) {
	rows, err := querier(ctx, r.db).Query(ctx, `
		SELECT club_id, name, system_prefix, language, created_at
		FROM clubs
		ORDER BY club_id ASC
	`)
	if err != nil {
		return nil, oops.Code("CLUB_LIST_FAILED").
			With("operation", "list clubs").
			Wrap(err)
	}
	defer rows.Close()

	var clubs []*auth.Club
	for rows.Next() {
		var club auth.Club
		if err := rows.Scan(&club.ID, &club.Name, &club.SystemPrefix, &club.Language, &club.CreatedAt); err != nil {
			return nil, oops.Code("CLUB_LIST_FAILED").
				With("operation", "scan club row").
				Wrap(err)
		}
		clubs = append(clubs, &club)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CLUB_LIST_FAILED").
			With("operation", "iterate clubs").
			Wrap(err)
	}
	return clubs, nil
}

// scanClub scans a single row into a Club.
// Callers are responsible for handling pgx.ErrNoRows.
func scanClub(row pgx.Row) (*auth.Club, error) {
	var club auth.Club
	err := row.Scan(&club.ID, &club.Name, &club.SystemPrefix, &club.Language, &club.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("CLUB_SCAN_FAILED").
			With("operation", "scan club").
			Wrap(err)
	}
	return &club, nil
}

// Compile-time interface check.
var _ auth.ClubRepository = (*ClubRepository)(nil)
