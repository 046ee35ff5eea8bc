// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// AccountService handles user and club administration.
type AccountService struct {
	users  UserRepository
	clubs  ClubRepository
	hasher PasswordHasher
}

// NewAccountService creates a new AccountService.
func NewAccountService(users UserRepository, clubs ClubRepository, hasher PasswordHasher) *AccountService {
	return &AccountService{
		users:  users,
		clubs:  clubs,
		hasher: hasher,
	}
}

// CreateUser creates a user. A nil clubID creates a platform
// administrator; otherwise the club must exist.
func (s *AccountService) CreateUser(ctx context.Context, email, password string, clubID *int64) (int64, error) {
	if err := ValidateEmail(email); err != nil {
		return 0, err
	}
	if err := ValidatePassword(password); err != nil {
		return 0, err
	}

	if clubID != nil {
		if _, err := s.clubs.GetByID(ctx, *clubID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return 0, oops.Code(CodeClubNotFound).
					With("club_id", *clubID).
					Errorf("club does not exist")
			}
			return 0, oops.Code(CodeStorageFailed).
				With("operation", "get club").
				Wrap(err)
		}
	}

	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return 0, oops.Code(CodeStorageFailed).
			With("operation", "hash password").
			Wrap(err)
	}

	id, err := s.users.Create(ctx, &User{
		ClubID:       clubID,
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CreateAdmin creates a platform administrator (no club).
func (s *AccountService) CreateAdmin(ctx context.Context, email, password string) (int64, error) {
	return s.CreateUser(ctx, email, password, nil)
}

// CreateClub creates a club. The name must be unique and the language
// one of the supported locales.
func (s *AccountService) CreateClub(ctx context.Context, name, systemPrefix, language string) (int64, error) {
	if name == "" {
		return 0, oops.Code("AUTH_INVALID_CLUB").Errorf("club name cannot be empty")
	}
	if err := ValidateLanguage(language); err != nil {
		return 0, err
	}

	id, err := s.clubs.Create(ctx, &Club{
		Name:         name,
		SystemPrefix: systemPrefix,
		Language:     language,
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetClub retrieves a club by id.
func (s *AccountService) GetClub(ctx context.Context, id int64) (*Club, error) {
	club, err := s.clubs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeClubNotFound).
				With("club_id", id).
				Errorf("club does not exist")
		}
		return nil, oops.Code(CodeStorageFailed).
			With("operation", "get club").
			Wrap(err)
	}
	return club, nil
}

// ListClubs returns all clubs.
func (s *AccountService) ListClubs(ctx context.Context) ([]*Club, error) {
	clubs, err := s.clubs.List(ctx)
	if err != nil {
		return nil, oops.Code(CodeStorageFailed).
			With("operation", "list clubs").
			Wrap(err)
	}
	return clubs, nil
}

// ListUsers returns all users with their club information.
func (s *AccountService) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, oops.Code(CodeStorageFailed).
			With("operation", "list users").
			Wrap(err)
	}
	return users, nil
}

// DeleteUser removes a user.
func (s *AccountService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_USER_NOT_FOUND").
				With("user_id", id).
				Wrap(err)
		}
		return oops.Code(CodeStorageFailed).
			With("operation", "delete user").
			Wrap(err)
	}
	return nil
}
