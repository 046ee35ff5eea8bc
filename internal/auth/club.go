// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package auth

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// Supported club languages.
const (
	LanguageDutch   = "nl"
	LanguageEnglish = "en"

	// DefaultLanguage is the fallback when no locale is known.
	DefaultLanguage = LanguageDutch
)

// ValidateLanguage checks that lang is one of the supported locales.
func ValidateLanguage(lang string) error {
	if lang != LanguageDutch && lang != LanguageEnglish {
		return oops.Code("AUTH_INVALID_LANGUAGE").
			With("language", lang).
			Errorf("language must be %q or %q", LanguageDutch, LanguageEnglish)
	}
	return nil
}

// Club is a fitness club tenant. Immutable after creation.
type Club struct {
	ID           int64
	Name         string
	SystemPrefix string
	Language     string
	CreatedAt    time.Time
}

// ClubRepository manages club persistence.
type ClubRepository interface {
	// Create stores a new club and returns its id. Returns an error
	// carrying CodeClubExists if the name is already taken.
	Create(ctx context.Context, club *Club) (int64, error)

	// GetByID retrieves a club by id.
	GetByID(ctx context.Context, id int64) (*Club, error)

	// GetByName retrieves a club by its unique name.
	GetByName(ctx context.Context, name string) (*Club, error)

	// List returns all clubs ordered by id.
	List(ctx context.Context) ([]*Club, error)
}
