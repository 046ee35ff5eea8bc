// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Error codes used across the auth services. Expected failures carry one
// of these codes; anything else surfacing from a repository is wrapped as
// CodeStorageFailed and treated as unexpected by callers.
const (
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeAccountLocked      = "AUTH_ACCOUNT_LOCKED"
	CodeTokenInvalid       = "AUTH_TOKEN_INVALID"
	CodeTokenUsed          = "AUTH_TOKEN_USED"
	CodePasswordTooShort   = "AUTH_PASSWORD_TOO_SHORT"
	CodeSamePassword       = "AUTH_SAME_PASSWORD"
	CodeClubNotFound       = "AUTH_CLUB_NOT_FOUND"
	CodeClubExists         = "AUTH_CLUB_EXISTS"
	CodeUserExists         = "AUTH_USER_EXISTS"
	CodeEmailFailed        = "AUTH_EMAIL_FAILED"
	CodeStorageFailed      = "AUTH_STORAGE_FAILED"
)
