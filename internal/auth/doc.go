// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

// Package auth owns the credential and token lifecycle for Teambee:
// password hashing and verification, login attempt tracking with account
// lockout, and single-use expiring tokens for password resets and club
// registration invitations.
//
// # Services
//
//   - Service - authentication, sessions, login/logout
//   - AccountService - user and club administration
//   - PasswordResetService - reset token issue and consumption
//   - RegistrationService - club invitation tokens and registration
//
// Repositories are interfaces; PostgreSQL implementations live in the
// postgres subpackage. Operations that must be atomic (consuming a token
// together with the write it authorizes) run inside a Transactor.
package auth
