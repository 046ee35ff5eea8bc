// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package auth

import (
	"time"
)

// Lockout policy.
const (
	// LockoutThreshold is the number of consecutive failed logins that
	// locks an account.
	LockoutThreshold = 10

	// LockoutDuration is how long an account stays locked once the
	// threshold is reached.
	LockoutDuration = 30 * time.Minute
)

// IsLockedOut returns true if the lockout time is in the future.
func IsLockedOut(lockedUntil *time.Time) bool {
	return lockedUntil != nil && lockedUntil.After(time.Now())
}

// ComputeLockoutTime returns the lockout timestamp for the given failure
// count, or nil while the count is below the threshold.
func ComputeLockoutTime(failures int) *time.Time {
	if failures < LockoutThreshold {
		return nil
	}
	lockout := time.Now().Add(LockoutDuration)
	return &lockout
}

// ResetOnSuccess returns the values to persist after a successful login:
// zero failed attempts and no lockout.
func ResetOnSuccess() (int, *time.Time) {
	return 0, nil
}
