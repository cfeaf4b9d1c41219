// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"github.com/oklog/ulid/v2"

	"github.com/holomush/storefront/internal/apperr"
)

// Caller is the identity a request acts as. It is passed explicitly into
// every operation; the zero value is an anonymous caller.
type Caller struct {
	UserID      ulid.ULID
	Permissions []Permission
}

// Anonymous returns a caller with no session.
func Anonymous() Caller {
	return Caller{}
}

// Authenticated returns a caller for the given user.
func Authenticated(userID ulid.ULID, perms ...Permission) Caller {
	return Caller{UserID: userID, Permissions: perms}
}

// IsAuthenticated reports whether the caller carries a session.
func (c Caller) IsAuthenticated() bool {
	return c.UserID.Compare(ulid.ULID{}) != 0
}

// RequireAuthenticated fails with Unauthenticated for anonymous callers.
func RequireAuthenticated(c Caller) (ulid.ULID, error) {
	if !c.IsAuthenticated() {
		return ulid.ULID{}, apperr.Unauthenticated()
	}
	return c.UserID, nil
}

// RequireAnonymous fails with AlreadyAuthenticated for callers with a session.
func RequireAnonymous(c Caller) error {
	if c.IsAuthenticated() {
		return apperr.AlreadyAuthenticated()
	}
	return nil
}

// RequireAnyPermission fails with Unauthorized unless the caller holds one of perms.
func RequireAnyPermission(c Caller, perms ...Permission) error {
	u := User{Permissions: c.Permissions}
	if u.HasAnyPermission(perms...) {
		return nil
	}
	required := make([]string, len(perms))
	for i, p := range perms {
		required[i] = string(p)
	}
	return apperr.Unauthorized(required)
}
