// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Permission names a capability granted to a user.
type Permission string

// Known permissions.
const (
	PermissionUser       Permission = "USER"
	PermissionAdmin      Permission = "ADMIN"
	PermissionItemCreate Permission = "ITEMCREATE"
	PermissionItemUpdate Permission = "ITEMUPDATE"
	PermissionItemDelete Permission = "ITEMDELETE"
)

// User represents a storefront account.
type User struct {
	ID           ulid.ULID
	Name         string
	Email        string
	PasswordHash string
	Confirmed    bool
	Permissions  []Permission
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a User with a fresh ID and the default USER permission.
// The email is normalized; the password hash must already be computed.
func NewUser(name, email, passwordHash string, now time.Time) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, oops.Code("USER_INVALID_NAME").Errorf("name cannot be empty")
	}
	if NormalizeEmail(email) == "" {
		return nil, oops.Code("USER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	return &User{
		ID:           ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Permissions:  []Permission{PermissionUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// HasAnyPermission reports whether the user holds at least one of perms.
func (u *User) HasAnyPermission(perms ...Permission) bool {
	for _, p := range perms {
		if slices.Contains(u.Permissions, p) {
			return true
		}
	}
	return false
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TokenKind distinguishes the single-use tokens stored on a user.
type TokenKind string

// Token kinds.
const (
	TokenConfirm TokenKind = "confirm"
	TokenReset   TokenKind = "reset"
)

// TokenEffect is the state change applied together with a successful consume.
type TokenEffect struct {
	// Confirm marks the account confirmed.
	Confirm bool
	// PasswordHash, when set, replaces the stored password hash.
	PasswordHash string
}

// TokenStore persists single-use tokens on user records.
type TokenStore interface {
	// SetToken stores token and expiry for kind, replacing any outstanding token of that kind.
	SetToken(ctx context.Context, userID ulid.ULID, kind TokenKind, token string, expiresAt time.Time) error

	// ConsumeToken atomically applies effect and clears the token pair when a
	// user holds token for kind with an expiry at or after now.
	// Returns ErrNotFound when no such user exists.
	ConsumeToken(ctx context.Context, kind TokenKind, token string, now time.Time, effect TokenEffect) (*User, error)
}

// UserRepository manages user persistence.
type UserRepository interface {
	TokenStore

	// Create stores a new user. Returns ErrEmailTaken when the email is in use.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdatePassword updates only the password hash for a user.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// UpdateEmail changes a user's email. Returns ErrEmailTaken when the email is in use.
	UpdateEmail(ctx context.Context, id ulid.ULID, email string) error
}
