// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres provides the PostgreSQL implementation of the auth repositories.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/storefront/internal/auth"
	"github.com/holomush/storefront/internal/store"
)

const emailConstraint = "users_email_key"

const userColumns = `id, name, email, password_hash, confirmed, permissions, created_at, updated_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	db store.Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db store.Querier) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := store.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, confirmed, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		user.ID.String(),
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Confirmed,
		permissionStrings(user.Permissions),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if store.IsUniqueViolation(err, emailConstraint) {
		return oops.Code("USER_EMAIL_TAKEN").With("email", user.Email).Wrap(auth.ErrEmailTaken)
	}
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			With("email", email).
			Wrap(err)
	}
	return user, nil
}

// UpdatePassword updates only the password hash for a user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	tag, err := store.Conn(ctx, r.db).Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id.String(), passwordHash)
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").With("id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateEmail changes a user's email.
func (r *UserRepository) UpdateEmail(ctx context.Context, id ulid.ULID, email string) error {
	tag, err := store.Conn(ctx, r.db).Exec(ctx,
		`UPDATE users SET email = $2, updated_at = now() WHERE id = $1`,
		id.String(), email)
	if store.IsUniqueViolation(err, emailConstraint) {
		return oops.Code("USER_EMAIL_TAKEN").With("email", email).Wrap(auth.ErrEmailTaken)
	}
	if err != nil {
		return oops.Code("USER_UPDATE_EMAIL_FAILED").With("id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// SetToken stores a token and its expiry, replacing any outstanding token of
// the same kind. Confirmation tokens are only stored for unconfirmed users.
func (r *UserRepository) SetToken(ctx context.Context, userID ulid.ULID, kind auth.TokenKind, token string, expiresAt time.Time) error {
	var sql string
	switch kind {
	case auth.TokenConfirm:
		sql = `UPDATE users SET confirm_token = $2, confirm_token_expiry = $3, updated_at = now()
			WHERE id = $1 AND NOT confirmed`
	case auth.TokenReset:
		sql = `UPDATE users SET reset_token = $2, reset_token_expiry = $3, updated_at = now()
			WHERE id = $1`
	default:
		return oops.Code("TOKEN_INVALID_KIND").With("kind", string(kind)).Errorf("unknown token kind")
	}

	tag, err := store.Conn(ctx, r.db).Exec(ctx, sql, userID.String(), token, expiresAt)
	if err != nil {
		return oops.Code("USER_SET_TOKEN_FAILED").
			With("id", userID.String()).
			With("kind", string(kind)).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", userID.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// ConsumeToken applies effect and clears the token pair in one conditional
// update, so a token can be redeemed at most once.
func (r *UserRepository) ConsumeToken(ctx context.Context, kind auth.TokenKind, token string, now time.Time, effect auth.TokenEffect) (*auth.User, error) {
	var (
		sql  string
		args []any
	)
	switch kind {
	case auth.TokenConfirm:
		sql = `UPDATE users
			SET confirmed = TRUE, confirm_token = NULL, confirm_token_expiry = NULL, updated_at = $2
			WHERE confirm_token = $1 AND confirm_token_expiry >= $2
			RETURNING ` + userColumns
		args = []any{token, now}
	case auth.TokenReset:
		if effect.PasswordHash == "" {
			return nil, oops.Code("TOKEN_EFFECT_INVALID").Errorf("reset requires a password hash")
		}
		sql = `UPDATE users
			SET password_hash = $3, reset_token = NULL, reset_token_expiry = NULL, updated_at = $2
			WHERE reset_token = $1 AND reset_token_expiry >= $2
			RETURNING ` + userColumns
		args = []any{token, now, effect.PasswordHash}
	default:
		return nil, oops.Code("TOKEN_INVALID_KIND").With("kind", string(kind)).Errorf("unknown token kind")
	}

	user, err := scanUser(store.Conn(ctx, r.db).QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").With("kind", string(kind)).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_CONSUME_TOKEN_FAILED").With("kind", string(kind)).Wrap(err)
	}
	return user, nil
}

// GetPermissions returns the permissions held by a user.
func (r *UserRepository) GetPermissions(ctx context.Context, id ulid.ULID) ([]auth.Permission, error) {
	var perms []string
	err := store.Conn(ctx, r.db).QueryRow(ctx, `SELECT permissions FROM users WHERE id = $1`, id.String()).Scan(&perms)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_PERMISSIONS_FAILED").With("id", id.String()).Wrap(err)
	}
	return toPermissions(perms), nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		user  auth.User
		idStr string
		perms []string
	)
	if err := row.Scan(
		&idStr,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Confirmed,
		&perms,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse user id").With("id", idStr).Wrap(err)
	}
	user.ID = id
	user.Permissions = toPermissions(perms)
	return &user, nil
}

func toPermissions(s []string) []auth.Permission {
	perms := make([]auth.Permission, len(s))
	for i, p := range s {
		perms[i] = auth.Permission(p)
	}
	return perms
}

func permissionStrings(perms []auth.Permission) []string {
	s := make([]string, len(perms))
	for i, p := range perms {
		s[i] = string(p)
	}
	return s
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
