// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/storefront/internal/shop"
	"github.com/holomush/storefront/internal/store"
)

const (
	cartItemFK     = "cart_items_item_id_fkey"
	cartLineSelect = `SELECT line.id, line.user_id, line.quantity, ` + itemColumns + `
		FROM line JOIN items i ON i.id = line.item_id`
)

// CartRepository implements shop.CartRepository using PostgreSQL.
type CartRepository struct {
	db store.Querier
}

// NewCartRepository creates a new CartRepository.
func NewCartRepository(db store.Querier) *CartRepository {
	return &CartRepository{db: db}
}

// Add inserts a line or increments an existing one in a single upsert.
func (r *CartRepository) Add(ctx context.Context, userID, itemID, newID ulid.ULID) (*shop.CartItem, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `
		WITH line AS (
			INSERT INTO cart_items (id, user_id, item_id, quantity)
			VALUES ($1, $2, $3, 1)
			ON CONFLICT ON CONSTRAINT cart_items_user_item_key
			DO UPDATE SET quantity = cart_items.quantity + 1
			RETURNING id, user_id, item_id, quantity
		)
		`+cartLineSelect,
		newID.String(), userID.String(), itemID.String())

	line, err := scanCartItem(row)
	if store.IsForeignKeyViolation(err, cartItemFK) {
		return nil, oops.Code("ITEM_NOT_FOUND").With("item_id", itemID.String()).Wrap(shop.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CART_UPSERT_FAILED").
			With("operation", "upsert cart item").
			With("user_id", userID.String()).
			With("item_id", itemID.String()).
			Wrap(err)
	}
	return line, nil
}

// Remove deletes one of the user's lines.
func (r *CartRepository) Remove(ctx context.Context, userID, cartItemID ulid.ULID) (*shop.CartItem, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `
		WITH line AS (
			DELETE FROM cart_items WHERE id = $1 AND user_id = $2
			RETURNING id, user_id, item_id, quantity
		)
		`+cartLineSelect,
		cartItemID.String(), userID.String())

	line, err := scanCartItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CART_ITEM_NOT_FOUND").With("id", cartItemID.String()).Wrap(shop.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CART_DELETE_FAILED").With("id", cartItemID.String()).Wrap(err)
	}
	return line, nil
}

// ListByUser returns the user's lines in the order they were added.
func (r *CartRepository) ListByUser(ctx context.Context, userID ulid.ULID) ([]shop.CartItem, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx, `
		SELECT c.id, c.user_id, c.quantity, `+itemColumns+`
		FROM cart_items c JOIN items i ON i.id = c.item_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id
	`, userID.String())
	if err != nil {
		return nil, oops.Code("CART_LIST_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	defer rows.Close()

	lines := []shop.CartItem{}
	for rows.Next() {
		line, err := scanCartItem(rows)
		if err != nil {
			return nil, oops.Code("CART_SCAN_FAILED").With("user_id", userID.String()).Wrap(err)
		}
		lines = append(lines, *line)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CART_LIST_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return lines, nil
}

// DeleteMany removes the listed lines of the user.
func (r *CartRepository) DeleteMany(ctx context.Context, userID ulid.ULID, ids []ulid.ULID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := store.Conn(ctx, r.db).Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND id = ANY($2)`,
		userID.String(), idStrings(ids))
	if err != nil {
		return 0, oops.Code("CART_CLEAR_FAILED").
			With("user_id", userID.String()).
			With("count", len(ids)).
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

func scanCartItem(row pgx.Row) (*shop.CartItem, error) {
	var line shop.CartItem
	dest := append([]any{&ulidScanner{&line.ID}, &ulidScanner{&line.UserID}, &line.Quantity}, itemDest(&line.Item)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err //nolint:wrapcheck // callers classify and wrap
	}
	return &line, nil
}

func idStrings(ids []ulid.ULID) []string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return s
}

var _ shop.CartRepository = (*CartRepository)(nil)
