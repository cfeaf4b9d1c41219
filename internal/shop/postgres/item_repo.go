// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres provides the PostgreSQL implementation of the shop repositories.
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

const itemColumns = `i.id, i.title, i.description, i.image_url, i.price, i.created_by, i.created_at`

// ItemRepository implements shop.ItemRepository using PostgreSQL.
type ItemRepository struct {
	db store.Querier
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(db store.Querier) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create stores a new item.
func (r *ItemRepository) Create(ctx context.Context, item *shop.Item) error {
	_, err := store.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO items (id, title, description, image_url, price, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		item.ID.String(),
		item.Title,
		item.Description,
		item.ImageURL,
		item.Price,
		item.CreatedBy.String(),
		item.CreatedAt,
	)
	if err != nil {
		return oops.Code("ITEM_INSERT_FAILED").
			With("operation", "insert item").
			With("id", item.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an item by ID.
func (r *ItemRepository) GetByID(ctx context.Context, id ulid.ULID) (*shop.Item, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `SELECT `+itemColumns+` FROM items i WHERE i.id = $1`, id.String())

	var item shop.Item
	err := row.Scan(itemDest(&item)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ITEM_NOT_FOUND").With("id", id.String()).Wrap(shop.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ITEM_GET_FAILED").With("id", id.String()).Wrap(err)
	}
	return &item, nil
}

// itemDest returns scan targets for itemColumns.
func itemDest(item *shop.Item) []any {
	return []any{
		&ulidScanner{&item.ID},
		&item.Title,
		&item.Description,
		&item.ImageURL,
		&item.Price,
		&ulidScanner{&item.CreatedBy},
		&item.CreatedAt,
	}
}

// ulidScanner scans a TEXT column into a ULID.
type ulidScanner struct {
	dst *ulid.ULID
}

// Scan implements sql.Scanner.
func (s *ulidScanner) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return oops.Code("ULID_SCAN_FAILED").Errorf("cannot scan %T into ulid", src)
	}
	id, err := ulid.Parse(text)
	if err != nil {
		return oops.Code("ULID_SCAN_FAILED").With("value", text).Wrap(err)
	}
	*s.dst = id
	return nil
}

var _ shop.ItemRepository = (*ItemRepository)(nil)
