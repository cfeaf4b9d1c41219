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
	orderColumns     = `id, user_id, total, currency, charge_id, created_at`
	orderItemColumns = `id, order_id, title, description, image_url, price, quantity`
)

// OrderRepository implements shop.OrderRepository using PostgreSQL.
type OrderRepository struct {
	db store.Querier
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db store.Querier) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and bulk inserts its items. Callers run it inside
// a transaction so both land or neither does.
func (r *OrderRepository) Create(ctx context.Context, order *shop.Order) error {
	conn := store.Conn(ctx, r.db)
	_, err := conn.Exec(ctx, `
		INSERT INTO orders (id, user_id, total, currency, charge_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		order.ID.String(),
		order.UserID.String(),
		order.Total,
		order.Currency,
		order.ChargeID,
		order.CreatedAt,
	)
	if err != nil {
		return oops.Code("ORDER_INSERT_FAILED").
			With("operation", "insert order").
			With("charge_id", order.ChargeID).
			Wrap(err)
	}
	if len(order.Items) == 0 {
		return nil
	}

	n := len(order.Items)
	var (
		ids        = make([]string, n)
		orderIDs   = make([]string, n)
		titles     = make([]string, n)
		descs      = make([]string, n)
		images     = make([]string, n)
		prices     = make([]int64, n)
		quantities = make([]int32, n)
	)
	for i, it := range order.Items {
		ids[i] = it.ID.String()
		orderIDs[i] = order.ID.String()
		titles[i] = it.Title
		descs[i] = it.Description
		images[i] = it.ImageURL
		prices[i] = it.Price
		quantities[i] = int32(it.Quantity) //nolint:gosec // cart quantities are small positive integers
	}
	_, err = conn.Exec(ctx, `
		INSERT INTO order_items (`+orderItemColumns+`)
		SELECT * FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::bigint[], $7::int[])
	`, ids, orderIDs, titles, descs, images, prices, quantities)
	if err != nil {
		return oops.Code("ORDER_ITEMS_INSERT_FAILED").
			With("operation", "insert order items").
			With("order_id", order.ID.String()).
			With("count", n).
			Wrap(err)
	}
	return nil
}

// ListByUser returns the user's orders, newest first, with their items.
func (r *OrderRepository) ListByUser(ctx context.Context, userID ulid.ULID) ([]shop.Order, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID.String())
	if err != nil {
		return nil, oops.Code("ORDER_LIST_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (shop.Order, error) {
		o, err := scanOrder(row)
		if err != nil {
			return shop.Order{}, err
		}
		return *o, nil
	})
	if err != nil {
		return nil, oops.Code("ORDER_SCAN_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID.String()
	}
	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsOrEmpty(items[orders[i].ID])
	}
	return orders, nil
}

// Get returns one of the user's orders.
func (r *OrderRepository) Get(ctx context.Context, userID, orderID ulid.ULID) (*shop.Order, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`,
		orderID.String(), userID.String())

	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ORDER_NOT_FOUND").With("id", orderID.String()).Wrap(shop.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ORDER_GET_FAILED").With("id", orderID.String()).Wrap(err)
	}

	items, err := r.itemsFor(ctx, []string{orderID.String()})
	if err != nil {
		return nil, err
	}
	order.Items = itemsOrEmpty(items[order.ID])
	return order, nil
}

func (r *OrderRepository) itemsFor(ctx context.Context, orderIDs []string) (map[ulid.ULID][]shop.OrderItem, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`,
		orderIDs)
	if err != nil {
		return nil, oops.Code("ORDER_ITEMS_LIST_FAILED").With("orders", len(orderIDs)).Wrap(err)
	}
	defer rows.Close()

	byOrder := make(map[ulid.ULID][]shop.OrderItem, len(orderIDs))
	for rows.Next() {
		var it shop.OrderItem
		if err := rows.Scan(
			&ulidScanner{&it.ID},
			&ulidScanner{&it.OrderID},
			&it.Title,
			&it.Description,
			&it.ImageURL,
			&it.Price,
			&it.Quantity,
		); err != nil {
			return nil, oops.Code("ORDER_ITEMS_SCAN_FAILED").Wrap(err)
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ORDER_ITEMS_LIST_FAILED").With("orders", len(orderIDs)).Wrap(err)
	}
	return byOrder, nil
}

func scanOrder(row pgx.Row) (*shop.Order, error) {
	var o shop.Order
	if err := row.Scan(
		&ulidScanner{&o.ID},
		&ulidScanner{&o.UserID},
		&o.Total,
		&o.Currency,
		&o.ChargeID,
		&o.CreatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers classify and wrap
	}
	return &o, nil
}

func itemsOrEmpty(items []shop.OrderItem) []shop.OrderItem {
	if items == nil {
		return []shop.OrderItem{}
	}
	return items
}

var _ shop.OrderRepository = (*OrderRepository)(nil)
