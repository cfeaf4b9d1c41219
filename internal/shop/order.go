// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package shop

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Order is an immutable record of a paid checkout. Total is the amount the
// gateway confirmed.
type Order struct {
	ID        ulid.ULID   `json:"id"`
	UserID    ulid.ULID   `json:"-"`
	Total     int64       `json:"total"`
	Currency  string      `json:"currency"`
	ChargeID  string      `json:"charge"`
	CreatedAt time.Time   `json:"createdAt"`
	Items     []OrderItem `json:"items"`
}

// OrderItem snapshots a cart line at checkout time.
type OrderItem struct {
	ID          ulid.ULID `json:"id"`
	OrderID     ulid.ULID `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
}

// OrderRepository persists orders.
type OrderRepository interface {
	// Create inserts the order and all its items.
	Create(ctx context.Context, order *Order) error
	// ListByUser returns the user's orders, newest first, with their items.
	ListByUser(ctx context.Context, userID ulid.ULID) ([]Order, error)
	// Get returns one of the user's orders with its items.
	Get(ctx context.Context, userID, orderID ulid.ULID) (*Order, error)
}
