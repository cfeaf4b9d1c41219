// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package shop

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// CartItem is one line of a user's cart with the live item it points to.
type CartItem struct {
	ID       ulid.ULID `json:"id"`
	UserID   ulid.ULID `json:"-"`
	Quantity int       `json:"quantity"`
	Item     Item      `json:"item"`
}

// Subtotal is the line price.
func (c CartItem) Subtotal() int64 {
	return c.Item.Price * int64(c.Quantity)
}

// Cart is the caller's cart with its total.
type Cart struct {
	Items []CartItem `json:"items"`
	Total int64      `json:"total"`
}

// NewCart totals lines.
func NewCart(lines []CartItem) Cart {
	if lines == nil {
		lines = []CartItem{}
	}
	return Cart{Items: lines, Total: Total(lines)}
}

// Total sums price × quantity over lines.
func Total(lines []CartItem) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

// CartRepository persists cart lines.
type CartRepository interface {
	// Add inserts a line with quantity 1 or increments the existing line for
	// the same item in one statement. newID is used only on insert.
	Add(ctx context.Context, userID, itemID, newID ulid.ULID) (*CartItem, error)
	// Remove deletes the line when it belongs to userID and returns it.
	Remove(ctx context.Context, userID, cartItemID ulid.ULID) (*CartItem, error)
	// ListByUser returns the user's lines joined with their items.
	ListByUser(ctx context.Context, userID ulid.ULID) ([]CartItem, error)
	// DeleteMany removes the given lines of userID and returns how many went.
	DeleteMany(ctx context.Context, userID ulid.ULID, ids []ulid.ULID) (int64, error)
}
