// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package shop implements the catalogue, cart and checkout operations.
//
// Checkout charges the caller's cart through a payment.Gateway, records the
// order and its line snapshots in one transaction, then clears the cart.
// Concurrent checkouts by the same user share one execution.
package shop
