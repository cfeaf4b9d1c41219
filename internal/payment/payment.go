// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package payment charges customers through an external payment gateway.
package payment

import (
	"context"
)

// CurrencyGBP is the only currency the storefront charges in.
const CurrencyGBP = "gbp"

// ChargeRequest describes a single charge. Amount is in minor units.
type ChargeRequest struct {
	Amount         int64
	Currency       string
	Source         string
	Description    string
	IdempotencyKey string
}

// Charge is a charge accepted by the gateway. Amount is the amount the
// gateway confirmed, which is what the order records.
type Charge struct {
	ID       string
	Amount   int64
	Currency string
}

// Gateway takes payments.
//
// Charge returns an apperr PaymentDeclined error when the gateway rejects
// the source and PaymentGatewayError for every other failure.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Charge, error)
}
