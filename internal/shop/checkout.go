// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package shop

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/storefront/internal/apperr"
	"github.com/holomush/storefront/internal/auth"
	"github.com/holomush/storefront/internal/payment"
	"github.com/holomush/storefront/pkg/errutil"
)

const chargeDescription = "Fullstack Shop order"

// Checkout charges the caller's cart and records the order.
//
// A checkout already running for the same user is joined rather than
// repeated: every concurrent caller receives the first execution's result,
// and its payment token is the one charged. The execution is detached from
// ctx cancellation so a disconnecting client cannot abandon a charge mid-way.
func (s *Service) Checkout(ctx context.Context, caller auth.Caller, paymentToken string) (*Order, error) {
	userID, err := auth.RequireAuthenticated(caller)
	if err != nil {
		return nil, err
	}

	detached := context.WithoutCancel(ctx)
	v, err, shared := s.flight.Do(userID.String(), func() (any, error) {
		return s.checkout(detached, userID, paymentToken)
	})
	if shared {
		s.logger.DebugContext(ctx, "checkout joined in-flight execution", "user_id", userID.String())
	}
	if err != nil {
		return nil, err //nolint:wrapcheck // checkout returns caller-facing errors
	}
	return v.(*Order), nil //nolint:forcetypeassert,errcheck // checkout only returns *Order
}

func (s *Service) checkout(ctx context.Context, userID ulid.ULID, paymentToken string) (*Order, error) {
	lines, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		s.observer.ObserveCheckout(OutcomeError, 0)
		return nil, oops.Code("CHECKOUT_CART_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	if len(lines) == 0 {
		s.logger.WarnContext(ctx, "checkout with empty cart", "user_id", userID.String())
	}
	amount := Total(lines)

	orderID := s.newID()
	charge, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		Amount:         amount,
		Currency:       payment.CurrencyGBP,
		Source:         paymentToken,
		Description:    chargeDescription,
		IdempotencyKey: "order-" + orderID.String(),
	})
	if err != nil {
		return nil, s.chargeFailed(ctx, userID, amount, err)
	}

	order := buildOrder(orderID, userID, charge, lines, s.now())
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		return s.orders.Create(ctx, order)
	})
	if err != nil {
		failure := apperr.PostPaymentWriteFailure(charge.ID, charge.Amount, err)
		errutil.LogErrorContext(ctx, s.logger, slog.LevelError, "order not recorded after successful charge", err,
			"user_id", userID.String(),
			"charge_id", charge.ID,
			"amount", charge.Amount,
		)
		s.observer.ObserveCheckout(OutcomePostPaymentFailed, charge.Amount)
		return nil, failure
	}

	s.clearCart(ctx, userID, lines)
	s.observer.ObserveCheckout(OutcomeSuccess, charge.Amount)
	s.logger.InfoContext(ctx, "order created",
		"user_id", userID.String(),
		"order_id", order.ID.String(),
		"charge_id", charge.ID,
		"total", order.Total,
	)
	return order, nil
}

func (s *Service) chargeFailed(ctx context.Context, userID ulid.ULID, amount int64, err error) error {
	if apperr.Is(err, apperr.CodePaymentDeclined) {
		s.observer.ObserveCheckout(OutcomeDeclined, amount)
		s.logger.InfoContext(ctx, "payment declined", "user_id", userID.String(), "amount", amount)
		return err
	}
	if !apperr.Is(err, apperr.CodePaymentGateway) {
		err = apperr.PaymentGatewayError(err)
	}
	s.observer.ObserveCheckout(OutcomeGatewayError, amount)
	errutil.LogErrorContext(ctx, s.logger, slog.LevelError, "payment gateway failure", err,
		"user_id", userID.String(), "amount", amount)
	return err
}

// clearCart removes the lines consumed by the order. The order stands even if it fails.
func (s *Service) clearCart(ctx context.Context, userID ulid.ULID, lines []CartItem) {
	if len(lines) == 0 {
		return
	}
	ids := make([]ulid.ULID, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	if _, err := s.carts.DeleteMany(ctx, userID, ids); err != nil {
		errutil.LogErrorContext(ctx, s.logger, slog.LevelWarn, "cart not cleared after checkout", err,
			"user_id", userID.String(), "lines", len(ids))
	}
}

func buildOrder(id, userID ulid.ULID, charge payment.Charge, lines []CartItem, now time.Time) *Order {
	currency := charge.Currency
	if currency == "" {
		currency = payment.CurrencyGBP
	}
	order := &Order{
		ID:        id,
		UserID:    userID,
		Total:     charge.Amount,
		Currency:  currency,
		ChargeID:  charge.ID,
		CreatedAt: now,
		Items:     make([]OrderItem, len(lines)),
	}
	for i, l := range lines {
		order.Items[i] = OrderItem{
			ID:          ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
			OrderID:     id,
			Title:       l.Item.Title,
			Description: l.Item.Description,
			ImageURL:    l.Item.ImageURL,
			Price:       l.Item.Price,
			Quantity:    l.Quantity,
		}
	}
	return order
}
