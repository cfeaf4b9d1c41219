// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package shop

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"golang.org/x/sync/singleflight"

	"github.com/holomush/storefront/internal/apperr"
	"github.com/holomush/storefront/internal/auth"
	"github.com/holomush/storefront/internal/payment"
)

// Transactor runs fn inside a database transaction carried by ctx.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Checkout outcomes reported to the CheckoutObserver.
const (
	OutcomeSuccess           = "success"
	OutcomeDeclined          = "declined"
	OutcomeGatewayError      = "gateway_error"
	OutcomePostPaymentFailed = "post_payment_write_failure"
	OutcomeError             = "error"
)

// CheckoutObserver records checkout results.
type CheckoutObserver interface {
	ObserveCheckout(outcome string, amount int64)
}

type noopObserver struct{}

func (noopObserver) ObserveCheckout(string, int64) {}

// Service provides the catalogue, cart and order operations.
type Service struct {
	items    ItemRepository
	carts    CartRepository
	orders   OrderRepository
	gateway  payment.Gateway
	tx       Transactor
	observer CheckoutObserver
	logger   *slog.Logger
	now      func() time.Time
	flight   singleflight.Group
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now for new records.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithCheckoutObserver sets the checkout metrics sink.
func WithCheckoutObserver(o CheckoutObserver) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// NewService creates a new Service.
func NewService(
	items ItemRepository,
	carts CartRepository,
	orders OrderRepository,
	gateway payment.Gateway,
	tx Transactor,
	opts ...ServiceOption,
) (*Service, error) {
	switch {
	case items == nil:
		return nil, oops.Code("SHOP_SERVICE_INVALID").Errorf("item repository is required")
	case carts == nil:
		return nil, oops.Code("SHOP_SERVICE_INVALID").Errorf("cart repository is required")
	case orders == nil:
		return nil, oops.Code("SHOP_SERVICE_INVALID").Errorf("order repository is required")
	case gateway == nil:
		return nil, oops.Code("SHOP_SERVICE_INVALID").Errorf("payment gateway is required")
	case tx == nil:
		return nil, oops.Code("SHOP_SERVICE_INVALID").Errorf("transactor is required")
	}

	s := &Service{
		items:    items,
		carts:    carts,
		orders:   orders,
		gateway:  gateway,
		tx:       tx,
		observer: noopObserver{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("SHOP_SERVICE_INVALID").Errorf("logger cannot be nil")
	}
	if s.observer == nil {
		s.observer = noopObserver{}
	}
	return s, nil
}

func (s *Service) newID() ulid.ULID {
	return ulid.MustNew(ulid.Timestamp(s.now()), ulid.DefaultEntropy())
}

// CreateItem adds an item to the catalogue. The caller needs ADMIN or ITEMCREATE.
func (s *Service) CreateItem(ctx context.Context, caller auth.Caller, in CreateItemInput) (*Item, error) {
	userID, err := auth.RequireAuthenticated(caller)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAnyPermission(caller, auth.PermissionAdmin, auth.PermissionItemCreate); err != nil {
		return nil, err
	}
	if v := ValidateCreateItem(in); len(v) > 0 {
		return nil, apperr.Validation(v)
	}

	item := &Item{
		ID:          s.newID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Price:       *in.Price,
		CreatedBy:   userID,
		CreatedAt:   s.now(),
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, oops.Code("ITEM_CREATE_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return item, nil
}

// Item returns a catalogue item.
func (s *Service) Item(ctx context.Context, id string) (*Item, error) {
	itemID, err := ulid.ParseStrict(id)
	if err != nil {
		return nil, apperr.NotFound("item", id, "")
	}
	item, err := s.items.GetByID(ctx, itemID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("item", id, "")
	}
	if err != nil {
		return nil, oops.Code("ITEM_GET_FAILED").With("item_id", id).Wrap(err)
	}
	return item, nil
}

// AddToCart puts one of the item in the caller's cart, incrementing the
// quantity when the item is already there.
func (s *Service) AddToCart(ctx context.Context, caller auth.Caller, itemID string) (*CartItem, error) {
	userID, err := auth.RequireAuthenticated(caller)
	if err != nil {
		return nil, err
	}
	id, err := ulid.ParseStrict(itemID)
	if err != nil {
		return nil, apperr.NotFound("item", itemID, "")
	}

	line, err := s.carts.Add(ctx, userID, id, s.newID())
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("item", itemID, "")
	}
	if err != nil {
		return nil, oops.Code("CART_ADD_FAILED").
			With("user_id", userID.String()).
			With("item_id", itemID).
			Wrap(err)
	}
	return line, nil
}

// RemoveFromCart deletes one of the caller's cart lines.
func (s *Service) RemoveFromCart(ctx context.Context, caller auth.Caller, cartItemID string) (*CartItem, error) {
	userID, err := auth.RequireAuthenticated(caller)
	if err != nil {
		return nil, err
	}
	id, err := ulid.ParseStrict(cartItemID)
	if err != nil {
		return nil, apperr.NotFound("cart item", cartItemID, "No CartItem Found...")
	}

	line, err := s.carts.Remove(ctx, userID, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("cart item", cartItemID, "No CartItem Found...")
	}
	if err != nil {
		return nil, oops.Code("CART_REMOVE_FAILED").
			With("user_id", userID.String()).
			With("cart_item_id", cartItemID).
			Wrap(err)
	}
	return line, nil
}

// Cart returns the caller's cart lines and total.
func (s *Service) Cart(ctx context.Context, caller auth.Caller) (Cart, error) {
	userID, err := auth.RequireAuthenticated(caller)
	if err != nil {
		return Cart{}, err
	}
	lines, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return Cart{}, oops.Code("CART_LIST_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return NewCart(lines), nil
}

// Orders lists the caller's orders, newest first.
func (s *Service) Orders(ctx context.Context, caller auth.Caller) ([]Order, error) {
	userID, err := auth.RequireAuthenticated(caller)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, oops.Code("ORDER_LIST_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

// Order returns one of the caller's orders. Orders of other users are reported as missing.
func (s *Service) Order(ctx context.Context, caller auth.Caller, orderID string) (*Order, error) {
	userID, err := auth.RequireAuthenticated(caller)
	if err != nil {
		return nil, err
	}
	id, err := ulid.ParseStrict(orderID)
	if err != nil {
		return nil, apperr.NotFound("order", orderID, "")
	}
	order, err := s.orders.Get(ctx, userID, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("order", orderID, "")
	}
	if err != nil {
		return nil, oops.Code("ORDER_GET_FAILED").
			With("user_id", userID.String()).
			With("order_id", orderID).
			Wrap(err)
	}
	return order, nil
}
