// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks provides testify mocks for the shop interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/storefront/internal/payment"
	"github.com/holomush/storefront/internal/shop"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

func register(m *mock.Mock, t testingT) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

// MockItemRepository is a mock of shop.ItemRepository.
type MockItemRepository struct {
	mock.Mock
}

// NewMockItemRepository creates a MockItemRepository that asserts its expectations on cleanup.
func NewMockItemRepository(t testingT) *MockItemRepository {
	m := &MockItemRepository{}
	register(&m.Mock, t)
	return m
}

// Create mocks shop.ItemRepository.Create.
func (m *MockItemRepository) Create(ctx context.Context, item *shop.Item) error {
	return m.Called(ctx, item).Error(0)
}

// GetByID mocks shop.ItemRepository.GetByID.
func (m *MockItemRepository) GetByID(ctx context.Context, id ulid.ULID) (*shop.Item, error) {
	args := m.Called(ctx, id)
	var item *shop.Item
	if v := args.Get(0); v != nil {
		item = v.(*shop.Item) //nolint:errcheck,forcetypeassert // set by the test
	}
	return item, args.Error(1)
}

// MockCartRepository is a mock of shop.CartRepository.
type MockCartRepository struct {
	mock.Mock
}

// NewMockCartRepository creates a MockCartRepository that asserts its expectations on cleanup.
func NewMockCartRepository(t testingT) *MockCartRepository {
	m := &MockCartRepository{}
	register(&m.Mock, t)
	return m
}

func cartItemResult(args mock.Arguments) (*shop.CartItem, error) {
	var line *shop.CartItem
	if v := args.Get(0); v != nil {
		line = v.(*shop.CartItem) //nolint:errcheck,forcetypeassert // set by the test
	}
	return line, args.Error(1)
}

// Add mocks shop.CartRepository.Add.
func (m *MockCartRepository) Add(ctx context.Context, userID, itemID, newID ulid.ULID) (*shop.CartItem, error) {
	return cartItemResult(m.Called(ctx, userID, itemID, newID))
}

// Remove mocks shop.CartRepository.Remove.
func (m *MockCartRepository) Remove(ctx context.Context, userID, cartItemID ulid.ULID) (*shop.CartItem, error) {
	return cartItemResult(m.Called(ctx, userID, cartItemID))
}

// ListByUser mocks shop.CartRepository.ListByUser.
func (m *MockCartRepository) ListByUser(ctx context.Context, userID ulid.ULID) ([]shop.CartItem, error) {
	args := m.Called(ctx, userID)
	var lines []shop.CartItem
	if v := args.Get(0); v != nil {
		lines = v.([]shop.CartItem) //nolint:errcheck,forcetypeassert // set by the test
	}
	return lines, args.Error(1)
}

// DeleteMany mocks shop.CartRepository.DeleteMany.
func (m *MockCartRepository) DeleteMany(ctx context.Context, userID ulid.ULID, ids []ulid.ULID) (int64, error) {
	args := m.Called(ctx, userID, ids)
	return args.Get(0).(int64), args.Error(1) //nolint:errcheck,forcetypeassert // set by the test
}

// MockOrderRepository is a mock of shop.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

// NewMockOrderRepository creates a MockOrderRepository that asserts its expectations on cleanup.
func NewMockOrderRepository(t testingT) *MockOrderRepository {
	m := &MockOrderRepository{}
	register(&m.Mock, t)
	return m
}

// Create mocks shop.OrderRepository.Create.
func (m *MockOrderRepository) Create(ctx context.Context, order *shop.Order) error {
	return m.Called(ctx, order).Error(0)
}

// ListByUser mocks shop.OrderRepository.ListByUser.
func (m *MockOrderRepository) ListByUser(ctx context.Context, userID ulid.ULID) ([]shop.Order, error) {
	args := m.Called(ctx, userID)
	var orders []shop.Order
	if v := args.Get(0); v != nil {
		orders = v.([]shop.Order) //nolint:errcheck,forcetypeassert // set by the test
	}
	return orders, args.Error(1)
}

// Get mocks shop.OrderRepository.Get.
func (m *MockOrderRepository) Get(ctx context.Context, userID, orderID ulid.ULID) (*shop.Order, error) {
	args := m.Called(ctx, userID, orderID)
	var order *shop.Order
	if v := args.Get(0); v != nil {
		order = v.(*shop.Order) //nolint:errcheck,forcetypeassert // set by the test
	}
	return order, args.Error(1)
}

// MockGateway is a mock of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

// NewMockGateway creates a MockGateway that asserts its expectations on cleanup.
func NewMockGateway(t testingT) *MockGateway {
	m := &MockGateway{}
	register(&m.Mock, t)
	return m
}

// Charge mocks payment.Gateway.Charge.
func (m *MockGateway) Charge(ctx context.Context, req payment.ChargeRequest) (payment.Charge, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.Charge), args.Error(1) //nolint:errcheck,forcetypeassert // set by the test
}

var (
	_ shop.ItemRepository  = (*MockItemRepository)(nil)
	_ shop.CartRepository  = (*MockCartRepository)(nil)
	_ shop.OrderRepository = (*MockOrderRepository)(nil)
	_ payment.Gateway      = (*MockGateway)(nil)
)
