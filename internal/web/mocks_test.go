// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/storefront/internal/auth"
	"github.com/holomush/storefront/internal/shop"
)

type mockAccounts struct{ mock.Mock }

func newMockAccounts(t *testing.T) *mockAccounts {
	m := &mockAccounts{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func userOrNil(v any) *auth.User {
	u, _ := v.(*auth.User) //nolint:errcheck // nil when the expectation returns no user
	return u
}

func (m *mockAccounts) Me(ctx context.Context, caller auth.Caller) (*auth.User, error) {
	args := m.Called(ctx, caller)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockAccounts) SignUp(ctx context.Context, caller auth.Caller, sink auth.ResponseSink, in auth.SignUpInput) (*auth.User, error) {
	args := m.Called(ctx, caller, sink, in)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockAccounts) SignIn(ctx context.Context, caller auth.Caller, sink auth.ResponseSink, in auth.SignInInput) (*auth.User, error) {
	args := m.Called(ctx, caller, sink, in)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockAccounts) SignOut(ctx context.Context, caller auth.Caller, sink auth.ResponseSink) (auth.Status, error) {
	args := m.Called(ctx, caller, sink)
	return args.Get(0).(auth.Status), args.Error(1) //nolint:forcetypeassert,errcheck // test mock
}

func (m *mockAccounts) ConfirmAccount(ctx context.Context, caller auth.Caller, confirmToken string) (auth.Status, error) {
	args := m.Called(ctx, caller, confirmToken)
	return args.Get(0).(auth.Status), args.Error(1) //nolint:forcetypeassert,errcheck // test mock
}

func (m *mockAccounts) RequestConfirm(ctx context.Context, caller auth.Caller) (auth.Status, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(auth.Status), args.Error(1) //nolint:forcetypeassert,errcheck // test mock
}

func (m *mockAccounts) RequestReset(ctx context.Context, caller auth.Caller, email string) (auth.Status, error) {
	args := m.Called(ctx, caller, email)
	return args.Get(0).(auth.Status), args.Error(1) //nolint:forcetypeassert,errcheck // test mock
}

func (m *mockAccounts) ResetPassword(ctx context.Context, caller auth.Caller, sink auth.ResponseSink, in auth.ResetPasswordInput) (*auth.User, error) {
	args := m.Called(ctx, caller, sink, in)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockAccounts) ChangePassword(ctx context.Context, caller auth.Caller, in auth.ChangePasswordInput) (auth.Status, error) {
	args := m.Called(ctx, caller, in)
	return args.Get(0).(auth.Status), args.Error(1) //nolint:forcetypeassert,errcheck // test mock
}

func (m *mockAccounts) ChangeEmail(ctx context.Context, caller auth.Caller, in auth.ChangeEmailInput) (auth.Status, error) {
	args := m.Called(ctx, caller, in)
	return args.Get(0).(auth.Status), args.Error(1) //nolint:forcetypeassert,errcheck // test mock
}

type mockShop struct{ mock.Mock }

func newMockShop(t *testing.T) *mockShop {
	m := &mockShop{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockShop) CreateItem(ctx context.Context, caller auth.Caller, in shop.CreateItemInput) (*shop.Item, error) {
	args := m.Called(ctx, caller, in)
	item, _ := args.Get(0).(*shop.Item) //nolint:errcheck // test mock
	return item, args.Error(1)
}

func (m *mockShop) Item(ctx context.Context, id string) (*shop.Item, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*shop.Item) //nolint:errcheck // test mock
	return item, args.Error(1)
}

func (m *mockShop) AddToCart(ctx context.Context, caller auth.Caller, itemID string) (*shop.CartItem, error) {
	args := m.Called(ctx, caller, itemID)
	line, _ := args.Get(0).(*shop.CartItem) //nolint:errcheck // test mock
	return line, args.Error(1)
}

func (m *mockShop) RemoveFromCart(ctx context.Context, caller auth.Caller, cartItemID string) (*shop.CartItem, error) {
	args := m.Called(ctx, caller, cartItemID)
	line, _ := args.Get(0).(*shop.CartItem) //nolint:errcheck // test mock
	return line, args.Error(1)
}

func (m *mockShop) Cart(ctx context.Context, caller auth.Caller) (shop.Cart, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(shop.Cart), args.Error(1) //nolint:forcetypeassert,errcheck // test mock
}

func (m *mockShop) Checkout(ctx context.Context, caller auth.Caller, paymentToken string) (*shop.Order, error) {
	args := m.Called(ctx, caller, paymentToken)
	order, _ := args.Get(0).(*shop.Order) //nolint:errcheck // test mock
	return order, args.Error(1)
}

func (m *mockShop) Orders(ctx context.Context, caller auth.Caller) ([]shop.Order, error) {
	args := m.Called(ctx, caller)
	orders, _ := args.Get(0).([]shop.Order) //nolint:errcheck // test mock
	return orders, args.Error(1)
}

func (m *mockShop) Order(ctx context.Context, caller auth.Caller, orderID string) (*shop.Order, error) {
	args := m.Called(ctx, caller, orderID)
	order, _ := args.Get(0).(*shop.Order) //nolint:errcheck // test mock
	return order, args.Error(1)
}

// stubAuthenticator returns a fixed caller and error.
type stubAuthenticator struct {
	caller auth.Caller
	err    error
}

func (s stubAuthenticator) Authenticate(*http.Request) (auth.Caller, error) {
	return s.caller, s.err
}

type stubPermissions struct {
	perms []auth.Permission
	err   error
}

func (s stubPermissions) GetPermissions(context.Context, ulid.ULID) ([]auth.Permission, error) {
	return s.perms, s.err
}

type observedRequest struct {
	method, route string
	status        int
}

type recordingObserver struct {
	mu       sync.Mutex
	requests []observedRequest
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, observedRequest{method: method, route: route, status: status})
}
