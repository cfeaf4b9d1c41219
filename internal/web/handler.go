// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package web exposes the storefront operations as a JSON API under /api/.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"

	"github.com/holomush/storefront/internal/apperr"
	"github.com/holomush/storefront/internal/auth"
	"github.com/holomush/storefront/internal/shop"
)

var tracer = otel.Tracer("storefront/web")

// Accounts is the account surface the API serves. *auth.Service satisfies it.
type Accounts interface {
	Me(ctx context.Context, caller auth.Caller) (*auth.User, error)
	SignUp(ctx context.Context, caller auth.Caller, sink auth.ResponseSink, in auth.SignUpInput) (*auth.User, error)
	SignIn(ctx context.Context, caller auth.Caller, sink auth.ResponseSink, in auth.SignInInput) (*auth.User, error)
	SignOut(ctx context.Context, caller auth.Caller, sink auth.ResponseSink) (auth.Status, error)
	ConfirmAccount(ctx context.Context, caller auth.Caller, confirmToken string) (auth.Status, error)
	RequestConfirm(ctx context.Context, caller auth.Caller) (auth.Status, error)
	RequestReset(ctx context.Context, caller auth.Caller, email string) (auth.Status, error)
	ResetPassword(ctx context.Context, caller auth.Caller, sink auth.ResponseSink, in auth.ResetPasswordInput) (*auth.User, error)
	ChangePassword(ctx context.Context, caller auth.Caller, in auth.ChangePasswordInput) (auth.Status, error)
	ChangeEmail(ctx context.Context, caller auth.Caller, in auth.ChangeEmailInput) (auth.Status, error)
}

// Shop is the catalog, cart and order surface. *shop.Service satisfies it.
type Shop interface {
	CreateItem(ctx context.Context, caller auth.Caller, in shop.CreateItemInput) (*shop.Item, error)
	Item(ctx context.Context, id string) (*shop.Item, error)
	AddToCart(ctx context.Context, caller auth.Caller, itemID string) (*shop.CartItem, error)
	RemoveFromCart(ctx context.Context, caller auth.Caller, cartItemID string) (*shop.CartItem, error)
	Cart(ctx context.Context, caller auth.Caller) (shop.Cart, error)
	Checkout(ctx context.Context, caller auth.Caller, paymentToken string) (*shop.Order, error)
	Orders(ctx context.Context, caller auth.Caller) ([]shop.Order, error)
	Order(ctx context.Context, caller auth.Caller, orderID string) (*shop.Order, error)
}

// Authenticator resolves the caller of a request. *auth.SessionIssuer satisfies it.
type Authenticator interface {
	Authenticate(r *http.Request) (auth.Caller, error)
}

// PermissionSource loads the current permissions of a user.
type PermissionSource interface {
	GetPermissions(ctx context.Context, id ulid.ULID) ([]auth.Permission, error)
}

// RequestObserver records completed API requests.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

type noopRequestObserver struct{}

func (noopRequestObserver) ObserveRequest(string, string, int, time.Duration) {}

var (
	_ Accounts      = (*auth.Service)(nil)
	_ Shop          = (*shop.Service)(nil)
	_ Authenticator = (*auth.SessionIssuer)(nil)
)

// Handler serves the storefront API.
type Handler struct {
	accounts Accounts
	shop     Shop
	sessions Authenticator
	perms    PermissionSource
	metrics  RequestObserver
	logger   *slog.Logger
	now      func() time.Time
	mux      *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithRequestObserver records request metrics.
func WithRequestObserver(o RequestObserver) Option {
	return func(h *Handler) { h.metrics = o }
}

// WithClock replaces time.Now for request timing.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler creates the API handler and registers its routes.
func NewHandler(accounts Accounts, shopSvc Shop, sessions Authenticator, perms PermissionSource, opts ...Option) (*Handler, error) {
	switch {
	case accounts == nil:
		return nil, oops.Code("WEB_HANDLER_INVALID").Errorf("account service is required")
	case shopSvc == nil:
		return nil, oops.Code("WEB_HANDLER_INVALID").Errorf("shop service is required")
	case sessions == nil:
		return nil, oops.Code("WEB_HANDLER_INVALID").Errorf("authenticator is required")
	case perms == nil:
		return nil, oops.Code("WEB_HANDLER_INVALID").Errorf("permission source is required")
	}

	h := &Handler{
		accounts: accounts,
		shop:     shopSvc,
		sessions: sessions,
		perms:    perms,
		metrics:  noopRequestObserver{},
		logger:   slog.Default(),
		now:      time.Now,
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		return nil, oops.Code("WEB_HANDLER_INVALID").Errorf("logger cannot be nil")
	}
	if h.metrics == nil {
		h.metrics = noopRequestObserver{}
	}
	h.logger = h.logger.With("component", "web")

	h.routes()
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.handle("GET /api/me", h.me)
	h.handle("POST /api/signup", h.signUp)
	h.handle("POST /api/signin", h.signIn)
	h.handle("POST /api/signout", h.signOut)
	h.handle("POST /api/confirm", h.confirmAccount)
	h.handle("POST /api/confirm/request", h.requestConfirm)
	h.handle("POST /api/reset/request", h.requestReset)
	h.handle("POST /api/reset", h.resetPassword)
	h.handle("POST /api/password", h.changePassword)
	h.handle("POST /api/email", h.changeEmail)

	h.handle("POST /api/items", h.createItem)
	h.handle("GET /api/items/{id}", h.item)

	h.handle("GET /api/cart", h.cart)
	h.handle("POST /api/cart", h.addToCart)
	h.handle("DELETE /api/cart/{id}", h.removeFromCart)

	h.handle("POST /api/checkout", h.checkout)
	h.handle("GET /api/orders", h.orders)
	h.handle("GET /api/orders/{id}", h.order)

	h.mux.Handle("/api/", h.instrument("unmatched", func(w http.ResponseWriter, r *http.Request) {
		writeError(r.Context(), w, h.logger, apperr.NotFound("route", r.URL.Path, "Not found"))
	}))
}

func (h *Handler) handle(pattern string, fn http.HandlerFunc) {
	h.mux.Handle(pattern, h.instrument(pattern, h.session(fn)))
}
