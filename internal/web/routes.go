// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"net/http"

	"github.com/holomush/storefront/internal/auth"
	"github.com/holomush/storefront/internal/shop"
)

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := callerFrom(ctx)

	user, err := h.accounts.Me(ctx, caller)
	if err != nil {
		writeError(ctx, w, h.logger, err)
		return
	}
	view := newUserView(user)
	if view != nil {
		cart, err := h.shop.Cart(ctx, caller)
		if err != nil {
			writeError(ctx, w, h.logger, err)
			return
		}
		view.Cart = &cart
	}
	writeJSON(w, http.StatusOK, meResponse{User: view})
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var in auth.SignUpInput
	if !h.decode(w, r, &in) {
		return
	}
	user, err := h.accounts.SignUp(r.Context(), callerFrom(r.Context()), w, in)
	h.respond(w, r, http.StatusCreated, newUserView(user), err)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var in auth.SignInInput
	if !h.decode(w, r, &in) {
		return
	}
	user, err := h.accounts.SignIn(r.Context(), callerFrom(r.Context()), w, in)
	h.respond(w, r, http.StatusOK, newUserView(user), err)
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	status, err := h.accounts.SignOut(r.Context(), callerFrom(r.Context()), w)
	h.respond(w, r, http.StatusOK, status, err)
}

func (h *Handler) confirmAccount(w http.ResponseWriter, r *http.Request) {
	var in confirmRequest
	if !h.decode(w, r, &in) {
		return
	}
	status, err := h.accounts.ConfirmAccount(r.Context(), callerFrom(r.Context()), in.ConfirmToken)
	h.respond(w, r, http.StatusOK, status, err)
}

func (h *Handler) requestConfirm(w http.ResponseWriter, r *http.Request) {
	status, err := h.accounts.RequestConfirm(r.Context(), callerFrom(r.Context()))
	h.respond(w, r, http.StatusOK, status, err)
}

func (h *Handler) requestReset(w http.ResponseWriter, r *http.Request) {
	var in resetRequest
	if !h.decode(w, r, &in) {
		return
	}
	status, err := h.accounts.RequestReset(r.Context(), callerFrom(r.Context()), in.Email)
	h.respond(w, r, http.StatusOK, status, err)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in auth.ResetPasswordInput
	if !h.decode(w, r, &in) {
		return
	}
	user, err := h.accounts.ResetPassword(r.Context(), callerFrom(r.Context()), w, in)
	h.respond(w, r, http.StatusOK, newUserView(user), err)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var in auth.ChangePasswordInput
	if !h.decode(w, r, &in) {
		return
	}
	status, err := h.accounts.ChangePassword(r.Context(), callerFrom(r.Context()), in)
	h.respond(w, r, http.StatusOK, status, err)
}

func (h *Handler) changeEmail(w http.ResponseWriter, r *http.Request) {
	var in auth.ChangeEmailInput
	if !h.decode(w, r, &in) {
		return
	}
	status, err := h.accounts.ChangeEmail(r.Context(), callerFrom(r.Context()), in)
	h.respond(w, r, http.StatusOK, status, err)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var in shop.CreateItemInput
	if !h.decode(w, r, &in) {
		return
	}
	item, err := h.shop.CreateItem(r.Context(), callerFrom(r.Context()), in)
	h.respond(w, r, http.StatusCreated, item, err)
}

func (h *Handler) item(w http.ResponseWriter, r *http.Request) {
	item, err := h.shop.Item(r.Context(), r.PathValue("id"))
	h.respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) cart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.shop.Cart(r.Context(), callerFrom(r.Context()))
	h.respond(w, r, http.StatusOK, cart, err)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var in addToCartRequest
	if !h.decode(w, r, &in) {
		return
	}
	line, err := h.shop.AddToCart(r.Context(), callerFrom(r.Context()), in.ItemID)
	h.respond(w, r, http.StatusOK, line, err)
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	line, err := h.shop.RemoveFromCart(r.Context(), callerFrom(r.Context()), r.PathValue("id"))
	h.respond(w, r, http.StatusOK, line, err)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var in checkoutRequest
	if !h.decode(w, r, &in) {
		return
	}
	order, err := h.shop.Checkout(r.Context(), callerFrom(r.Context()), in.Token)
	h.respond(w, r, http.StatusCreated, order, err)
}

func (h *Handler) orders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.shop.Orders(r.Context(), callerFrom(r.Context()))
	h.respond(w, r, http.StatusOK, ordersResponse{Orders: orders}, err)
}

func (h *Handler) order(w http.ResponseWriter, r *http.Request) {
	order, err := h.shop.Order(r.Context(), callerFrom(r.Context()), r.PathValue("id"))
	h.respond(w, r, http.StatusOK, order, err)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, body any, err error) {
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, status, body)
}
