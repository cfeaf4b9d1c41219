// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/storefront/internal/auth"
	"github.com/holomush/storefront/internal/shop"
)

// userView is the public rendering of a user. It never carries the password hash.
type userView struct {
	ID          ulid.ULID         `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Confirmed   bool              `json:"confirmed"`
	Permissions []auth.Permission `json:"permissions"`
	CreatedAt   time.Time         `json:"createdAt"`
	Cart        *shop.Cart        `json:"cart,omitempty"`
}

func newUserView(u *auth.User) *userView {
	if u == nil {
		return nil
	}
	perms := u.Permissions
	if perms == nil {
		perms = []auth.Permission{}
	}
	return &userView{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Confirmed:   u.Confirmed,
		Permissions: perms,
		CreatedAt:   u.CreatedAt,
	}
}

type meResponse struct {
	User *userView `json:"user"`
}

type confirmRequest struct {
	ConfirmToken string `json:"confirmToken"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type addToCartRequest struct {
	ItemID string `json:"itemId"`
}

type checkoutRequest struct {
	Token string `json:"token"`
}

type ordersResponse struct {
	Orders []shop.Order `json:"orders"`
}
