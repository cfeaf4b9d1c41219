// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package shop

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Item is a product in the catalogue. Price is in minor units.
type Item struct {
	ID          ulid.ULID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Price       int64     `json:"price"`
	CreatedBy   ulid.ULID `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateItemInput is the payload for adding a catalogue item.
type CreateItemInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Price       *int64 `json:"price"`
}

// ItemRepository persists catalogue items.
type ItemRepository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id ulid.ULID) (*Item, error)
}

// ValidateCreateItem reports every violated rule of a create-item payload.
func ValidateCreateItem(in CreateItemInput) []string {
	var v []string
	if strings.TrimSpace(in.Title) == "" {
		v = append(v, `"title" is not allowed to be empty`)
	}
	if strings.TrimSpace(in.Description) == "" {
		v = append(v, `"description" is not allowed to be empty`)
	}
	switch {
	case strings.TrimSpace(in.ImageURL) == "":
		v = append(v, `"imageUrl" is not allowed to be empty`)
	case !validURI(in.ImageURL):
		v = append(v, `"imageUrl" must be a valid uri`)
	}
	switch {
	case in.Price == nil:
		v = append(v, `"price" is required`)
	case *in.Price < 0:
		v = append(v, `"price" must be greater than or equal to 0`)
	}
	return v
}

func validURI(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}
