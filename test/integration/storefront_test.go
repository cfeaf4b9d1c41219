// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/holomush/storefront/internal/apperr"
	"github.com/holomush/storefront/internal/auth"
	"github.com/holomush/storefront/internal/shop"
)

const password = "Passw0rd!"

// shopper is an HTTP client with its own cookie jar.
type shopper struct {
	client *http.Client
	email  string
}

func newShopper() *shopper {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &shopper{client: &http.Client{Jar: jar}}
}

// call sends body as JSON and decodes the response into out when out is non-nil.
func (s *shopper) call(method, path string, body, out any) int {
	var payload bytes.Buffer
	if body != nil {
		Expect(json.NewEncoder(&payload).Encode(body)).To(Succeed())
	}
	req, err := http.NewRequestWithContext(env.ctx, method, env.server.URL+path, &payload)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	if out != nil {
		Expect(json.NewDecoder(resp.Body).Decode(out)).To(Succeed())
	}
	return resp.StatusCode
}

type errorEnvelope struct {
	Error struct {
		Code       string   `json:"code"`
		Message    string   `json:"message"`
		Violations []string `json:"violations"`
		Reference  string   `json:"reference"`
	} `json:"error"`
}

type account struct {
	ID          ulid.ULID         `json:"id"`
	Email       string            `json:"email"`
	Confirmed   bool              `json:"confirmed"`
	Permissions []auth.Permission `json:"permissions"`
	Cart        *shop.Cart        `json:"cart"`
}

func signedUpShopper(prefix string) *shopper {
	s := newShopper()
	s.email = strings.ToLower(prefix + "-" + ulid.Make().String() + "@example.com")
	var created account
	status := s.call(http.MethodPost, "/api/signup", map[string]string{
		"name": "Shopper", "email": s.email, "password": password, "confirmPassword": password,
	}, &created)
	Expect(status).To(Equal(http.StatusCreated))
	Expect(created.Confirmed).To(BeFalse())
	return s
}

func (s *shopper) me() account {
	var body struct {
		User *account `json:"user"`
	}
	Expect(s.call(http.MethodGet, "/api/me", nil, &body)).To(Equal(http.StatusOK))
	Expect(body.User).NotTo(BeNil(), "expected a signed-in shopper")
	return *body.User
}

// stockItem creates a catalogue item through a merchant account.
func stockItem(title string, price int64) shop.Item {
	merchant := signedUpShopper("merchant")
	env.grant(merchant.email, auth.PermissionItemCreate)

	var item shop.Item
	status := merchant.call(http.MethodPost, "/api/items", map[string]any{
		"title": title, "description": "A fine " + title, "imageUrl": "https://img.example.com/" + title + ".png", "price": price,
	}, &item)
	Expect(status).To(Equal(http.StatusCreated))
	return item
}

var _ = Describe("Accounts", func() {
	It("confirms an account with the emailed token", func() {
		s := signedUpShopper("confirm")
		token := env.outbox.tokenFor(s.email)

		var st auth.Status
		Expect(s.call(http.MethodPost, "/api/confirm", map[string]string{"confirmToken": token}, &st)).To(Equal(http.StatusOK))
		Expect(st.Message).To(Equal(auth.MsgAccountConfirmed))
		Expect(s.me().Confirmed).To(BeTrue())

		var failure errorEnvelope
		Expect(s.call(http.MethodPost, "/api/confirm", map[string]string{"confirmToken": token}, &failure)).
			To(Equal(http.StatusBadRequest))
		Expect(failure.Error.Code).To(Equal(apperr.CodeTokenInvalidOrExpired))
	})

	It("signs out and back in", func() {
		s := signedUpShopper("session")
		Expect(s.call(http.MethodPost, "/api/signout", nil, nil)).To(Equal(http.StatusOK))

		var body struct {
			User *account `json:"user"`
		}
		Expect(s.call(http.MethodGet, "/api/me", nil, &body)).To(Equal(http.StatusOK))
		Expect(body.User).To(BeNil())

		var failure errorEnvelope
		status := s.call(http.MethodPost, "/api/signin", map[string]string{"email": s.email, "password": "Wr0ngpass!"}, &failure)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(failure.Error.Code).To(Equal(apperr.CodeIncorrectCredentials))

		Expect(s.call(http.MethodPost, "/api/signin", map[string]string{"email": s.email, "password": password}, nil)).
			To(Equal(http.StatusOK))
		Expect(s.me().Email).To(Equal(s.email))
	})

	It("resets a forgotten password", func() {
		s := signedUpShopper("reset")
		Expect(s.call(http.MethodPost, "/api/signout", nil, nil)).To(Equal(http.StatusOK))

		Expect(s.call(http.MethodPost, "/api/reset/request", map[string]string{"email": s.email}, nil)).To(Equal(http.StatusOK))
		token := env.outbox.tokenFor(s.email)

		const newPassword = "N3wpassword!"
		status := s.call(http.MethodPost, "/api/reset", map[string]string{
			"resetToken": token, "password": newPassword, "confirmPassword": newPassword,
		}, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(s.me().Email).To(Equal(s.email))

		Expect(s.call(http.MethodPost, "/api/signout", nil, nil)).To(Equal(http.StatusOK))
		Expect(s.call(http.MethodPost, "/api/signin", map[string]string{"email": s.email, "password": password}, nil)).
			To(Equal(http.StatusUnauthorized))
		Expect(s.call(http.MethodPost, "/api/signin", map[string]string{"email": s.email, "password": newPassword}, nil)).
			To(Equal(http.StatusOK))
	})

	It("rejects a duplicate email regardless of case", func() {
		s := signedUpShopper("dup")
		other := newShopper()
		var failure errorEnvelope
		status := other.call(http.MethodPost, "/api/signup", map[string]string{
			"name": "Other", "email": strings.ToUpper(s.email), "password": password, "confirmPassword": password,
		}, &failure)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(failure.Error.Code).To(Equal(apperr.CodeEmailTaken))
	})
})

var _ = Describe("Catalogue", func() {
	It("requires the item create permission", func() {
		s := signedUpShopper("noperm")
		var failure errorEnvelope
		status := s.call(http.MethodPost, "/api/items", map[string]any{
			"title": "Hat", "description": "A hat", "imageUrl": "https://img.example.com/hat.png", "price": 100,
		}, &failure)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(failure.Error.Code).To(Equal(apperr.CodeUnauthorized))
	})

	It("serves created items", func() {
		item := stockItem("scarf", 1500)

		var fetched shop.Item
		Expect(newShopper().call(http.MethodGet, "/api/items/"+item.ID.String(), nil, &fetched)).To(Equal(http.StatusOK))
		Expect(fetched.Title).To(Equal("scarf"))
		Expect(fetched.Price).To(Equal(int64(1500)))
	})
})

var _ = Describe("Checkout", func() {
	var (
		s      *shopper
		mug    shop.Item
		poster shop.Item
	)

	BeforeEach(func() {
		s = signedUpShopper("buyer")
		mug = stockItem("mug", 1200)
		poster = stockItem("poster", 800)
	})

	addToCart := func(item shop.Item) shop.CartItem {
		var line shop.CartItem
		Expect(s.call(http.MethodPost, "/api/cart", map[string]string{"itemId": item.ID.String()}, &line)).
			To(Equal(http.StatusOK))
		return line
	}

	It("merges repeated adds into one line", func() {
		addToCart(mug)
		line := addToCart(mug)
		Expect(line.Quantity).To(Equal(2))

		var cart shop.Cart
		Expect(s.call(http.MethodGet, "/api/cart", nil, &cart)).To(Equal(http.StatusOK))
		Expect(cart.Items).To(HaveLen(1))
		Expect(cart.Total).To(Equal(int64(2400)))
	})

	It("removes only the caller's own lines", func() {
		line := addToCart(mug)

		intruder := signedUpShopper("intruder")
		Expect(intruder.call(http.MethodDelete, "/api/cart/"+line.ID.String(), nil, nil)).To(Equal(http.StatusNotFound))

		Expect(s.call(http.MethodDelete, "/api/cart/"+line.ID.String(), nil, nil)).To(Equal(http.StatusOK))
		var cart shop.Cart
		Expect(s.call(http.MethodGet, "/api/cart", nil, &cart)).To(Equal(http.StatusOK))
		Expect(cart.Items).To(BeEmpty())
	})

	It("charges the cart total, records the order and empties the cart", func() {
		addToCart(mug)
		addToCart(mug)
		addToCart(poster)

		var order shop.Order
		Expect(s.call(http.MethodPost, "/api/checkout", map[string]string{"token": "tok_visa"}, &order)).
			To(Equal(http.StatusCreated))

		Expect(order.Total).To(Equal(int64(3200)))
		Expect(order.Items).To(HaveLen(2))
		charge := env.gateway.last()
		Expect(charge.Amount).To(Equal(int64(3200)))
		Expect(charge.Source).To(Equal("tok_visa"))
		Expect(charge.IdempotencyKey).To(Equal("order-" + order.ID.String()))
		Expect(order.ChargeID).To(Equal("ch_" + charge.IdempotencyKey))

		Expect(s.me().Cart.Items).To(BeEmpty())

		var orders struct {
			Orders []shop.Order `json:"orders"`
		}
		Expect(s.call(http.MethodGet, "/api/orders", nil, &orders)).To(Equal(http.StatusOK))
		Expect(orders.Orders).To(HaveLen(1))
		Expect(orders.Orders[0].ID).To(Equal(order.ID))

		var fetched shop.Order
		Expect(s.call(http.MethodGet, "/api/orders/"+order.ID.String(), nil, &fetched)).To(Equal(http.StatusOK))
		Expect(fetched.Total).To(Equal(order.Total))

		stranger := signedUpShopper("stranger")
		Expect(stranger.call(http.MethodGet, "/api/orders/"+order.ID.String(), nil, nil)).To(Equal(http.StatusNotFound))
	})

	It("snapshots item details at checkout time", func() {
		addToCart(poster)
		var order shop.Order
		Expect(s.call(http.MethodPost, "/api/checkout", map[string]string{"token": "tok_visa"}, &order)).
			To(Equal(http.StatusCreated))

		_, err := env.pool.Exec(env.ctx, `UPDATE items SET title = 'renamed', price = 1 WHERE id = $1`, poster.ID.String())
		Expect(err).NotTo(HaveOccurred())

		var fetched shop.Order
		Expect(s.call(http.MethodGet, "/api/orders/"+order.ID.String(), nil, &fetched)).To(Equal(http.StatusOK))
		Expect(fetched.Items).To(HaveLen(1))
		Expect(fetched.Items[0].Title).To(Equal("poster"))
		Expect(fetched.Items[0].Price).To(Equal(int64(800)))
	})

	It("keeps the cart and records nothing when the card is declined", func() {
		addToCart(mug)
		declined := testutil.ToFloat64(env.metrics.CheckoutsTotal.WithLabelValues(shop.OutcomeDeclined))

		var failure errorEnvelope
		Expect(s.call(http.MethodPost, "/api/checkout", map[string]string{"token": "tok_declined"}, &failure)).
			To(Equal(http.StatusPaymentRequired))
		Expect(failure.Error.Code).To(Equal(apperr.CodePaymentDeclined))

		Expect(s.me().Cart.Items).To(HaveLen(1))
		var orders struct {
			Orders []shop.Order `json:"orders"`
		}
		Expect(s.call(http.MethodGet, "/api/orders", nil, &orders)).To(Equal(http.StatusOK))
		Expect(orders.Orders).To(BeEmpty())
		Expect(testutil.ToFloat64(env.metrics.CheckoutsTotal.WithLabelValues(shop.OutcomeDeclined))).
			To(Equal(declined + 1))
	})

	It("joins concurrent checkouts for one shopper into a single order", func() {
		addToCart(mug)

		const callers = 4
		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			placed = map[ulid.ULID]int{}
		)
		for range callers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				var order shop.Order
				if s.call(http.MethodPost, "/api/checkout", map[string]string{"token": "tok_visa"}, &order) == http.StatusCreated {
					mu.Lock()
					placed[order.ID]++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		var orders struct {
			Orders []shop.Order `json:"orders"`
		}
		Expect(s.call(http.MethodGet, "/api/orders", nil, &orders)).To(Equal(http.StatusOK))
		var charged int64
		for _, o := range orders.Orders {
			charged += o.Total
		}
		// Late callers that miss the in-flight checkout find an empty cart.
		Expect(charged).To(Equal(int64(1200)))
		Expect(placed).NotTo(BeEmpty())
	})

	It("requires a signed-in shopper", func() {
		var failure errorEnvelope
		Expect(newShopper().call(http.MethodPost, "/api/checkout", map[string]string{"token": "tok_visa"}, &failure)).
			To(Equal(http.StatusUnauthorized))
		Expect(failure.Error.Code).To(Equal(apperr.CodeUnauthenticated))
	})
})
