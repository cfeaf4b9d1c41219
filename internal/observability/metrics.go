// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/storefront/internal/shop"
)

var _ shop.CheckoutObserver = (*Metrics)(nil)

// Metrics contains the storefront's Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	CheckoutsTotal      *prometheus.CounterVec
	CheckoutAmountTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the storefront metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_http_requests_total",
				Help: "Total number of API requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_http_request_duration_seconds",
				Help:    "API request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		CheckoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_checkouts_total",
				Help: "Total number of checkout attempts by outcome",
			},
			[]string{"outcome"},
		),
		CheckoutAmountTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_checkout_amount_minor_total",
				Help: "Sum of checkout amounts in minor currency units by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.HTTPRequestsTotal, m.HTTPRequestDuration, m.CheckoutsTotal, m.CheckoutAmountTotal)

	return m
}

// ObserveRequest records one completed API request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveCheckout records one checkout attempt; zero amounts only bump the count.
func (m *Metrics) ObserveCheckout(outcome string, amount int64) {
	m.CheckoutsTotal.WithLabelValues(outcome).Inc()
	if amount > 0 {
		m.CheckoutAmountTotal.WithLabelValues(outcome).Add(float64(amount))
	}
}
