// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"

	"github.com/holomush/storefront/internal/apperr"
)

// StripeConfig configures the Stripe gateway.
type StripeConfig struct {
	SecretKey string
	// BackendURL overrides the Stripe API base URL. Empty uses the default.
	BackendURL string
	Timeout    time.Duration
	Logger     *slog.Logger
}

// StripeGateway implements Gateway with the Stripe charges API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a StripeGateway.
func NewStripeGateway(cfg StripeConfig) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, oops.Code("PAYMENT_CONFIG_INVALID").Errorf("stripe secret key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &slogLogger{logger: logger.With("component", "stripe")},
	}
	if cfg.BackendURL != "" {
		backendCfg.URL = stripe.String(cfg.BackendURL)
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}
	return &StripeGateway{api: client.New(cfg.SecretKey, backends)}, nil
}

// Charge creates a Stripe charge for the tokenized source.
func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (Charge, error) {
	currency := req.Currency
	if currency == "" {
		currency = CurrencyGBP
	}
	params := &stripe.ChargeParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(currency),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	if err := params.SetSource(req.Source); err != nil {
		return Charge{}, apperr.PaymentDeclined("invalid_source", "", err)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	ch, err := g.api.Charges.New(params)
	if err != nil {
		return Charge{}, mapStripeError(err)
	}
	return Charge{ID: ch.ID, Amount: ch.Amount, Currency: string(ch.Currency)}, nil
}

func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
		code := string(stripeErr.DeclineCode)
		if code == "" {
			code = string(stripeErr.Code)
		}
		return apperr.PaymentDeclined(code, stripeErr.Msg, err)
	}
	return apperr.PaymentGatewayError(err)
}

// slogLogger adapts slog to stripe.LeveledLoggerInterface.
type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l *slogLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l *slogLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l *slogLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

var (
	_ Gateway                       = (*StripeGateway)(nil)
	_ stripe.LeveledLoggerInterface = (*slogLogger)(nil)
)
