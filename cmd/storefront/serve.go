// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/storefront/internal/auth"
	authpg "github.com/holomush/storefront/internal/auth/postgres"
	"github.com/holomush/storefront/internal/config"
	"github.com/holomush/storefront/internal/logging"
	"github.com/holomush/storefront/internal/notify"
	"github.com/holomush/storefront/internal/observability"
	"github.com/holomush/storefront/internal/payment"
	"github.com/holomush/storefront/internal/shop"
	shoppg "github.com/holomush/storefront/internal/shop/postgres"
	"github.com/holomush/storefront/internal/store"
	"github.com/holomush/storefront/internal/web"
	"github.com/holomush/storefront/pkg/errutil"
)

// readinessTimeout bounds the database ping behind the readiness endpoint.
const readinessTimeout = 2 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the storefront API server",
		Long: `Start the JSON API server. Secrets are read from DATABASE_URL,
STOREFRONT_SESSION_SECRET, STRIPE_SECRET_KEY, SMTP_USERNAME and SMTP_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err //nolint:wrapcheck // already coded
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// runServeWithDeps starts the API server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := logging.Setup("storefront", version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	if err := cfg.RequireServeSecrets(); err != nil {
		return err //nolint:wrapcheck // already coded
	}

	logger.Info("starting storefront",
		"addr", cfg.Server.Addr,
		"metrics_addr", cfg.Server.MetricsAddr,
		"log_level", cfg.Log.Level,
	)

	pool, err := deps.PoolFactory(ctx, cfg.Secrets.DatabaseURL, store.ConnectOptions{
		MaxRetries: cfg.Database.ConnectRetries,
		BaseDelay:  cfg.Database.ConnectBaseDelay,
		MaxConns:   cfg.Database.MaxConns,
		Logger:     logger,
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	logger.Info("connected to database")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Server.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Server.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), readinessTimeout)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		}, logger)
		metrics = obsServer.Metrics()
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	handler, err := buildHandler(cfg, pool, metrics, logger, deps)
	if err != nil {
		return err
	}

	listener, err := deps.ListenerFactory("tcp", cfg.Server.Addr)
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", cfg.Server.Addr).Wrap(err)
	}

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
	apiErrCh := make(chan error, 1)
	go func() {
		defer close(apiErrCh)
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			apiErrCh <- serveErr
		}
	}()

	if obsServer != nil {
		obsErrCh, err := obsServer.Start()
		if err != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer shutdownCancel()
			if stopErr := httpServer.Shutdown(shutdownCtx); stopErr != nil {
				logger.Warn("failed to stop API server during cleanup", "error", stopErr)
			}
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability", logger)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Printf("Storefront API listening on %s\n", listener.Addr())
	logger.Info("storefront ready", "addr", listener.Addr().String())

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err, ok := <-apiErrCh:
		if ok && err != nil {
			serveErr = oops.Code("API_SERVE_FAILED").With("addr", cfg.Server.Addr).Wrap(err)
			errutil.LogError(logger, "API server failed", serveErr)
		}
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping API server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return serveErr
}

// buildHandler wires repositories, services and the API handler.
func buildHandler(cfg *config.Config, pool Pool, metrics *observability.Metrics, logger *slog.Logger, deps *ServeDeps) (*web.Handler, error) {
	users := authpg.NewUserRepository(pool)

	hasher := auth.NewArgon2idHasher(auth.WithHashParams(auth.HashParams{
		Memory:  cfg.Hash.Memory,
		Time:    cfg.Hash.Time,
		Threads: cfg.Hash.Threads,
		SaltLen: auth.DefaultHashParams().SaltLen,
		KeyLen:  auth.DefaultHashParams().KeyLen,
	}))

	ledger, err := auth.NewTokenLedger(users)
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}

	sessions, err := auth.NewSessionIssuer(auth.SessionConfig{
		Secret:     []byte(cfg.Secrets.SessionSecret),
		TTL:        cfg.Session.TTL,
		Issuer:     cfg.Session.Issuer,
		CookieName: cfg.Session.CookieName,
		Domain:     cfg.Session.Domain,
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.SMTP.Host != "" {
		notifier, err = deps.NotifierFactory(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.Secrets.SMTPUsername,
			Password: cfg.Secrets.SMTPPassword,
			From:     cfg.SMTP.From,
		})
		if err != nil {
			return nil, err //nolint:wrapcheck // already coded
		}
	} else {
		logger.Warn("no smtp relay configured, account emails will only be logged")
	}

	mailer, err := notify.NewAccountMailer(notifier, cfg.Server.FrontendURL)
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}

	gateway, err := deps.GatewayFactory(payment.StripeConfig{
		SecretKey:  cfg.Secrets.StripeSecretKey,
		BackendURL: cfg.Stripe.BackendURL,
		Timeout:    cfg.Stripe.Timeout,
		Logger:     logger,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}

	accounts, err := auth.NewService(users, hasher, ledger, sessions, mailer, auth.WithLogger(logger))
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}

	shopSvc, err := shop.NewService(
		shoppg.NewItemRepository(pool),
		shoppg.NewCartRepository(pool),
		shoppg.NewOrderRepository(pool),
		gateway,
		store.NewTransactor(pool),
		shop.WithLogger(logger),
		shop.WithCheckoutObserver(metrics),
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}

	return web.NewHandler(accounts, shopSvc, sessions, users,
		web.WithLogger(logger),
		web.WithRequestObserver(metrics),
	)
}

// monitorServerErrors cancels ctx when a server reports an error.
// It exits when an error arrives, the channel closes, or ctx is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
