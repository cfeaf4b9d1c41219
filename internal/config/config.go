// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads storefront configuration from a YAML file, command
// line flags and environment secrets.
package config

import (
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full storefront configuration. Secrets never come from the file.
type Config struct {
	Server   ServerConfig   `json:"server,omitempty" jsonschema:"description=HTTP server settings"`
	Log      LogConfig      `json:"log,omitempty"`
	Database DatabaseConfig `json:"database,omitempty"`
	Session  SessionConfig  `json:"session,omitempty"`
	Hash     HashConfig     `json:"hash,omitempty" jsonschema:"description=argon2id work factor"`
	SMTP     SMTPConfig     `json:"smtp,omitempty" jsonschema:"description=Outbound mail relay; empty host logs mail instead"`
	Stripe   StripeConfig   `json:"stripe,omitempty"`
	Secrets  Secrets        `json:"-"`
}

// ServerConfig configures the HTTP listeners.
type ServerConfig struct {
	Addr              string        `json:"addr,omitempty" jsonschema:"description=API listen address"`
	MetricsAddr       string        `json:"metrics_addr,omitempty" jsonschema:"description=Metrics and health listen address; empty disables"`
	FrontendURL       string        `json:"frontend_url,omitempty" jsonschema:"format=uri,description=Base URL used in account emails"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout,omitempty"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// DatabaseConfig tunes the connection pool.
type DatabaseConfig struct {
	MaxConns         int32         `json:"max_conns,omitempty" jsonschema:"minimum=1"`
	ConnectRetries   uint64        `json:"connect_retries,omitempty"`
	ConnectBaseDelay time.Duration `json:"connect_base_delay,omitempty"`
}

// SessionConfig configures the session cookie.
type SessionConfig struct {
	TTL        time.Duration `json:"ttl,omitempty"`
	Issuer     string        `json:"issuer,omitempty"`
	CookieName string        `json:"cookie_name,omitempty"`
	Domain     string        `json:"domain,omitempty"`
	Secure     bool          `json:"secure,omitempty"`
}

// HashConfig sets the argon2id parameters.
type HashConfig struct {
	Memory  uint32 `json:"memory,omitempty" jsonschema:"minimum=8,description=KiB"`
	Time    uint32 `json:"time,omitempty" jsonschema:"minimum=1"`
	Threads uint8  `json:"threads,omitempty" jsonschema:"minimum=1"`
}

// SMTPConfig configures the mail relay.
type SMTPConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty" jsonschema:"minimum=1,maximum=65535"`
	From string `json:"from,omitempty" jsonschema:"format=email"`
}

// StripeConfig configures the payment gateway.
type StripeConfig struct {
	BackendURL string        `json:"backend_url,omitempty" jsonschema:"description=Overrides the Stripe API base URL"`
	Timeout    time.Duration `json:"timeout,omitempty"`
}

// Secrets are read from the environment only.
type Secrets struct {
	DatabaseURL     string `env:"DATABASE_URL"`
	SessionSecret   string `env:"STOREFRONT_SESSION_SECRET"`
	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
	SMTPUsername    string `env:"SMTP_USERNAME"`
	SMTPPassword    string `env:"SMTP_PASSWORD"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":7777",
			MetricsAddr:       "127.0.0.1:9100",
			FrontendURL:       "http://localhost:7777",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Log: LogConfig{Format: "json", Level: "info"},
		Database: DatabaseConfig{
			MaxConns:         10,
			ConnectRetries:   5,
			ConnectBaseDelay: 500 * time.Millisecond,
		},
		Session: SessionConfig{
			TTL:        7 * 24 * time.Hour,
			Issuer:     "storefront",
			CookieName: "token",
		},
		Hash:   HashConfig{Memory: 64 * 1024, Time: 1, Threads: 4},
		SMTP:   SMTPConfig{Port: 587, From: "noreply@fullstackshop.com"},
		Stripe: StripeConfig{Timeout: 30 * time.Second},
	}
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"addr":         "server.addr",
	"metrics-addr": "server.metrics_addr",
	"frontend-url": "server.frontend_url",
	"log-format":   "log.format",
	"log-level":    "log.level",
}

// RegisterFlags adds the config override flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("addr", d.Server.Addr, "API listen address")
	fs.String("metrics-addr", d.Server.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("frontend-url", d.Server.FrontendURL, "frontend base URL used in emails")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then changed flags in fs (if any), then secrets from environ.
// A nil environ reads the process environment.
func Load(path string, fs *pflag.FlagSet, environ map[string]string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateYAML(data); err != nil {
			return nil, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}

	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg.Secrets, opts); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that do not depend on secrets.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").With("log.format", c.Log.Format).
			Errorf("log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").With("log.level", c.Log.Level).
			Errorf("log level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr is required")
	}
	if u, err := url.Parse(c.Server.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return oops.Code("CONFIG_INVALID").With("server.frontend_url", c.Server.FrontendURL).
			Errorf("server.frontend_url must be an absolute URL")
	}
	if c.Session.TTL <= 0 {
		return oops.Code("CONFIG_INVALID").With("session.ttl", c.Session.TTL.String()).
			Errorf("session.ttl must be positive")
	}
	if c.Hash.Memory == 0 || c.Hash.Time == 0 || c.Hash.Threads == 0 {
		return oops.Code("CONFIG_INVALID").Errorf("hash parameters must be positive")
	}
	return nil
}

// RequireServeSecrets checks the secrets the API server cannot start without.
func (c *Config) RequireServeSecrets() error {
	switch {
	case c.Secrets.DatabaseURL == "":
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	case c.Secrets.SessionSecret == "":
		return oops.Code("CONFIG_INVALID").Errorf("STOREFRONT_SESSION_SECRET environment variable is required")
	case c.Secrets.StripeSecretKey == "":
		return oops.Code("CONFIG_INVALID").Errorf("STRIPE_SECRET_KEY environment variable is required")
	}
	return nil
}
