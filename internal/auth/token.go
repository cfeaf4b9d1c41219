// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/storefront/internal/apperr"
)

// Token configuration.
const (
	TokenBytes      = 32 // 32 bytes = 64 hex chars
	ConfirmTokenTTL = time.Hour
	ResetTokenTTL   = 15 * time.Minute
)

// TTL returns how long a token of this kind stays valid.
func (k TokenKind) TTL() time.Duration {
	if k == TokenReset {
		return ResetTokenTTL
	}
	return ConfirmTokenTTL
}

// Valid reports whether k is a known token kind.
func (k TokenKind) Valid() bool {
	return k == TokenConfirm || k == TokenReset
}

// TokenLedger issues and consumes single-use expiring tokens. Each user holds
// at most one outstanding token per kind; issuing replaces it.
type TokenLedger struct {
	store  TokenStore
	random io.Reader
	now    func() time.Time
}

// LedgerOption configures a TokenLedger.
type LedgerOption func(*TokenLedger)

// WithTokenSource replaces crypto/rand as the token byte source.
func WithTokenSource(r io.Reader) LedgerOption {
	return func(l *TokenLedger) { l.random = r }
}

// WithLedgerClock replaces time.Now.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *TokenLedger) { l.now = now }
}

// NewTokenLedger creates a TokenLedger over store.
func NewTokenLedger(store TokenStore, opts ...LedgerOption) (*TokenLedger, error) {
	if store == nil {
		return nil, oops.Code("TOKEN_LEDGER_INVALID").Errorf("token store is required")
	}
	l := &TokenLedger{store: store, random: rand.Reader, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Issue generates a token of kind for userID and stores it with its expiry.
// Returns the plaintext token for delivery to the user.
func (l *TokenLedger) Issue(ctx context.Context, userID ulid.ULID, kind TokenKind) (string, error) {
	if !kind.Valid() {
		return "", oops.Code("TOKEN_INVALID_KIND").With("kind", string(kind)).Errorf("unknown token kind")
	}

	b := make([]byte, TokenBytes)
	if _, err := io.ReadFull(l.random, b); err != nil {
		return "", oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "read random bytes").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}
	token := hex.EncodeToString(b)

	expiresAt := l.now().Add(kind.TTL())
	if err := l.store.SetToken(ctx, userID, kind, token, expiresAt); err != nil {
		return "", oops.Code("TOKEN_ISSUE_FAILED").
			With("user_id", userID.String()).
			With("kind", string(kind)).
			Wrap(err)
	}
	return token, nil
}

// Consume redeems token for kind, applying effect in the same storage
// operation. Unknown, expired and already used tokens all fail with
// TokenInvalidOrExpired.
func (l *TokenLedger) Consume(ctx context.Context, kind TokenKind, token string, effect TokenEffect) (*User, error) {
	if !kind.Valid() {
		return nil, oops.Code("TOKEN_INVALID_KIND").With("kind", string(kind)).Errorf("unknown token kind")
	}
	if !ValidHexToken(token) {
		return nil, apperr.TokenInvalidOrExpired(string(kind))
	}

	user, err := l.store.ConsumeToken(ctx, kind, token, l.now(), effect)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.TokenInvalidOrExpired(string(kind))
	}
	if err != nil {
		return nil, oops.Code("TOKEN_CONSUME_FAILED").
			With("kind", string(kind)).
			Wrap(err)
	}
	return user, nil
}
