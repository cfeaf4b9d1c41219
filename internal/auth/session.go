// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session defaults.
const (
	DefaultSessionCookie = "token"
	DefaultSessionTTL    = 7 * 24 * time.Hour
	DefaultSessionIssuer = "storefront"
	MinSessionSecretLen  = 32
)

// ResponseSink receives the Set-Cookie header. http.ResponseWriter satisfies it.
type ResponseSink interface {
	Header() http.Header
}

// SessionConfig configures a SessionIssuer.
type SessionConfig struct {
	Secret     []byte
	TTL        time.Duration
	Issuer     string
	CookieName string
	Domain     string
	Secure     bool
}

// SessionIssuer mints and verifies the signed session cookie. It keeps no
// server-side state; a session is valid until its exp claim passes.
type SessionIssuer struct {
	cfg SessionConfig
	now func() time.Time
}

// SessionOption configures a SessionIssuer.
type SessionOption func(*SessionIssuer)

// WithSessionClock replaces time.Now for signing and verification.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionIssuer) { s.now = now }
}

// NewSessionIssuer creates a SessionIssuer. Zero-valued config fields take defaults.
func NewSessionIssuer(cfg SessionConfig, opts ...SessionOption) (*SessionIssuer, error) {
	if len(cfg.Secret) < MinSessionSecretLen {
		return nil, oops.Code("SESSION_SECRET_TOO_SHORT").
			With("min_length", MinSessionSecretLen).
			Errorf("session secret must be at least %d bytes", MinSessionSecretLen)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultSessionIssuer
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookie
	}
	s := &SessionIssuer{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CookieName returns the name of the session cookie.
func (s *SessionIssuer) CookieName() string {
	return s.cfg.CookieName
}

// Issue signs a session for user and sets it on sink.
func (s *SessionIssuer) Issue(sink ResponseSink, user *User) error {
	if user == nil || user.ID.Compare(ulid.ULID{}) == 0 {
		return oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}

	token, err := s.Sign(user.ID)
	if err != nil {
		return err
	}

	s.setCookie(sink, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		MaxAge:   int(s.cfg.TTL.Seconds()),
		Expires:  s.now().Add(s.cfg.TTL).UTC(),
		Path:     "/",
		Domain:   s.cfg.Domain,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Revoke expires the session cookie on sink. Calling it without a session is harmless.
func (s *SessionIssuer) Revoke(sink ResponseSink) {
	s.setCookie(sink, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		Path:     "/",
		Domain:   s.cfg.Domain,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Sign returns a signed session token for userID.
func (s *SessionIssuer) Sign(userID ulid.ULID) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    s.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", oops.Code("SESSION_SIGN_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return token, nil
}

// Verify parses a session token and returns the user it is bound to.
func (s *SessionIssuer) Verify(raw string) (ulid.ULID, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		code := "SESSION_INVALID"
		if errors.Is(err, jwt.ErrTokenExpired) {
			code = "SESSION_EXPIRED"
		}
		return ulid.ULID{}, oops.Code(code).Wrap(err)
	}

	id, err := ulid.Parse(claims.Subject)
	if err != nil {
		return ulid.ULID{}, oops.Code("SESSION_INVALID").With("subject", claims.Subject).Wrap(err)
	}
	return id, nil
}

// Authenticate resolves the caller of r from its session cookie. A request
// without a cookie is anonymous with a nil error; an unverifiable cookie is
// anonymous with the verification error.
func (s *SessionIssuer) Authenticate(r *http.Request) (Caller, error) {
	c, err := r.Cookie(s.cfg.CookieName)
	if err != nil || c.Value == "" {
		return Anonymous(), nil
	}
	id, err := s.Verify(c.Value)
	if err != nil {
		return Anonymous(), err
	}
	return Authenticated(id), nil
}

func (s *SessionIssuer) setCookie(sink ResponseSink, c *http.Cookie) {
	if v := c.String(); v != "" {
		sink.Header().Add("Set-Cookie", v)
	}
}
