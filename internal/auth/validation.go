// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/holomush/storefront/internal/apperr"
)

// Name length limits, in characters.
const (
	MinNameLength = 3
	MaxNameLength = 30
)

// passwordSymbols is the symbol set a password may draw from; one is required.
const passwordSymbols = `/,.?;<>:!@#$%^&*()\-=_+|{}\[\]`

var (
	passwordAllowed = regexp.MustCompile(`^[A-Za-z\d` + passwordSymbols + `]{8,30}$`)
	passwordLower   = regexp.MustCompile(`[a-z]`)
	passwordUpper   = regexp.MustCompile(`[A-Z]`)
	passwordDigit   = regexp.MustCompile(`\d`)
	passwordSymbol  = regexp.MustCompile(`[` + passwordSymbols + `]`)
	hexToken        = regexp.MustCompile(`^[0-9A-Fa-f]+$`)
)

// SignUpInput is the payload of a sign-up request.
type SignUpInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// SignInInput is the payload of a sign-in request.
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetPasswordInput completes a password reset.
type ResetPasswordInput struct {
	ResetToken      string `json:"resetToken"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ChangePasswordInput replaces the password of an authenticated user.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ChangeEmailInput replaces the email of an authenticated user.
type ChangeEmailInput struct {
	Password     string `json:"password"`
	Email        string `json:"email"`
	ConfirmEmail string `json:"confirmEmail"`
}

// violations accumulates rule failures so every one is reported at once.
type violations []string

func (v *violations) add(format string, args ...any) {
	*v = append(*v, fmt.Sprintf(format, args...))
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return apperr.Validation(v)
}

// ValidateSignUp checks a sign-up payload.
func ValidateSignUp(in SignUpInput) error {
	var v violations
	checkName(&v, in.Name)
	checkEmail(&v, "email", in.Email)
	checkPassword(&v, in.Password)
	if in.ConfirmPassword != in.Password {
		v.add(`"password" and "confirm password" do not match`)
	}
	return v.err()
}

// ValidateResetRequest checks the email of a reset request.
func ValidateResetRequest(email string) error {
	var v violations
	checkEmail(&v, "email", email)
	return v.err()
}

// ValidateResetPassword checks a reset-password payload.
func ValidateResetPassword(in ResetPasswordInput) error {
	var v violations
	checkHexToken(&v, "resetToken", in.ResetToken)
	checkPassword(&v, in.Password)
	if in.ConfirmPassword != in.Password {
		v.add(`"password" and "confirm password" do not match`)
	}
	return v.err()
}

// ValidateChangePassword checks a change-password payload.
func ValidateChangePassword(in ChangePasswordInput) error {
	var v violations
	checkRequired(&v, "currentPassword", in.CurrentPassword)
	checkPassword(&v, in.Password)
	if in.ConfirmPassword != in.Password {
		v.add(`"password" and "confirm password" do not match`)
	}
	return v.err()
}

// ValidateChangeEmail checks a change-email payload.
func ValidateChangeEmail(in ChangeEmailInput) error {
	var v violations
	checkRequired(&v, "password", in.Password)
	checkEmail(&v, "email", in.Email)
	if in.ConfirmEmail != in.Email {
		v.add(`"email" and "confirm email" do not match`)
	}
	return v.err()
}

// ValidPassword reports whether password satisfies the complexity rule.
func ValidPassword(password string) bool {
	return passwordAllowed.MatchString(password) &&
		passwordLower.MatchString(password) &&
		passwordUpper.MatchString(password) &&
		passwordDigit.MatchString(password) &&
		passwordSymbol.MatchString(password)
}

// ValidEmail reports whether email is a bare address with a dotted domain.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".") && !strings.HasPrefix(domain, ".")
}

// ValidHexToken reports whether token is a non-empty hexadecimal string.
func ValidHexToken(token string) bool {
	return hexToken.MatchString(token)
}

func checkRequired(v *violations, field, value string) bool {
	if value == "" {
		v.add(`%q is not allowed to be empty`, field)
		return false
	}
	return true
}

func checkName(v *violations, name string) {
	if !checkRequired(v, "name", name) {
		return
	}
	switch n := utf8.RuneCountInString(name); {
	case n < MinNameLength:
		v.add(`"name" length must be at least %d characters long`, MinNameLength)
	case n > MaxNameLength:
		v.add(`"name" length must be less than or equal to %d characters long`, MaxNameLength)
	}
}

func checkEmail(v *violations, field, email string) {
	if !checkRequired(v, field, strings.TrimSpace(email)) {
		return
	}
	if !ValidEmail(strings.TrimSpace(email)) {
		v.add(`%q must be a valid email`, field)
	}
}

func checkPassword(v *violations, password string) {
	if !checkRequired(v, "password", password) {
		return
	}
	if !ValidPassword(password) {
		v.add(`"password" does not meet complexity the requirements`)
	}
}

func checkHexToken(v *violations, field, token string) {
	if !checkRequired(v, field, token) {
		return
	}
	if !ValidHexToken(token) {
		v.add(`%q must only contain hexadecimal characters`, field)
	}
}
