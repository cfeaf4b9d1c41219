// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/storefront/internal/apperr"
	"github.com/holomush/storefront/internal/auth"
	"github.com/holomush/storefront/pkg/errutil"
)

func TestValidPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Passw0rd!", true},
		{"aB3/aaaa", true},
		{"Abcdefg1[", true},
		{"password1!", false},              // no uppercase
		{"PASSWORD1!", false},              // no lowercase
		{"Password!!", false},              // no digit
		{"Password11", false},              // no symbol
		{"Pa1!", false},                    // too short
		{strings.Repeat("Aa1!", 8), false}, // 32 chars
		{"Passw0rd! ", false},              // space not allowed
		{"Passw0rd!é", false},              // non-ascii not allowed
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.ValidPassword(tt.password))
		})
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"alice@example.com", true},
		{"a.b+c@shop.co.uk", true},
		{"alice@localhost", false},
		{"alice", false},
		{"Alice <alice@example.com>", false},
		{"@example.com", false},
		{"alice@example.", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.ValidEmail(tt.email))
		})
	}
}

func TestValidateSignUp(t *testing.T) {
	t.Run("valid input passes", func(t *testing.T) {
		err := auth.ValidateSignUp(auth.SignUpInput{
			Name: "alice", Email: "alice@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!",
		})
		assert.NoError(t, err)
	})

	t.Run("collects every violation", func(t *testing.T) {
		err := auth.ValidateSignUp(auth.SignUpInput{
			Name: "al", Email: "nope", Password: "weak", ConfirmPassword: "other",
		})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, apperr.CodeValidation)

		assert.Equal(t, []string{
			`"name" length must be at least 3 characters long`,
			`"email" must be a valid email`,
			`"password" does not meet complexity the requirements`,
			`"password" and "confirm password" do not match`,
		}, apperr.Violations(err))
	})

	t.Run("empty fields", func(t *testing.T) {
		err := auth.ValidateSignUp(auth.SignUpInput{})
		require.Error(t, err)
		assert.Equal(t, []string{
			`"name" is not allowed to be empty`,
			`"email" is not allowed to be empty`,
			`"password" is not allowed to be empty`,
		}, apperr.Violations(err))
	})

	t.Run("name too long counts characters", func(t *testing.T) {
		err := auth.ValidateSignUp(auth.SignUpInput{
			Name: strings.Repeat("é", 31), Email: "alice@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!",
		})
		require.Error(t, err)
		errutil.AssertViolation(t, err, `"name" length must be less than or equal to 30 characters long`)

		err = auth.ValidateSignUp(auth.SignUpInput{
			Name: strings.Repeat("é", 30), Email: "alice@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!",
		})
		assert.NoError(t, err)
	})

	t.Run("confirm mismatch is reported last", func(t *testing.T) {
		err := auth.ValidateSignUp(auth.SignUpInput{
			Name: "alice", Email: "bad", Password: "Passw0rd!", ConfirmPassword: "Passw0rd?",
		})
		require.Error(t, err)
		v := apperr.Violations(err)
		require.Len(t, v, 2)
		assert.Equal(t, `"password" and "confirm password" do not match`, v[1])
	})
}

func TestValidateResetPassword(t *testing.T) {
	t.Run("non-hex token", func(t *testing.T) {
		err := auth.ValidateResetPassword(auth.ResetPasswordInput{
			ResetToken: "not-hex", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!",
		})
		require.Error(t, err)
		errutil.AssertViolation(t, err, `"resetToken" must only contain hexadecimal characters`)
	})

	t.Run("empty token", func(t *testing.T) {
		err := auth.ValidateResetPassword(auth.ResetPasswordInput{Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"})
		require.Error(t, err)
		errutil.AssertViolation(t, err, `"resetToken" is not allowed to be empty`)
	})

	t.Run("valid", func(t *testing.T) {
		err := auth.ValidateResetPassword(auth.ResetPasswordInput{
			ResetToken: strings.Repeat("ab", 32), Password: "Passw0rd!", ConfirmPassword: "Passw0rd!",
		})
		assert.NoError(t, err)
	})
}

func TestValidateChangePassword(t *testing.T) {
	err := auth.ValidateChangePassword(auth.ChangePasswordInput{Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"})
	require.Error(t, err)
	assert.Equal(t, []string{`"currentPassword" is not allowed to be empty`}, apperr.Violations(err))
}

func TestValidateChangeEmail(t *testing.T) {
	err := auth.ValidateChangeEmail(auth.ChangeEmailInput{
		Password: "x", Email: "new@example.com", ConfirmEmail: "other@example.com",
	})
	require.Error(t, err)
	assert.Equal(t, []string{`"email" and "confirm email" do not match`}, apperr.Violations(err))

	assert.NoError(t, auth.ValidateChangeEmail(auth.ChangeEmailInput{
		Password: "x", Email: "new@example.com", ConfirmEmail: "new@example.com",
	}))
}

func TestValidateResetRequest(t *testing.T) {
	assert.NoError(t, auth.ValidateResetRequest(" alice@example.com "))

	err := auth.ValidateResetRequest("")
	require.Error(t, err)
	errutil.AssertViolation(t, err, `"email" is not allowed to be empty`)
}
