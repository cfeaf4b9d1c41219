// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package apperr defines the closed set of caller-facing storefront errors.
//
// Every variant is an oops error carrying one of the Code* constants and the
// structured context listed on its constructor. Callers branch on the code
// with Is or CodeOf; transports render the public message with Message.
package apperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Error codes for caller-facing failures.
const (
	CodeValidation             = "VALIDATION_FAILED"
	CodeUnauthenticated        = "UNAUTHENTICATED"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeAlreadyAuthenticated   = "ALREADY_AUTHENTICATED"
	CodeIncorrectCredentials   = "INCORRECT_CREDENTIALS"
	CodeInvalidPassword        = "INVALID_PASSWORD"
	CodeInvalidCurrentPassword = "INVALID_CURRENT_PASSWORD"
	CodeTokenInvalidOrExpired  = "TOKEN_INVALID_OR_EXPIRED"
	CodePaymentDeclined        = "PAYMENT_DECLINED"
	CodePaymentGateway         = "PAYMENT_GATEWAY_ERROR"
	CodePostPaymentWrite       = "POST_PAYMENT_WRITE_FAILURE"
	CodeNotFound               = "NOT_FOUND"
	CodeAlreadyConfirmed       = "ALREADY_CONFIRMED"
	CodeUserLookup             = "USER_LOOKUP_FAILURE"
	CodeEmailTaken             = "EMAIL_TAKEN"
)

const genericMessage = "Something went wrong. Try again."

// Validation creates an error listing every violated input rule.
func Validation(violations []string) error {
	v := make([]string, len(violations))
	copy(v, violations)
	return oops.Code(CodeValidation).
		With("violations", v).
		Errorf("%s", strings.Join(v, ". "))
}

// Unauthenticated is returned when a protected operation has no valid session.
func Unauthenticated() error {
	return oops.Code(CodeUnauthenticated).Errorf("you must be logged in to do that")
}

// Unauthorized is returned when the caller lacks every one of the required permissions.
func Unauthorized(required []string) error {
	return oops.Code(CodeUnauthorized).
		With("required", required).
		Errorf("You don't have sufficient permissions : %s", strings.Join(required, ", "))
}

// AlreadyAuthenticated is returned when an action requires an anonymous caller.
func AlreadyAuthenticated() error {
	return oops.Code(CodeAlreadyAuthenticated).Errorf("You are already logged in!")
}

// IncorrectCredentials covers both an unknown email and a wrong password.
func IncorrectCredentials() error {
	return oops.Code(CodeIncorrectCredentials).Errorf("Incorrect email or password")
}

// InvalidPassword is returned when a re-entered password does not match.
func InvalidPassword() error {
	return oops.Code(CodeInvalidPassword).Errorf("Invalid password")
}

// InvalidCurrentPassword is returned by change-password on a wrong current password.
func InvalidCurrentPassword() error {
	return oops.Code(CodeInvalidCurrentPassword).Errorf("Invalid password")
}

// TokenInvalidOrExpired never distinguishes an unknown token from an expired one.
func TokenInvalidOrExpired(kind string) error {
	return oops.Code(CodeTokenInvalidOrExpired).
		With("kind", kind).
		Errorf("Token invalid or expired")
}

// PaymentDeclined is returned when the gateway rejects the payment source.
func PaymentDeclined(declineCode, message string, cause error) error {
	if message == "" {
		message = "Your payment was declined"
	}
	b := oops.Code(CodePaymentDeclined).
		With("decline_code", declineCode).
		With("message", message)
	return withCause(b, cause).Errorf("%s", message)
}

// PaymentGatewayError is returned when the gateway could not be reached or failed.
func PaymentGatewayError(cause error) error {
	return withCause(oops.Code(CodePaymentGateway), cause).Errorf("payment gateway failure")
}

// PostPaymentWriteFailure is returned when a charge succeeded but the order
// could not be recorded. The charge id is kept for reconciliation.
func PostPaymentWriteFailure(chargeID string, amount int64, cause error) error {
	b := oops.Code(CodePostPaymentWrite).
		With("charge_id", chargeID).
		With("amount", amount)
	return withCause(b, cause).Errorf("order write failed after charge %s", chargeID)
}

// NotFound is returned when a referenced resource is absent or not owned by the caller.
func NotFound(resource, id, message string) error {
	if message == "" {
		message = resource + " not found"
	}
	return oops.Code(CodeNotFound).
		With("resource", resource).
		With("id", id).
		With("message", message).
		Errorf("%s", message)
}

// AlreadyConfirmed is returned when a confirmation is requested for a confirmed account.
func AlreadyConfirmed() error {
	return oops.Code(CodeAlreadyConfirmed).Errorf("Account has already been confirmed")
}

// UserLookupFailure is returned when the authenticated user no longer exists.
func UserLookupFailure(cause error) error {
	return withCause(oops.Code(CodeUserLookup), cause).Errorf("Problem with requesting confirm token")
}

// EmailTaken is returned when sign-up or change-email hits an existing address.
func EmailTaken(cause error) error {
	return withCause(oops.Code(CodeEmailTaken), cause).Errorf("Email already in use")
}

// withCause records the cause text instead of wrapping it: oops reports the
// deepest code in a chain, and these variants must keep their own code.
func withCause(b oops.OopsErrorBuilder, cause error) oops.OopsErrorBuilder {
	if cause == nil {
		return b
	}
	return b.With("cause", cause.Error())
}

// CodeOf returns the oops code of err, or "" for plain errors.
func CodeOf(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string) //nolint:errcheck // non-string codes are treated as absent
	return code
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// Violations returns the validation messages carried by a ValidationError.
func Violations(err error) []string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	v, _ := oopsErr.Context()["violations"].([]string) //nolint:errcheck // absent for other codes
	return v
}

// ChargeID returns the charge identifier carried by a PostPaymentWriteFailure.
func ChargeID(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	id, _ := oopsErr.Context()["charge_id"].(string) //nolint:errcheck // absent for other codes
	return id
}

// Message extracts the caller-facing message from an error.
// Internal failures collapse to a generic message.
func Message(err error) string {
	if err == nil {
		return genericMessage
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return genericMessage
	}
	ctx := oopsErr.Context()

	switch CodeOf(err) {
	case CodeValidation:
		if v, ok := ctx["violations"].([]string); ok && len(v) > 0 {
			return strings.Join(v, ". ")
		}
		return "Invalid input"
	case CodeUnauthenticated:
		return "you must be logged in to do that"
	case CodeUnauthorized:
		if req, ok := ctx["required"].([]string); ok && len(req) > 0 {
			return "You don't have sufficient permissions : " + strings.Join(req, ", ")
		}
		return "You don't have sufficient permissions"
	case CodeAlreadyAuthenticated:
		return "You are already logged in!"
	case CodeIncorrectCredentials:
		return "Incorrect email or password"
	case CodeInvalidPassword, CodeInvalidCurrentPassword:
		return "Invalid password"
	case CodeTokenInvalidOrExpired:
		return "Token invalid or expired"
	case CodePaymentDeclined:
		if msg, ok := ctx["message"].(string); ok && msg != "" {
			return msg
		}
		return "Your payment was declined"
	case CodePaymentGateway:
		return "Payment could not be processed, please try again later"
	case CodePostPaymentWrite:
		if id, ok := ctx["charge_id"].(string); ok && id != "" {
			return "Payment was taken but the order could not be recorded (reference " + id + ")"
		}
		return "Payment was taken but the order could not be recorded"
	case CodeNotFound:
		if msg, ok := ctx["message"].(string); ok && msg != "" {
			return msg
		}
		return "Not found"
	case CodeAlreadyConfirmed:
		return "Account has already been confirmed"
	case CodeUserLookup:
		return "Problem with requesting confirm token"
	case CodeEmailTaken:
		return "Email already in use"
	default:
		return genericMessage
	}
}

// HTTPStatus maps an error to the status code a JSON transport should use.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthenticated, CodeIncorrectCredentials, CodeInvalidPassword, CodeInvalidCurrentPassword:
		return http.StatusUnauthorized
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeAlreadyAuthenticated, CodeAlreadyConfirmed, CodeEmailTaken:
		return http.StatusConflict
	case CodeTokenInvalidOrExpired:
		return http.StatusBadRequest
	case CodePaymentDeclined:
		return http.StatusPaymentRequired
	case CodePaymentGateway:
		return http.StatusBadGateway
	case CodeNotFound, CodeUserLookup:
		return http.StatusNotFound
	default:
		if errors.Is(err, http.ErrHandlerTimeout) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	}
}
