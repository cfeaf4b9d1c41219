// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides account credentials, single-use tokens and sessions
// for the storefront.
//
// # Components
//
//   - PasswordHasher (Argon2idHasher) - salted argon2id digests; verifies legacy bcrypt
//   - TokenLedger - confirmation and reset tokens, consumed atomically by the store
//   - SessionIssuer - stateless signed session cookie
//   - Service - the account operations (sign-up, sign-in, confirm, reset, change)
//
// Every operation receives the Caller explicitly. Protected operations call
// RequireAuthenticated before any other work.
//
// Caller-facing failures are apperr codes; internal failures carry AUTH_*
// and TOKEN_* codes and are reported to clients as a generic error.
package auth
