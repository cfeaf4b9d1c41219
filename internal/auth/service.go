// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/storefront/internal/apperr"
	"github.com/holomush/storefront/pkg/errutil"
)

// Status messages returned by account operations.
const (
	MsgSignedOut        = "See you soon"
	MsgAccountConfirmed = "Account has now been confirmed, please log in!"
	MsgConfirmSent      = "Email sent! please confirm your account"
	MsgResetSent        = "Email sent to your account"
	MsgPasswordUpdated  = "Password successfully updated!"
	MsgEmailUpdated     = "Email successfully updated!"
)

// Status is the result of operations that return no entity.
type Status struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func success(msg string) Status {
	return Status{Status: "Success", Message: msg}
}

// AccountMailer delivers account emails. Calls block until the message is handed off.
type AccountMailer interface {
	SendConfirm(ctx context.Context, to, token string) error
	SendReset(ctx context.Context, to, token string) error
}

// timingPassword is hashed once at construction. Sign-in verifies against its
// digest when no user matches an email, so both paths pay the configured cost.
const timingPassword = "storefront-unknown-account"

// Service provides the account operations of the storefront.
type Service struct {
	users    UserRepository
	hasher   PasswordHasher
	tokens   *TokenLedger
	sessions *SessionIssuer
	mailer   AccountMailer
	logger   *slog.Logger
	now      func() time.Time

	// dummyHash is a digest of timingPassword made with hasher.
	dummyHash string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now for new records.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(
	users UserRepository,
	hasher PasswordHasher,
	tokens *TokenLedger,
	sessions *SessionIssuer,
	mailer AccountMailer,
	opts ...ServiceOption,
) (*Service, error) {
	switch {
	case users == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("user repository is required")
	case hasher == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	case tokens == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token ledger is required")
	case sessions == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("session issuer is required")
	case mailer == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("mailer is required")
	}

	s := &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		mailer:   mailer,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger cannot be nil")
	}
	dummy, err := hasher.Hash(timingPassword)
	if err != nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").With("operation", "hash timing password").Wrap(err)
	}
	s.dummyHash = dummy
	return s, nil
}

// Me returns the caller's user, or nil for an anonymous caller.
func (s *Service) Me(ctx context.Context, caller Caller) (*User, error) {
	if !caller.IsAuthenticated() {
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, caller.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("AUTH_ME_FAILED").With("user_id", caller.UserID.String()).Wrap(err)
	}
	return user, nil
}

// SignUp creates an account, sends its confirmation email and starts a session.
func (s *Service) SignUp(ctx context.Context, caller Caller, sink ResponseSink, in SignUpInput) (*User, error) {
	if err := RequireAnonymous(caller); err != nil {
		return nil, err
	}
	if err := ValidateSignUp(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_SIGN_UP_FAILED").With("operation", "hash password").Wrap(err)
	}
	user, err := NewUser(in.Name, in.Email, hash, s.now())
	if err != nil {
		return nil, oops.Code("AUTH_SIGN_UP_FAILED").With("operation", "build user").Wrap(err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperr.EmailTaken(err)
		}
		return nil, oops.Code("AUTH_SIGN_UP_FAILED").With("operation", "create user").Wrap(err)
	}

	token, err := s.tokens.Issue(ctx, user.ID, TokenConfirm)
	if err != nil {
		return nil, oops.Code("AUTH_SIGN_UP_FAILED").With("operation", "issue confirm token").Wrap(err)
	}
	// The account exists at this point; a lost email is recoverable through RequestConfirm.
	if err := s.mailer.SendConfirm(ctx, user.Email, token); err != nil {
		errutil.LogErrorContext(ctx, s.logger, slog.LevelWarn, "confirmation email not sent", err,
			"user_id", user.ID.String())
	}

	if err := s.sessions.Issue(sink, user); err != nil {
		return nil, oops.Code("AUTH_SIGN_UP_FAILED").With("operation", "issue session").Wrap(err)
	}
	return user, nil
}

// SignIn verifies credentials and starts a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, _ Caller, sink ResponseSink, in SignInInput) (*User, error) {
	user, lookupErr := s.users.GetByEmail(ctx, NormalizeEmail(in.Email))

	var targetHash string
	exists := false
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		exists = true
	case errors.Is(lookupErr, ErrNotFound):
		targetHash = s.dummyHash
	default:
		return nil, oops.Code("AUTH_SIGN_IN_FAILED").With("operation", "get user by email").Wrap(lookupErr)
	}

	// Always verify so both paths cost the same.
	valid, verifyErr := s.hasher.Verify(in.Password, targetHash)
	if verifyErr != nil {
		if !exists {
			return nil, apperr.IncorrectCredentials()
		}
		return nil, oops.Code("AUTH_SIGN_IN_FAILED").With("operation", "verify password").Wrap(verifyErr)
	}
	if !exists || !valid {
		return nil, apperr.IncorrectCredentials()
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user, in.Password)
	}

	if err := s.sessions.Issue(sink, user); err != nil {
		return nil, oops.Code("AUTH_SIGN_IN_FAILED").With("operation", "issue session").Wrap(err)
	}
	return user, nil
}

// upgradeHash rehashes a legacy digest. Failure leaves the old digest in place.
func (s *Service) upgradeHash(ctx context.Context, user *User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, slog.LevelWarn, "password rehash failed", err,
			"user_id", user.ID.String())
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		errutil.LogErrorContext(ctx, s.logger, slog.LevelWarn, "password rehash not stored", err,
			"user_id", user.ID.String())
		return
	}
	user.PasswordHash = hash
}

// SignOut clears the session cookie.
func (s *Service) SignOut(_ context.Context, caller Caller, sink ResponseSink) (Status, error) {
	if _, err := RequireAuthenticated(caller); err != nil {
		return Status{}, err
	}
	s.sessions.Revoke(sink)
	return success(MsgSignedOut), nil
}

// ConfirmAccount redeems a confirmation token.
func (s *Service) ConfirmAccount(ctx context.Context, _ Caller, confirmToken string) (Status, error) {
	if _, err := s.tokens.Consume(ctx, TokenConfirm, confirmToken, TokenEffect{Confirm: true}); err != nil {
		return Status{}, err
	}
	return success(MsgAccountConfirmed), nil
}

// RequestConfirm issues a new confirmation token and emails it to the caller.
func (s *Service) RequestConfirm(ctx context.Context, caller Caller) (Status, error) {
	userID, err := RequireAuthenticated(caller)
	if err != nil {
		return Status{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Status{}, apperr.UserLookupFailure(err)
	}
	if err != nil {
		return Status{}, oops.Code("AUTH_REQUEST_CONFIRM_FAILED").With("operation", "get user").Wrap(err)
	}
	if user.Confirmed {
		return Status{}, apperr.AlreadyConfirmed()
	}

	token, err := s.tokens.Issue(ctx, user.ID, TokenConfirm)
	if err != nil {
		return Status{}, oops.Code("AUTH_REQUEST_CONFIRM_FAILED").With("operation", "issue token").Wrap(err)
	}
	if err := s.mailer.SendConfirm(ctx, user.Email, token); err != nil {
		return Status{}, oops.Code("AUTH_NOTIFY_FAILED").With("user_id", user.ID.String()).Wrap(err)
	}
	return success(MsgConfirmSent), nil
}

// RequestReset emails a reset token when the address belongs to an account.
// The response is the same whether or not it does.
func (s *Service) RequestReset(ctx context.Context, caller Caller, email string) (Status, error) {
	if err := RequireAnonymous(caller); err != nil {
		return Status{}, err
	}
	if err := ValidateResetRequest(email); err != nil {
		return Status{}, err
	}

	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return success(MsgResetSent), nil
	}
	if err != nil {
		return Status{}, oops.Code("AUTH_REQUEST_RESET_FAILED").With("operation", "get user by email").Wrap(err)
	}

	token, err := s.tokens.Issue(ctx, user.ID, TokenReset)
	if err != nil {
		return Status{}, oops.Code("AUTH_REQUEST_RESET_FAILED").With("operation", "issue token").Wrap(err)
	}
	if err := s.mailer.SendReset(ctx, user.Email, token); err != nil {
		errutil.LogErrorContext(ctx, s.logger, slog.LevelError, "reset email not sent", err,
			"user_id", user.ID.String())
	}
	return success(MsgResetSent), nil
}

// ResetPassword redeems a reset token, replacing the password, and starts a session.
func (s *Service) ResetPassword(ctx context.Context, _ Caller, sink ResponseSink, in ResetPasswordInput) (*User, error) {
	if err := ValidateResetPassword(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_RESET_FAILED").With("operation", "hash password").Wrap(err)
	}
	user, err := s.tokens.Consume(ctx, TokenReset, in.ResetToken, TokenEffect{PasswordHash: hash})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Issue(sink, user); err != nil {
		return nil, oops.Code("AUTH_RESET_FAILED").With("operation", "issue session").Wrap(err)
	}
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, caller Caller, in ChangePasswordInput) (Status, error) {
	userID, err := RequireAuthenticated(caller)
	if err != nil {
		return Status{}, err
	}
	if err := ValidateChangePassword(in); err != nil {
		return Status{}, err
	}

	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	if err := s.checkPassword(in.CurrentPassword, user, apperr.InvalidCurrentPassword); err != nil {
		return Status{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Status{}, oops.Code("AUTH_CHANGE_PASSWORD_FAILED").With("operation", "hash password").Wrap(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return Status{}, oops.Code("AUTH_CHANGE_PASSWORD_FAILED").With("operation", "update password").Wrap(err)
	}
	return success(MsgPasswordUpdated), nil
}

// ChangeEmail replaces the caller's email after checking their password.
func (s *Service) ChangeEmail(ctx context.Context, caller Caller, in ChangeEmailInput) (Status, error) {
	userID, err := RequireAuthenticated(caller)
	if err != nil {
		return Status{}, err
	}
	if err := ValidateChangeEmail(in); err != nil {
		return Status{}, err
	}

	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	if err := s.checkPassword(in.Password, user, apperr.InvalidPassword); err != nil {
		return Status{}, err
	}

	if err := s.users.UpdateEmail(ctx, user.ID, NormalizeEmail(in.Email)); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Status{}, apperr.EmailTaken(err)
		}
		return Status{}, oops.Code("AUTH_CHANGE_EMAIL_FAILED").With("operation", "update email").Wrap(err)
	}
	return success(MsgEmailUpdated), nil
}

func (s *Service) currentUser(ctx context.Context, id ulid.ULID) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("user", id.String(), "Error finding details")
	}
	if err != nil {
		return nil, oops.Code("AUTH_USER_LOOKUP_FAILED").With("user_id", id.String()).Wrap(err)
	}
	return user, nil
}

func (s *Service) checkPassword(password string, user *User, mismatch func() error) error {
	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return oops.Code("AUTH_VERIFY_FAILED").With("user_id", user.ID.String()).Wrap(err)
	}
	if !ok {
		return mismatch()
	}
	return nil
}
