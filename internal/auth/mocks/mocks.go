// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks provides testify mocks for the auth interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/storefront/internal/auth"
)

// MockUserRepository is a mock of auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a MockUserRepository that asserts its expectations on cleanup.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUserRepository {
	m := &MockUserRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func userResult(args mock.Arguments) (*auth.User, error) {
	var u *auth.User
	if v := args.Get(0); v != nil {
		u = v.(*auth.User) //nolint:errcheck,forcetypeassert // set by the test
	}
	return u, args.Error(1)
}

// Create mocks auth.UserRepository.Create.
func (m *MockUserRepository) Create(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

// GetByID mocks auth.UserRepository.GetByID.
func (m *MockUserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	return userResult(m.Called(ctx, id))
}

// GetByEmail mocks auth.UserRepository.GetByEmail.
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return userResult(m.Called(ctx, email))
}

// UpdatePassword mocks auth.UserRepository.UpdatePassword.
func (m *MockUserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

// UpdateEmail mocks auth.UserRepository.UpdateEmail.
func (m *MockUserRepository) UpdateEmail(ctx context.Context, id ulid.ULID, email string) error {
	return m.Called(ctx, id, email).Error(0)
}

// SetToken mocks auth.TokenStore.SetToken.
func (m *MockUserRepository) SetToken(ctx context.Context, userID ulid.ULID, kind auth.TokenKind, token string, expiresAt time.Time) error {
	return m.Called(ctx, userID, kind, token, expiresAt).Error(0)
}

// ConsumeToken mocks auth.TokenStore.ConsumeToken.
func (m *MockUserRepository) ConsumeToken(ctx context.Context, kind auth.TokenKind, token string, now time.Time, effect auth.TokenEffect) (*auth.User, error) {
	return userResult(m.Called(ctx, kind, token, now, effect))
}

// MockPasswordHasher is a mock of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher that asserts its expectations on cleanup.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash mocks auth.PasswordHasher.Hash.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Verify mocks auth.PasswordHasher.Verify.
func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// NeedsUpgrade mocks auth.PasswordHasher.NeedsUpgrade.
func (m *MockPasswordHasher) NeedsUpgrade(hash string) bool {
	return m.Called(hash).Bool(0)
}

// MockAccountMailer is a mock of auth.AccountMailer.
type MockAccountMailer struct {
	mock.Mock
}

// NewMockAccountMailer creates a MockAccountMailer that asserts its expectations on cleanup.
func NewMockAccountMailer(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockAccountMailer {
	m := &MockAccountMailer{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// SendConfirm mocks auth.AccountMailer.SendConfirm.
func (m *MockAccountMailer) SendConfirm(ctx context.Context, to, token string) error {
	return m.Called(ctx, to, token).Error(0)
}

// SendReset mocks auth.AccountMailer.SendReset.
func (m *MockAccountMailer) SendReset(ctx context.Context, to, token string) error {
	return m.Called(ctx, to, token).Error(0)
}

var (
	_ auth.UserRepository = (*MockUserRepository)(nil)
	_ auth.PasswordHasher = (*MockPasswordHasher)(nil)
	_ auth.AccountMailer  = (*MockAccountMailer)(nil)
)
