// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/storefront/internal/auth"
	"github.com/holomush/storefront/pkg/errutil"
)

func TestNewUser(t *testing.T) {
	t.Run("normalizes and defaults", func(t *testing.T) {
		u, err := auth.NewUser(" alice ", " Alice@Example.COM ", "hash", fixedNow)
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Name)
		assert.Equal(t, "alice@example.com", u.Email)
		assert.Equal(t, []auth.Permission{auth.PermissionUser}, u.Permissions)
		assert.False(t, u.Confirmed)
		assert.Equal(t, fixedNow, u.CreatedAt)
		assert.Equal(t, fixedNow.UnixMilli(), int64(u.ID.Time()))
	})

	tests := []struct {
		name, uname, email, hash, code string
	}{
		{"empty name", "", "a@b.co", "h", "USER_INVALID_NAME"},
		{"empty email", "alice", " ", "h", "USER_INVALID_EMAIL"},
		{"empty hash", "alice", "a@b.co", "", "USER_INVALID_HASH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.NewUser(tt.uname, tt.email, tt.hash, fixedNow)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}
