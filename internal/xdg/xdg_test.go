// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package xdg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/storefront/pkg/errutil"
)

func TestConfigDir(t *testing.T) {
	tests := []struct {
		name       string
		configHome string
		home       string
		want       string
	}{
		{name: "env var", configHome: "/custom/config", home: "/home/testuser", want: "/custom/config/storefront"},
		{name: "home fallback", home: "/home/testuser", want: "/home/testuser/.config/storefront"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", tt.configHome)
			t.Setenv("HOME", tt.home)

			got, err := ConfigDir()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigDir_NoHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "")

	_, err := ConfigDir()
	errutil.AssertErrorCode(t, err, "XDG_HOME_UNSET")
}

func TestResolveConfigFile(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		got, err := ResolveConfigFile("/etc/storefront.yaml")
		require.NoError(t, err)
		assert.Equal(t, "/etc/storefront.yaml", got)
	})

	t.Run("missing default file", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())

		got, err := ResolveConfigFile("")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("existing default file", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", base)
		path := filepath.Join(base, "storefront", "config.yaml")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
		require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

		got, err := ResolveConfigFile("")
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("default path is a directory", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", base)
		require.NoError(t, os.MkdirAll(filepath.Join(base, "storefront", "config.yaml"), 0o700))

		_, err := ResolveConfigFile("")
		errutil.AssertErrorCode(t, err, "CONFIG_READ_FAILED")
	})

	t.Run("no home", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", "")

		got, err := ResolveConfigFile("")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
