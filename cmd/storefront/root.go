// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/holomush/storefront/internal/config"
	"github.com/holomush/storefront/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the storefront CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront - accounts, cart and checkout API",
		Long: `Storefront serves the JSON API of a small shop: accounts with
email confirmation and password reset, a cart, and Stripe checkout.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/storefront/config.yaml)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the config file JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err //nolint:wrapcheck // already coded
			}
			cmd.Println(string(schema))
			return nil
		},
	}
}

// loadConfig loads the --config file, or the XDG default when one exists.
func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	path, err := xdg.ResolveConfigFile(configFile)
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}
	return config.Load(path, fs, nil) //nolint:wrapcheck // already coded
}
