// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/storefront/internal/config"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back or inspect the storefront schema migrations. DATABASE_URL selects the database.`,
	}

	cmd.AddCommand(newMigrateActionCmd("up", "Apply all pending migrations"))
	cmd.AddCommand(newMigrateActionCmd("down", "Roll back all migrations"))
	cmd.AddCommand(newMigrateActionCmd("status", "Show applied and pending migrations"))

	return cmd
}

func newMigrateActionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(nil)
			if err != nil {
				return err //nolint:wrapcheck // already coded
			}
			return runMigrateWithDeps(cmd, cfg, action, nil)
		},
	}
}

// runMigrateWithDeps runs one migrate action with injectable dependencies.
func runMigrateWithDeps(cmd *cobra.Command, cfg *config.Config, action string, deps *MigrateDeps) error {
	deps = deps.withDefaults()

	if cfg.Secrets.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}

	m, err := deps.MigratorFactory(cfg.Secrets.DatabaseURL)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			cmd.PrintErrf("warning: closing migrator: %v\n", closeErr)
		}
	}()

	switch action {
	case "up":
		cmd.Println("Running migrations...")
		if err := m.Up(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "migrate up").Wrap(err)
		}
		cmd.Println("Migrations completed successfully")
	case "down":
		cmd.Println("Rolling back migrations...")
		if err := m.Down(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "migrate down").Wrap(err)
		}
		cmd.Println("Rollback completed successfully")
	case "status":
		st, err := m.Status()
		if err != nil {
			return oops.Code("MIGRATION_STATUS_FAILED").Wrap(err)
		}
		cmd.Println(formatStatus(st.Current, st.Latest, st.Dirty, st.Pending))
	default:
		return oops.Code("MIGRATION_ACTION_INVALID").With("action", action).Errorf("unknown migrate action %q", action)
	}
	return nil
}

func formatStatus(current, latest uint, dirty bool, pending []uint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current version: %d\n", current)
	fmt.Fprintf(&b, "Latest version:  %d\n", latest)
	if dirty {
		b.WriteString("State:           dirty (a migration failed part-way)\n")
	}
	if len(pending) == 0 {
		b.WriteString("Pending:         none")
		return b.String()
	}
	versions := make([]string, len(pending))
	for i, v := range pending {
		versions[i] = fmt.Sprintf("%d", v)
	}
	b.WriteString("Pending:         " + strings.Join(versions, ", "))
	return b.String()
}
