// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Teambee CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teambee",
		Short: "Teambee - club management platform",
		Long: `Teambee is the club management platform backend. It serves the
authentication and account API, delivers password reset and
registration invitation mail, and manages the PostgreSQL schema.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewAdminCmd())

	return cmd
}
