// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Atrium CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "atrium",
		Short: "Atrium - a server-side virtual space engine",
		Long: `Atrium runs a server-side virtual space: nested spatial contexts,
per-context roles, administrative actions, and time-boxed area reservations.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewValidateMapCmd())

	return cmd
}
