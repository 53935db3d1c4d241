// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the EmberMUSH CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embermush",
		Short: "EmberMUSH - A MUSH platform with Lua extensions",
		Long: `EmberMUSH is a MUSH platform whose extension system lets
independently loadable Lua extensions register console and chat commands
over the host command table.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewCoreCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show status of a running EmberMUSH core process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println("status: not implemented yet")
			return nil
		},
	}
}
