package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// grantCmd and revokeCmd are top-level shorthands for the "relation set"/
// "relation delete" subcommands, for the common case of a single grant or
// revocation with no other relation bookkeeping.
var grantCmd = &cobra.Command{
	Use:   "grant SUBJECT RELATION OBJECT",
	Short: "Shorthand for \"relation set\"",
	Args:  cobra.ExactArgs(3),
	RunE:  relationSetCmd.RunE,
}

var revokeCmd = &cobra.Command{
	Use:   "revoke SUBJECT OBJECT",
	Short: "Shorthand for \"relation delete\"",
	Args:  cobra.ExactArgs(2),
	RunE:  relationDeleteCmd.RunE,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami TOKEN",
	Short: "Resolve a bearer token to its bound entity",
	Args:  cobra.ExactArgs(1),
	RunE:  sessionValidateCmd.RunE,
}

func init() {
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(whoamiCmd)
}
