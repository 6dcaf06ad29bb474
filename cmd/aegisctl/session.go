package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage bearer-token sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create ENTITY",
	Short: "Mint a session token for ENTITY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ttl, _ := cmd.Flags().GetDuration("ttl")
		token, err := e.CreateSession(args[0], ttl)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

var sessionValidateCmd = &cobra.Command{
	Use:   "validate TOKEN",
	Short: "Resolve TOKEN to its bound entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		entity, err := e.ValidateSession(args[0])
		if err != nil {
			return fmt.Errorf("validate session: %w", err)
		}
		fmt.Println(entity)
		return nil
	},
}

var sessionRevokeCmd = &cobra.Command{
	Use:   "revoke TOKEN",
	Short: "Delete the session bound to TOKEN",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		existed, err := e.RevokeSession(args[0])
		if err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
		fmt.Println(existed)
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list ENTITY",
	Short: "List every non-expired session bound to ENTITY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		sessions, err := e.ListSessions(args[0])
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions found")
			return nil
		}
		fmt.Printf("%-16s %-24s %s\n", "HASH", "CREATED", "EXPIRES")
		for _, s := range sessions {
			expires := "never"
			if s.ExpiresAt != 0 {
				expires = time.UnixMilli(s.ExpiresAt).Format(time.RFC3339)
			}
			fmt.Printf("%-16s %-24s %s\n",
				s.TokenHash[:16],
				time.UnixMilli(s.CreatedAt).Format(time.RFC3339),
				expires)
		}
		return nil
	},
}

var sessionRevokeAllCmd = &cobra.Command{
	Use:   "revoke-all ENTITY",
	Short: "Delete every session bound to ENTITY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		count, err := e.RevokeAllSessions(args[0])
		if err != nil {
			return fmt.Errorf("revoke all sessions: %w", err)
		}
		fmt.Printf("Revoked %d session(s)\n", count)
		return nil
	},
}

func init() {
	sessionCreateCmd.Flags().Duration("ttl", time.Hour, "Session lifetime (0 never expires)")

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionValidateCmd)
	sessionCmd.AddCommand(sessionRevokeCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionRevokeAllCmd)
}
