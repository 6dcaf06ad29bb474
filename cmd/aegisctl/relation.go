package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var relationCmd = &cobra.Command{
	Use:   "relation",
	Short: "Manage relationships between entities",
}

var relationSetCmd = &cobra.Command{
	Use:   "set SUBJECT RELATION OBJECT",
	Short: "Grant SUBJECT the named RELATION on OBJECT",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		actor, err := actorFlag(cmd, e)
		if err != nil {
			return err
		}
		if err := e.SetRelationship(actor, args[0], args[1], args[2]); err != nil {
			return fmt.Errorf("set relationship: %w", err)
		}
		fmt.Printf("Granted: %s --%s--> %s\n", args[0], args[1], args[2])
		return nil
	},
}

var relationDeleteCmd = &cobra.Command{
	Use:   "delete SUBJECT OBJECT",
	Short: "Revoke every grant SUBJECT holds on OBJECT",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		actor, err := actorFlag(cmd, e)
		if err != nil {
			return err
		}
		if err := e.DeleteRelationship(actor, args[0], args[1]); err != nil {
			return fmt.Errorf("delete relationship: %w", err)
		}
		fmt.Printf("Revoked: %s on %s\n", args[0], args[1])
		return nil
	},
}

var relationListCmd = &cobra.Command{
	Use:   "list OBJECT",
	Short: "List every subject holding a direct grant on OBJECT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		actor, err := actorFlag(cmd, e)
		if err != nil {
			return err
		}
		rels, err := e.GetRelationships(actor, args[0])
		if err != nil {
			return fmt.Errorf("get relationships: %w", err)
		}
		if len(rels) == 0 {
			fmt.Println("No relationships found")
			return nil
		}
		fmt.Printf("%-30s %s\n", "SUBJECT", "RELATION")
		for _, r := range rels {
			fmt.Printf("%-30s %s\n", r.Subject, r.Relation)
		}
		return nil
	},
}

func init() {
	relationCmd.AddCommand(relationSetCmd)
	relationCmd.AddCommand(relationDeleteCmd)
	relationCmd.AddCommand(relationListCmd)
}
