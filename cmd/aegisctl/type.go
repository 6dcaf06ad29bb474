package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var typeCmd = &cobra.Command{
	Use:   "type",
	Short: "Manage entity types",
}

var typeCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Register a new entity type",
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
		if err := e.CreateType(actor, args[0]); err != nil {
			return fmt.Errorf("create type: %w", err)
		}
		fmt.Printf("Type created: %s\n", args[0])
		return nil
	},
}

var typeDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Remove an entity type",
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
		if err := e.DeleteType(actor, args[0]); err != nil {
			return fmt.Errorf("delete type: %w", err)
		}
		fmt.Printf("Type deleted: %s\n", args[0])
		return nil
	},
}

var typeExistsCmd = &cobra.Command{
	Use:   "exists NAME",
	Short: "Check whether an entity type is registered",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		exists, err := e.TypeExists(args[0])
		if err != nil {
			return fmt.Errorf("type exists: %w", err)
		}
		fmt.Println(exists)
		return nil
	},
}

func init() {
	typeCmd.AddCommand(typeCreateCmd)
	typeCmd.AddCommand(typeDeleteCmd)
	typeCmd.AddCommand(typeExistsCmd)
}
