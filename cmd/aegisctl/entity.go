package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var entityCmd = &cobra.Command{
	Use:   "entity",
	Short: "Manage entities",
}

var entityCreateCmd = &cobra.Command{
	Use:   "create LABEL",
	Short: "Create an entity of an existing type (LABEL is \"type:id\")",
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
		if err := e.CreateEntity(actor, args[0]); err != nil {
			return fmt.Errorf("create entity: %w", err)
		}
		fmt.Printf("Entity created: %s\n", args[0])
		return nil
	},
}

var entityDeleteCmd = &cobra.Command{
	Use:   "delete LABEL",
	Short: "Delete an entity",
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
		if err := e.DeleteEntity(actor, args[0]); err != nil {
			return fmt.Errorf("delete entity: %w", err)
		}
		fmt.Printf("Entity deleted: %s\n", args[0])
		return nil
	},
}

var entityExistsCmd = &cobra.Command{
	Use:   "exists LABEL",
	Short: "Check whether an entity is registered",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		exists, err := e.EntityExists(args[0])
		if err != nil {
			return fmt.Errorf("entity exists: %w", err)
		}
		fmt.Println(exists)
		return nil
	},
}

func init() {
	entityCmd.AddCommand(entityCreateCmd)
	entityCmd.AddCommand(entityDeleteCmd)
	entityCmd.AddCommand(entityExistsCmd)
}
