package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inheritCmd = &cobra.Command{
	Use:   "inherit",
	Short: "Manage inheritance edges within a scope",
}

var inheritSetCmd = &cobra.Command{
	Use:   "set OBJECT CHILD PARENT",
	Short: "Make CHILD inherit PARENT's relationship within OBJECT's scope",
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
		if err := e.SetInheritance(actor, args[0], args[1], args[2]); err != nil {
			return fmt.Errorf("set inheritance: %w", err)
		}
		fmt.Printf("Inheritance set: %s inherits %s within %s\n", args[1], args[2], args[0])
		return nil
	},
}

var inheritGetCmd = &cobra.Command{
	Use:   "get OBJECT CHILD",
	Short: "Print CHILD's inheritance parent within OBJECT's scope",
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
		parent, ok, err := e.GetInheritance(actor, args[0], args[1])
		if err != nil {
			return fmt.Errorf("get inheritance: %w", err)
		}
		if !ok {
			fmt.Println("No inheritance edge set")
			return nil
		}
		fmt.Println(parent)
		return nil
	},
}

var inheritRemoveCmd = &cobra.Command{
	Use:   "remove OBJECT CHILD",
	Short: "Delete CHILD's inheritance edge within OBJECT's scope",
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
		if err := e.RemoveInheritance(actor, args[0], args[1]); err != nil {
			return fmt.Errorf("remove inheritance: %w", err)
		}
		fmt.Printf("Inheritance removed: %s within %s\n", args[1], args[0])
		return nil
	},
}

func init() {
	inheritCmd.AddCommand(inheritSetCmd)
	inheritCmd.AddCommand(inheritGetCmd)
	inheritCmd.AddCommand(inheritRemoveCmd)
}
