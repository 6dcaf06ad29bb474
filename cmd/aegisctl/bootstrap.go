package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap ROOT_ID",
	Short: "Run the one-time genesis sequence and create a root user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootID := args[0]
		withToken, _ := cmd.Flags().GetBool("with-token")

		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if withToken {
			result, err := e.BootstrapWithToken(rootID)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			fmt.Printf("Bootstrapped at epoch %d\n", result.Epoch)
			fmt.Printf("Root entity: %s\n", result.RootEntity)
			fmt.Printf("Session token: %s\n", result.Token)
			return nil
		}

		epoch, err := e.Bootstrap(rootID)
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		fmt.Printf("Bootstrapped at epoch %d\n", epoch)
		fmt.Printf("Root entity: user:%s\n", rootID)
		return nil
	},
}

func init() {
	bootstrapCmd.Flags().Bool("with-token", false, "Also mint a session token for the new root entity")
}
