package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var capCmd = &cobra.Command{
	Use:   "cap",
	Short: "Manage named capability masks",
}

var capSetCmd = &cobra.Command{
	Use:   "set OBJECT ROLE MASK",
	Short: "Define ROLE's capability MASK on OBJECT",
	Long: `MASK accepts a "0x"-prefixed hex literal, a bare decimal integer, or
one or more "+"-joined bit names (see "aegisctl cap bits").`,
	Args: cobra.ExactArgs(3),
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
		mask, err := parseMask(args[2])
		if err != nil {
			return fmt.Errorf("parse mask: %w", err)
		}
		if err := e.SetCapability(actor, args[0], args[1], mask); err != nil {
			return fmt.Errorf("set capability: %w", err)
		}
		fmt.Printf("Capability set: %s on %s = %#x\n", args[1], args[0], mask)
		return nil
	},
}

var capGetCmd = &cobra.Command{
	Use:   "get OBJECT ROLE",
	Short: "Print ROLE's capability mask on OBJECT",
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
		mask, err := e.GetCapability(actor, args[0], args[1])
		if err != nil {
			return fmt.Errorf("get capability: %w", err)
		}
		fmt.Printf("0x%s\n", strconv.FormatUint(mask, 16))
		return nil
	},
}

var capBitsCmd = &cobra.Command{
	Use:   "bits",
	Short: "List known capability bit and composite names",
	RunE: func(cmd *cobra.Command, args []string) error {
		for name, bit := range namedMasks {
			fmt.Printf("%-16s 0x%x\n", name, bit)
		}
		return nil
	},
}

func init() {
	capCmd.AddCommand(capSetCmd)
	capCmd.AddCommand(capGetCmd)
	capCmd.AddCommand(capBitsCmd)
}
