package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check SUBJECT OBJECT MASK",
	Short: "Check whether SUBJECT's effective mask on OBJECT contains every bit of MASK",
	Long: `MASK accepts a "0x"-prefixed hex literal, a bare decimal integer, or
one or more "+"-joined bit names (see "aegisctl cap bits"). Reads are never
gated: this command needs no --actor.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		required, err := parseMask(args[2])
		if err != nil {
			return fmt.Errorf("parse mask: %w", err)
		}
		ok, err := e.CheckAccess(args[0], args[1], required)
		if err != nil {
			return fmt.Errorf("check access: %w", err)
		}
		fmt.Println(ok)
		return nil
	},
}

var maskCmd = &cobra.Command{
	Use:   "mask SUBJECT OBJECT",
	Short: "Print SUBJECT's effective capability mask on OBJECT",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		mask, err := e.GetMask(args[0], args[1])
		if err != nil {
			return fmt.Errorf("get mask: %w", err)
		}
		fmt.Printf("0x%s\n", strconv.FormatUint(mask, 16))
		return nil
	},
}

var accessibleCmd = &cobra.Command{
	Use:   "accessible SUBJECT",
	Short: "List every object SUBJECT holds a direct grant on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		objs, err := e.ListAccessible(args[0])
		if err != nil {
			return fmt.Errorf("list accessible: %w", err)
		}
		if len(objs) == 0 {
			fmt.Println("No accessible objects found")
			return nil
		}
		fmt.Printf("%-30s %s\n", "OBJECT", "MASK")
		for _, o := range objs {
			fmt.Printf("%-30s 0x%x\n", o.Object, o.Mask)
		}
		return nil
	},
}

var subjectsCmd = &cobra.Command{
	Use:   "subjects OBJECT",
	Short: "List every subject holding a direct grant on OBJECT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		subs, err := e.ListSubjects(args[0])
		if err != nil {
			return fmt.Errorf("list subjects: %w", err)
		}
		if len(subs) == 0 {
			fmt.Println("No subjects found")
			return nil
		}
		fmt.Printf("%-30s %s\n", "SUBJECT", "MASK")
		for _, s := range subs {
			fmt.Printf("%-30s 0x%x\n", s.Entity, s.Mask)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(maskCmd)
	rootCmd.AddCommand(accessibleCmd)
	rootCmd.AddCommand(subjectsCmd)
}
