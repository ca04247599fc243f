package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateRefCmd(a *app) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "update-ref <ref> <object>",
		Short: "Point a reference at an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			h, err := r.Find(args[1], "", false)
			if err != nil {
				return err
			}
			return r.UpdateRefReason(args[0], h, reason)
		},
	}
	cmd.Flags().StringVarP(&reason, "message", "m", "update-ref", "reflog reason")
	return cmd
}

func newSymbolicRefCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "symbolic-ref <name> [<ref>]",
		Short: "Read or set a symbolic reference",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			if len(args) == 2 {
				return r.SetSymbolicRef(args[0], args[1])
			}
			if args[0] != "HEAD" {
				return fmt.Errorf("symbolic-ref: only HEAD can be read")
			}
			head, err := r.Head()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), head)
			return nil
		},
	}
}
