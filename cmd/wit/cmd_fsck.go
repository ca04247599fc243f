package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/willothy/wit/pkg/object"
)

func newFsckCmd(a *app) *cobra.Command {
	var showDangling bool

	cmd := &cobra.Command{
		Use:   "fsck",
		Short: "Check that every object reachable from the refs is present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			rep, err := r.Fsck()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, h := range rep.Missing {
				fmt.Fprintf(out, "missing %s\n", h)
			}
			if showDangling {
				for _, h := range rep.Dangling {
					fmt.Fprintf(out, "dangling %s\n", h)
				}
			}
			fmt.Fprintf(out, "checked %d objects from %d roots\n", rep.Objects, len(rep.Roots))
			if !rep.OK() {
				return fmt.Errorf("%w: %d objects missing", object.ErrMissingData, len(rep.Missing))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showDangling, "dangling", false, "list objects no ref reaches")
	return cmd
}
