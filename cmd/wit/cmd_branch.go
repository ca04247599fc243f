package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/willothy/wit/pkg/object"
)

func newBranchCmd(a *app) *cobra.Command {
	var deleteBranch string

	cmd := &cobra.Command{
		Use:   "branch [name [start]]",
		Short: "List, create, or delete branches",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}

			if strings.TrimSpace(deleteBranch) != "" {
				if len(args) > 0 {
					return fmt.Errorf("branch --delete does not accept positional args")
				}
				return r.DeleteBranch(deleteBranch)
			}

			if len(args) == 0 {
				branches, err := r.ListBranches()
				if err != nil {
					return err
				}
				current, err := r.CurrentBranch()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, b := range branches {
					if b.Name == current {
						color.New(color.FgGreen).Fprintf(out, "* %s\n", b.Name)
					} else {
						fmt.Fprintf(out, "  %s\n", b.Name)
					}
				}
				return nil
			}

			start := "HEAD"
			if len(args) == 2 {
				start = args[1]
			}
			target, err := r.Find(start, object.TypeCommit, true)
			if err != nil {
				return err
			}
			return r.CreateBranch(args[0], target)
		},
	}
	cmd.Flags().StringVarP(&deleteBranch, "delete", "d", "", "delete the named branch")
	return cmd
}
