package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLsFilesCmd(a *app) *cobra.Command {
	var (
		stage   bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "ls-files [--stage]",
		Short: "List the paths recorded in the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			idx, err := r.ReadIndex()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if verbose {
				fmt.Fprintf(out, "Index file format v%d, containing %d entries.\n", idx.Version, len(idx.Entries))
			}
			for _, e := range idx.Entries {
				if !stage && !verbose {
					fmt.Fprintln(out, e.Path)
					continue
				}
				fmt.Fprintf(out, "%06o %s %d\t%s\n", e.Mode, e.Hash, e.Stage(), e.Path)
				if verbose {
					fmt.Fprintf(out, "  ctime: %d.%09d  mtime: %d.%09d\n", e.CTime.Sec, e.CTime.Nsec, e.MTime.Sec, e.MTime.Nsec)
					fmt.Fprintf(out, "  dev: %d  ino: %d  uid: %d  gid: %d  size: %d\n", e.Dev, e.Ino, e.UID, e.GID, e.Size)
					fmt.Fprintf(out, "  assume-valid: %t  skip-worktree: %t  intent-to-add: %t\n", e.AssumeValid(), e.SkipWorktree(), e.IntentToAdd())
				}
			}
			if verbose && len(idx.Extensions) > 0 {
				fmt.Fprintf(out, "extensions: %v\n", idx.Extensions)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&stage, "stage", "s", false, "show mode, object and stage")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show every recorded field")
	return cmd
}
