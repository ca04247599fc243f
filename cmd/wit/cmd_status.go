package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/willothy/wit/pkg/repo"
)

func newStatusCmd(a *app) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			entries, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if short {
				for _, e := range entries {
					path := e.Path
					if e.RenamedFrom != "" {
						path = e.RenamedFrom + " -> " + e.Path
					}
					fmt.Fprintf(out, "%c%c %s\n", e.IndexStatus.Code(), e.WorkStatus.Code(), path)
				}
				return nil
			}

			branch, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			head, err := r.ResolveHead()
			if err != nil {
				return err
			}
			if branch == "" {
				fmt.Fprintln(out, "HEAD detached")
			} else if head == "" {
				fmt.Fprintf(out, "on %s (no commits yet)\n", branch)
			} else {
				fmt.Fprintf(out, "on %s\n", branch)
			}

			var conflicts, staged, unstaged, untracked []string
			for _, e := range entries {
				if e.IndexStatus == repo.StatusConflict {
					conflicts = append(conflicts, "  ! "+e.Path)
					continue
				}
				if e.IndexStatus == repo.StatusUntracked {
					untracked = append(untracked, "  "+e.Path)
					continue
				}

				switch e.IndexStatus {
				case repo.StatusNew:
					staged = append(staged, "  + "+e.Path)
				case repo.StatusModified:
					staged = append(staged, "  ~ "+e.Path)
				case repo.StatusRenamed:
					staged = append(staged, "  R "+e.RenamedFrom+" -> "+e.Path)
				case repo.StatusDeleted:
					staged = append(staged, "  - "+e.Path)
				}

				switch e.WorkStatus {
				case repo.StatusDirty:
					unstaged = append(unstaged, "  ~ "+e.Path)
				case repo.StatusDeleted:
					unstaged = append(unstaged, "  - "+e.Path)
				}
			}

			red := color.New(color.FgRed)
			green := color.New(color.FgGreen)
			printSection(out, "conflicts:", conflicts, red)
			printSection(out, "staged:", staged, green)
			printSection(out, "unstaged:", unstaged, red)
			printSection(out, "untracked:", untracked, red)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "two-letter status codes")
	return cmd
}

func printSection(out io.Writer, title string, lines []string, c *color.Color) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, title)
	for _, l := range lines {
		c.Fprintln(out, l)
	}
}
