package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/willothy/wit/pkg/object"
	"github.com/willothy/wit/pkg/repo"
)

func newLogCmd(a *app) *cobra.Command {
	var oneline bool

	cmd := &cobra.Command{
		Use:   "log [commit]",
		Short: "Show commit ancestry as a graphviz digraph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}

			name := "HEAD"
			if len(args) == 1 {
				name = args[0]
			}
			start, err := r.Find(name, object.TypeCommit, true)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if oneline {
				entries, err := r.Log(start)
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Fprintf(out, "%s %s\n", e.Hash.Short(), firstLine(e.Commit.Message()))
				}
				return nil
			}
			return writeGraphviz(out, r, start)
		},
	}
	cmd.Flags().BoolVar(&oneline, "oneline", false, "list one commit per line instead of a graph")
	return cmd
}

// writeGraphviz renders the ancestry of start as a digraph with one labelled
// node per commit and one edge per parent link.
func writeGraphviz(out io.Writer, r *repo.Repo, start object.Hash) error {
	labelled := make(map[object.Hash]bool)
	node := func(h object.Hash) error {
		if labelled[h] {
			return nil
		}
		labelled[h] = true
		c, err := r.Store.ReadCommit(h)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  c_%s [label=%q];\n", h, h.Short()+": "+firstLine(c.Message()))
		return nil
	}

	fmt.Fprintln(out, "digraph witlog{")
	fmt.Fprintln(out, "  node[shape=rect]")
	if err := node(start); err != nil {
		return err
	}
	err := r.Walk(start, nil, func(e repo.Edge) error {
		if err := node(e.Parent); err != nil {
			return err
		}
		fmt.Fprintf(out, "  c_%s -> c_%s;\n", e.Child, e.Parent)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "}")
	return nil
}

func firstLine(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return strings.TrimSpace(line)
}
