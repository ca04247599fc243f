package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/willothy/wit/pkg/object"
)

func newLsTreeCmd(a *app) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls-tree [-r] <tree>",
		Short: "List the contents of a tree object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			h, err := r.Find(args[0], object.TypeTree, true)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if recursive {
				files, err := r.FlattenTree(h)
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintf(out, "%s %s %s\t%s\n", object.DisplayMode(f.Mode), leafType(f.Mode), f.Hash, f.Path)
				}
				return nil
			}

			tree, err := r.Store.ReadTree(h)
			if err != nil {
				return err
			}
			for _, leaf := range tree.Leaves {
				fmt.Fprintf(out, "%s %s %s\t%s\n", object.DisplayMode(leaf.Mode), leafType(leaf.Mode), leaf.Hash, leaf.Path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recurse into subtrees")
	return cmd
}

// leafType names the object kind a tree mode points at.
func leafType(mode string) object.ObjectType {
	switch m := object.DisplayMode(mode); {
	case strings.HasPrefix(m, "04"):
		return object.TypeTree
	case strings.HasPrefix(m, "16"):
		return object.TypeCommit
	default:
		return object.TypeBlob
	}
}
