package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/willothy/wit/pkg/object"
)

func newWriteTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "write-tree",
		Short: "Store the working tree as tree objects and print the root tree ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			h, err := r.BuildTree(r.Worktree)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func newCommitTreeCmd(a *app) *cobra.Command {
	var (
		parents []string
		message string
	)

	cmd := &cobra.Command{
		Use:   "commit-tree <tree> [-p parent]... -m message",
		Short: "Create a commit object for a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			tree, err := r.Find(args[0], object.TypeTree, true)
			if err != nil {
				return err
			}
			var parentHashes []object.Hash
			for _, p := range parents {
				h, err := r.Find(p, object.TypeCommit, true)
				if err != nil {
					return err
				}
				parentHashes = append(parentHashes, h)
			}

			h, err := r.CommitTree(tree, parentHashes, a.identity(), message, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "parent commit (repeatable)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func newCommitCmd(a *app) *cobra.Command {
	var (
		message string
		author  string
	)

	cmd := &cobra.Command{
		Use:   "commit -m message",
		Short: "Snapshot the working tree and advance the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			if author == "" {
				author = a.identity()
			}
			h, err := r.Commit(author, message, time.Now())
			if err != nil {
				return err
			}

			branch, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			if branch == "" {
				branch = "detached HEAD"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, h.Short(), firstLine(message))
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", `override the author ("Name <email>")`)
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
