package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/willothy/wit/pkg/repo"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("%w: %w", repo.ErrPathConversion, err)
			}

			r, err := repo.Create(abs, a.repoOptions()...)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized empty wit repository in %s%c\n", r.GitDir, filepath.Separator)
			return nil
		},
	}
}
