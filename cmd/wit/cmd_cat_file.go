package main

import (
	"github.com/spf13/cobra"
	"github.com/willothy/wit/pkg/object"
)

func newCatFileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat-file <type> <object>",
		Short: "Print the payload of a repository object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := object.ParseObjectType(args[0])
			if err != nil {
				return err
			}
			r, err := a.openRepo()
			if err != nil {
				return err
			}

			h, err := r.Find(args[1], typ, true)
			if err != nil {
				return err
			}
			_, data, err := r.Store.ReadRaw(h)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
