package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/willothy/wit/pkg/object"
)

func newHashObjectCmd(a *app) *cobra.Command {
	var (
		typeName string
		write    bool
	)

	cmd := &cobra.Command{
		Use:   "hash-object [-t type] [-w] <file>",
		Short: "Compute an object ID and optionally store the file as an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := object.ParseObjectType(typeName)
			if err != nil {
				return err
			}

			var store *object.Store
			if write {
				r, err := a.openRepo()
				if err != nil {
					return err
				}
				store = r.Store
			}

			h, err := object.HashFile(args[0], typ, store)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", string(object.TypeBlob), "object type")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the object into the repository")
	return cmd
}
