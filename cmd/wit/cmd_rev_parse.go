package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/willothy/wit/pkg/object"
)

func newRevParseCmd(a *app) *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "rev-parse [--type type] <name>",
		Short: "Resolve a name to an object ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var typ object.ObjectType
			if typeName != "" {
				t, err := object.ParseObjectType(typeName)
				if err != nil {
					return err
				}
				typ = t
			}

			r, err := a.openRepo()
			if err != nil {
				return err
			}
			h, err := r.Find(args[0], typ, true)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "peel the result to this object type")
	return cmd
}
