package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTagCmd(a *app) *cobra.Command {
	var (
		annotate  bool
		message   string
		deleteTag string
		force     bool
		showHash  bool
	)

	cmd := &cobra.Command{
		Use:   "tag [-a] [name [object]]",
		Short: "List, create, or delete tags",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if strings.TrimSpace(deleteTag) != "" {
				if len(args) > 0 {
					return fmt.Errorf("tag --delete does not accept positional args")
				}
				return r.DeleteTag(deleteTag)
			}

			if len(args) == 0 {
				tags, err := r.ListTags()
				if err != nil {
					return err
				}
				for _, t := range tags {
					if showHash {
						fmt.Fprintf(out, "%s %s\n", t.Hash, t.Name)
					} else {
						fmt.Fprintln(out, t.Name)
					}
				}
				return nil
			}

			targetName := "HEAD"
			if len(args) == 2 {
				targetName = args[1]
			}
			target, err := r.Find(targetName, "", false)
			if err != nil {
				return err
			}

			if !annotate {
				return r.CreateTag(args[0], target, force)
			}
			if message == "" {
				message = args[0]
			}
			h, err := r.CreateAnnotatedTag(args[0], target, a.identity(), message, force)
			if err != nil {
				return err
			}
			if showHash {
				fmt.Fprintln(out, h)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&annotate, "annotate", "a", false, "create an annotated tag object")
	cmd.Flags().StringVarP(&message, "message", "m", "", "annotated tag message")
	cmd.Flags().StringVarP(&deleteTag, "delete", "d", "", "delete the named tag")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing tag")
	cmd.Flags().BoolVar(&showHash, "show-hash", false, "show tag target hashes when listing")
	return cmd
}
