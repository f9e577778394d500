package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spachava753/pbap/phonebook"
)

// cd is pure folder arithmetic and never opens a store.
func newCdCmd() *cobra.Command {
	var (
		from string
		up   bool
	)
	cmd := &cobra.Command{
		Use:   "cd [segment]",
		Short: "Compute the folder reached by a SetPhonebook operation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			segment := ""
			if len(args) == 1 {
				segment = args[0]
			}
			flags := phonebook.FlagDown
			if up {
				flags = phonebook.FlagUp
			}
			next, err := phonebook.SetFolder(from, segment, flags)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), next)
			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", phonebook.FolderRoot, "Current folder.")
	cmd.Flags().BoolVar(&up, "up", false, "Go up one level before descending.")
	return cmd
}
