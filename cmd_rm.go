package main

import (
	"github.com/spf13/cobra"
)

var cmdRemove = &cobra.Command{
	Use:               "rm PATH NAME",
	Aliases:           []string{"remove"},
	Short:             "Remove an attribute",
	Long:              "\nThe \"rm\" command removes attribute NAME from PATH. Removing a missing\nattribute fails with enoattr.\n",
	Args:              exactArgs(2),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return namespace().Remove(args[0], args[1])
	},
}

func init() {
	cmdRoot.AddCommand(cmdRemove)
}
