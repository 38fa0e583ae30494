package main

import (
	"github.com/spf13/cobra"
)

var cmdHas = &cobra.Command{
	Use:   "has PATH NAME",
	Short: "Check whether an attribute is set",
	Long: `
The "has" command prints true when attribute NAME is set on PATH and false
otherwise. The check reads the value and discards it.

EXIT STATUS
===========

Exit status is 0 if the attribute is set, 2 if it is not, and 1 if the check
itself failed.
`,
	Args:              exactArgs(2),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		present, err := namespace().Has(args[0], args[1])
		if err != nil {
			return err
		}
		config.output.printPresence(present)
		if !present {
			return errAbsent
		}
		return nil
	},
}

func init() {
	cmdRoot.AddCommand(cmdHas)
}
