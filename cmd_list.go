package main

import (
	"github.com/spf13/cobra"
)

var cmdList = &cobra.Command{
	Use:   "list [flags] PATH",
	Short: "List attribute names of a file",
	Long: `
The "list" command prints the extended attribute names of PATH in the order
the filesystem returns them. Names that are not printable are quoted, use -0
for raw NUL separated output.
`,
	Args:              exactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := namespace().List(args[0])
		if err != nil {
			return err
		}
		config.output.printNames(names)
		return nil
	},
}

func init() {
	cmdList.Flags().BoolVarP(&config.nullSep, "null", "0", false, "Separate names with NUL instead of newline, without quoting")
	cmdRoot.AddCommand(cmdList)
}
