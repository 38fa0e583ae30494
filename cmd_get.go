package main

import (
	"github.com/spf13/cobra"
)

var cmdGet = &cobra.Command{
	Use:   "get [flags] PATH NAME",
	Short: "Print the value of an attribute",
	Long: `
The "get" command writes the value of attribute NAME on PATH to stdout.
The value is written as is unless --encoding asks for hex or base64.

EXIT STATUS
===========

Exit status is 0 if the value was read, 1 otherwise (including a missing
attribute, reported as enoattr).
`,
	Args:              exactArgs(2),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := namespace().Get(args[0], args[1])
		if err != nil {
			return err
		}
		return config.output.printValue(value)
	},
}

func init() {
	cmdGet.Flags().StringVarP(&config.encoding, "encoding", "e", EncodingRaw, "Value encoding (raw/hex/base64)")
	cmdRoot.AddCommand(cmdGet)
}
