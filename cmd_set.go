package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdSet = &cobra.Command{
	Use:   "set [flags] PATH NAME [VALUE]",
	Short: "Create or replace an attribute",
	Long: `
The "set" command stores VALUE as attribute NAME on PATH, replacing any
previous value. Without VALUE the value is read from --file, or from stdin
when no file is given. An empty value is valid.
`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 || len(args) > 3 {
			return errors.Errorf("expected 2 or 3 arguments, usage: %s", cmd.UseLine())
		}
		if len(args) == 3 && config.valueFile != EmptyString {
			return errors.New("VALUE and --file are exclusive")
		}
		return nil
	},
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := readValue(args[2:], cmd.InOrStdin())
		if err != nil {
			return err
		}
		return namespace().Set(args[0], args[1], value)
	},
}

func readValue(args []string, stdin io.Reader) ([]byte, error) {
	switch {
	case len(args) == 1:
		return []byte(args[0]), nil
	case config.valueFile != EmptyString:
		value, err := os.ReadFile(config.valueFile)
		return value, errors.Wrap(err, "read value")
	default:
		value, err := io.ReadAll(stdin)
		return value, errors.Wrap(err, "read value from stdin")
	}
}

func init() {
	cmdSet.Flags().StringVarP(&config.valueFile, "file", "f", EmptyString, "Read the value from this file")
	cmdRoot.AddCommand(cmdSet)
}
