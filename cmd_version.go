package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tigrawap/goxattr/ops"
	"github.com/tigrawap/goxattr/xattr"
)

var cmdVersion = &cobra.Command{
	Use:               "version",
	Short:             "Print version information",
	DisableAutoGenTag: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("goxattr %s compiled with %v on %v/%v\n",
			version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

var cmdPing = &cobra.Command{
	Use:   "ping",
	Short: "Check that the xattr syscall layer is loaded",
	Long: `
The "ping" command reports whether the native layer is available and whether
this platform has extended attribute syscalls at all. It touches no files.
`,
	DisableAutoGenTag: true,
	Run: func(cmd *cobra.Command, args []string) {
		config.output.printHealth(xattr.NativeLayerAvailable(), ops.Supported)
	},
}

func init() {
	cmdRoot.AddCommand(cmdVersion)
	cmdRoot.AddCommand(cmdPing)
}
