/*
Command eloc is the CLI driver for the front end: it lexes, parses,
and semantically checks a source file and reports the result, or
drops into an interactive REPL over the same pipeline. It never
invokes a backend — there is no code generator in this repository, so
`build` and `run` stop at the typed IR.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := Execute(); err != nil {
		if err.Error() != "" {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// Execute assembles the command tree and runs it.
func Execute() error {
	cmdRoot.AddCommand(cmdBuild)
	cmdRoot.AddCommand(cmdRun)
	cmdRoot.AddCommand(cmdRepl)
	return cmdRoot.Execute()
}

var cmdRoot = &cobra.Command{
	Use:           "eloc",
	Short:         "Front end for a small ahead-of-time compiler",
	Long:          `eloc lexes, parses, and semantically checks source files for a small statically-typed compiled language.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}
