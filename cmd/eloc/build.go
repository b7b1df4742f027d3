package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eloc-dev/eloc/internal/diag"
	"github.com/eloc-dev/eloc/internal/ir"
	"github.com/eloc-dev/eloc/internal/pipeline"
	"github.com/eloc-dev/eloc/internal/source"
)

var argsBuild struct {
	output string
	o0     bool
	o1     bool
	o2     bool
	o3     bool
}

var cmdBuild = &cobra.Command{
	Use:   "build <input>",
	Short: "Check a source file and print its typed IR",
	Long:  `Lex, parse, and semantically check <input>. Stops at the typed IR: there is no backend in this repository to emit a binary.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selected := 0
		for _, set := range []bool{argsBuild.o0, argsBuild.o1, argsBuild.o2, argsBuild.o3} {
			if set {
				selected++
			}
		}
		if selected > 1 {
			return fmt.Errorf("at most one of --O0, --O1, --O2, --O3 may be given")
		}
		return runFrontend(args[0], argsBuild.output)
	},
}

func init() {
	cmdBuild.Flags().StringVarP(&argsBuild.output, "output", "o", "", "output path (unused: no backend to write to)")
	cmdBuild.Flags().BoolVar(&argsBuild.o0, "O0", false, "no optimization (unused: no backend)")
	cmdBuild.Flags().BoolVar(&argsBuild.o1, "O1", false, "optimization level 1 (unused: no backend)")
	cmdBuild.Flags().BoolVar(&argsBuild.o2, "O2", false, "optimization level 2 (unused: no backend)")
	cmdBuild.Flags().BoolVar(&argsBuild.o3, "O3", false, "optimization level 3 (unused: no backend)")
}

// runFrontend reads path, runs it through the lex/parse/check
// pipeline, and either prints the resulting typed IR or reports every
// diagnostic and returns a non-nil error, matching the CLI contract's
// exit-code-1-on-any-front-end-failure rule.
func runFrontend(path, output string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	file := source.New(path, string(text))
	result := pipeline.Run(file)

	if !result.Ok() {
		engine := &diag.Engine{Out: os.Stderr}
		engine.ReportAll(result.Errors)
		return errFrontendFailed
	}

	rendered := ir.Print(result.Program)
	if output == "" {
		fmt.Print(rendered)
		return nil
	}
	return os.WriteFile(output, []byte(rendered), 0644)
}

// errFrontendFailed is returned after diagnostics have already been
// printed, so main doesn't print it again — only its exit code matters.
var errFrontendFailed = &silentError{}

type silentError struct{}

func (*silentError) Error() string { return "" }
