package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cmdRun = &cobra.Command{
	Use:   "run <input>",
	Short: "Check a source file and report whether it would run",
	Long:  `Lex, parse, and semantically check <input>, the same as build, but without writing output: there is no backend in this repository to execute against.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runFrontend(args[0], ""); err != nil {
			return err
		}
		fmt.Println("# front end checks passed; no backend is available to execute this program")
		return nil
	},
}
