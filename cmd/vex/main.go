// Command vex is the thin front end around the lint engine: flag and
// argument parsing only, with every real decision delegated to
// internal/dispatch. Out of scope per the core's specification, but
// included so the core has a concrete consumer (mirrors the teacher's
// cmd/morfx/main.go: parse flags, call one library entrypoint, print).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "vex:", err)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vex",
		Short: "A hackable, project-local linter",
	}
	root.AddCommand(newInitCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newDumpCmd())
	return root
}
