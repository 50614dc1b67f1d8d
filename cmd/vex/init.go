package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultVexToml = `# vexes-dir is relative to the project root.
vexes-dir = "vexes"

# ignore lists globs excluded from scanning.
ignore = []

# lenient downgrades warnings from lenient vexes to silence.
lenient = false
`

const exampleVex = `// Example vex: flag integer literals wider than 6 digits.
func on_match(event) {
	n := event.captures.n
	if len(n.text()) > 6 {
		vex.warn("integer literal is suspiciously wide", {"at": [n, "consider a named constant"]})
	}
}
vex.add_trigger("go", "(int_literal) @n", on_match)
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create vex.toml and vexes/ in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			tomlPath := filepath.Join(cwd, "vex.toml")
			if _, err := os.Stat(tomlPath); err == nil {
				return fmt.Errorf("%s already exists", tomlPath)
			}
			if err := os.WriteFile(tomlPath, []byte(defaultVexToml), 0o644); err != nil {
				return err
			}

			vexesDir := filepath.Join(cwd, "vexes")
			if err := os.MkdirAll(vexesDir, 0o755); err != nil {
				return err
			}
			examplePath := filepath.Join(vexesDir, "example.star")
			if _, err := os.Stat(examplePath); os.IsNotExist(err) {
				if err := os.WriteFile(examplePath, []byte(exampleVex), 0o644); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s and %s\n", tomlPath, vexesDir)
			return nil
		},
	}
}
