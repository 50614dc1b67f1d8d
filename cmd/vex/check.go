package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxhq/vex/internal/config"
	"github.com/oxhq/vex/internal/diagnostics"
	"github.com/oxhq/vex/internal/dispatch"
)

func newCheckCmd() *cobra.Command {
	var lenient bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Run the lint engine over the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}

			cfg, err := config.Load(root)
			if err != nil {
				fmt.Fprintln(os.Stderr, "vex:", err)
				os.Exit(2)
			}
			if lenient {
				cfg.Lenient = true
			}

			engine, err := dispatch.New(dispatch.Options{Root: root, Config: cfg, Verbose: verbose})
			if err != nil {
				fmt.Fprintln(os.Stderr, "vex:", err)
				os.Exit(2)
			}
			defer engine.Close()

			result, err := engine.Run(context.Background())
			if err != nil {
				fmt.Fprintln(os.Stderr, "vex:", err)
				os.Exit(2)
			}

			sources := make(map[string][]byte)
			for _, w := range result.Warnings {
				if _, ok := sources[w.Primary.Path]; !ok {
					if data, err := os.ReadFile(w.Primary.Path); err == nil {
						sources[w.Primary.Path] = data
					}
				}
			}
			renderer := diagnostics.NewRenderer(os.Stderr, sources)
			if err := renderer.Render(result.Warnings); err != nil {
				fmt.Fprintln(os.Stderr, "vex:", err)
				os.Exit(2)
			}

			for _, fe := range result.FileErrors {
				fmt.Fprintf(os.Stderr, "note: skipped %s: %v\n", fe.Path, fe.Err)
			}

			os.Exit(result.ExitCode)
			return nil
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "downgrade lenient vexes to silence")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log script registration summaries")
	return cmd
}
