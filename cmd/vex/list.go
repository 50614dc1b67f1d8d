package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oxhq/vex/internal/lang"
)

func newListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registry information",
	}
	listCmd.AddCommand(&cobra.Command{
		Use:   "languages",
		Short: "Print every registered language, alphabetically",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := lang.New()
			lang.RegisterBuiltins(r)
			for _, l := range r.ListSorted() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s aliases=[%s] extensions=[%s]\n",
					l.Name, strings.Join(l.Aliases, ","), strings.Join(l.Extensions, ","))
			}
			return nil
		},
	})
	return listCmd
}
