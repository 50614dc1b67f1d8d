package main

import (
	"context"
	"fmt"
	"io"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/spf13/cobra"

	"github.com/oxhq/vex/internal/lang"
	"github.com/oxhq/vex/internal/parser"
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <path>",
		Short: "Print the parsed tree for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			r := lang.New()
			lang.RegisterBuiltins(r)
			l, ok := r.Resolve(path)
			if !ok {
				return fmt.Errorf("no language resolves for %s", path)
			}

			pool := parser.New()
			defer pool.Close()
			tree, err := pool.Parse(context.Background(), l, src)
			if err != nil {
				return err
			}

			dumpNode(cmd.OutOrStdout(), tree.RootNode(), 0)
			return nil
		},
	}
}

func dumpNode(w io.Writer, n *sitter.Node, depth int) {
	if n == nil {
		return
	}
	start, end := n.StartPoint(), n.EndPoint()
	fmt.Fprintf(w, "%*s(%s %d:%d..%d:%d)\n", depth*2, "", n.Type(), start.Row, start.Column, end.Row, end.Column)
	for i := 0; i < int(n.ChildCount()); i++ {
		dumpNode(w, n.Child(i), depth+1)
	}
}
