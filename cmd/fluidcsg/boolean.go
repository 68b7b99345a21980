package main

import (
	"fmt"

	"github.com/chazu/fluidcsg/pkg/csg"
	"github.com/chazu/fluidcsg/pkg/stl"
	"github.com/spf13/cobra"
)

var operations = map[string]csg.Operation{
	"union":        csg.OpUnion,
	"intersection": csg.OpIntersection,
	"subtract":     csg.OpSubtract,
}

func newBooleanCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:       "boolean <union|intersection|subtract> <a.stl> <b.stl>",
		Short:     "Combine two STL solids",
		Long:      "Apply a boolean operation to two closed STL meshes and write the result.",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"union", "intersection", "subtract"},
		RunE: func(cmd *cobra.Command, args []string) error {
			op, ok := operations[args[0]]
			if !ok {
				return fmt.Errorf("unknown operation %q (want union, intersection or subtract)", args[0])
			}
			a, err := stl.ParseFile(args[1])
			if err != nil {
				return err
			}
			b, err := stl.ParseFile(args[2])
			if err != nil {
				return err
			}

			var stats csg.Stats
			e := opts.engine(func(s csg.Stats) { stats = s })
			tris, err := e.Apply(op, a.Triangles, b.Triangles)
			if err != nil {
				return err
			}
			if err := stl.WriteFile(out, tris, opts.ascii); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %d + %d triangles -> %d\n", op, len(a.Triangles), len(b.Triangles), len(tris))
			if stats.Epsilon > 0 {
				fmt.Fprintf(w, "  epsilon %g, %d degenerate dropped, %s\n", stats.Epsilon, stats.Degenerate, stats.Elapsed)
			}
			fmt.Fprintf(w, "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "out.stl", "output STL path")
	return cmd
}
