package main

import (
	"fmt"

	"github.com/chazu/fluidcsg/pkg/geometry"
	"github.com/chazu/fluidcsg/pkg/primitive"
	"github.com/chazu/fluidcsg/pkg/stl"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

type primitiveOptions struct {
	out    string
	size   []float64
	radius float64
	height float64
	minor  float64
	rings  int
}

func newPrimitiveCmd(opts *options) *cobra.Command {
	po := &primitiveOptions{}
	cmd := &cobra.Command{
		Use:       "primitive <cuboid|sphere|cylinder|cone|torus>",
		Short:     "Write a primitive solid to STL",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"cuboid", "sphere", "cylinder", "cone", "torus"},
		RunE: func(cmd *cobra.Command, args []string) error {
			tris, err := po.build(args[0], opts.segmentsOr(primitive.DefaultSegments))
			if err != nil {
				return err
			}
			out := po.out
			if out == "" {
				out = args[0] + ".stl"
			}
			if err := stl.WriteFile(out, tris, opts.ascii); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d triangles)\n", out, len(tris))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&po.out, "out", "o", "", "output STL path (default: <shape>.stl)")
	f.Float64SliceVar(&po.size, "size", []float64{1, 1, 1}, "cuboid size as x,y,z")
	f.Float64Var(&po.radius, "radius", 1, "radius (major radius for torus)")
	f.Float64Var(&po.height, "height", 1, "height of cylinder or cone")
	f.Float64Var(&po.minor, "minor", 0.25, "torus tube radius")
	f.IntVar(&po.rings, "rings", 0, "sphere rings or torus sides (default: half the segments)")
	return cmd
}

func (o *options) segmentsOr(n int) int {
	if o.segments > 0 {
		return o.segments
	}
	return n
}

func (po *primitiveOptions) build(shape string, segments int) ([]geometry.Triangle, error) {
	rings := po.rings
	if rings <= 0 {
		rings = max(segments/2, primitive.MinSegments)
	}
	switch shape {
	case "cuboid":
		if len(po.size) != 3 {
			return nil, fmt.Errorf("--size needs 3 values, got %d", len(po.size))
		}
		return primitive.Cuboid(r3.Vec{X: po.size[0], Y: po.size[1], Z: po.size[2]})
	case "sphere":
		return primitive.Sphere(po.radius, segments, rings)
	case "cylinder":
		return primitive.Cylinder(po.radius, po.height, segments)
	case "cone":
		return primitive.Cone(po.radius, po.height, segments)
	case "torus":
		return primitive.Torus(po.radius, po.minor, segments, rings)
	default:
		return nil, fmt.Errorf("unknown shape %q", shape)
	}
}
