package main

import (
	"fmt"

	"github.com/chazu/fluidcsg/pkg/csg"
	"github.com/chazu/fluidcsg/pkg/geometry"
	"github.com/chazu/fluidcsg/pkg/stl"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.stl>",
		Short: "Display general information about an STL file",
		Long:  "Show triangle count, bounding box, surface area, enclosed volume and degenerate triangles.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			model, err := stl.ParseFile(filename)
			if err != nil {
				return err
			}

			tris := model.Triangles
			bbox := geometry.Bounds(tris)
			degenerate := lo.CountBy(tris, csg.IsDegenerateTriangle)
			nonFinite := lo.CountBy(tris, func(t geometry.Triangle) bool { return !t.IsFinite() })

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "STL File Information")
			fmt.Fprintln(w, "====================")
			if model.Name != "" {
				fmt.Fprintf(w, "Name: %s\n", model.Name)
			}
			fmt.Fprintf(w, "File: %s\n\n", filename)

			fmt.Fprintln(w, "Model Statistics:")
			fmt.Fprintf(w, "  Triangles: %d\n", len(tris))
			fmt.Fprintf(w, "  Degenerate: %d\n", degenerate)
			if nonFinite > 0 {
				fmt.Fprintf(w, "  Non-finite: %d\n", nonFinite)
			}
			fmt.Fprintf(w, "  Surface Area: %.6f square units\n", geometry.SurfaceArea(tris))
			fmt.Fprintf(w, "  Volume: %.6f cubic units\n", geometry.Volume(tris))
			fmt.Fprintf(w, "  Epsilon: %g\n\n", csg.AdaptiveEpsilon(tris))

			if bbox.IsEmpty() {
				return nil
			}
			size := bbox.Size()
			fmt.Fprintln(w, "Bounding Box:")
			fmt.Fprintf(w, "  Min: %s\n", formatVec(bbox.Min))
			fmt.Fprintf(w, "  Max: %s\n", formatVec(bbox.Max))
			fmt.Fprintf(w, "  Center: %s\n", formatVec(bbox.Center()))
			fmt.Fprintf(w, "  Size: %s\n", formatVec(size))
			fmt.Fprintf(w, "  Diagonal: %.6f units\n", bbox.Diagonal())
			return nil
		},
	}
}

func formatVec(v r3.Vec) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
