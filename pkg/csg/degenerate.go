package csg

import (
	"math"

	"github.com/chazu/fluidcsg/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// MaxAspectRatio is the largest ratio of longest edge to shortest altitude
// a triangle may have before it is treated as a sliver.
const MaxAspectRatio = 1e6

// IsDegenerateTriangle reports whether t is unusable as BSP input at unit
// scale. See IsDegenerateTriangleEps.
func IsDegenerateTriangle(t geometry.Triangle) bool {
	return IsDegenerateTriangleEps(t, BaseEpsilon)
}

// IsDegenerateTriangleEps reports whether t has a non-finite component, two
// vertices within eps of each other, an altitude within eps of zero, or an
// aspect ratio above MaxAspectRatio.
func IsDegenerateTriangleEps(t geometry.Triangle, eps float64) bool {
	if !t.IsFinite() {
		return true
	}

	edges := t.EdgeLengths()
	longest := math.Max(edges[0], math.Max(edges[1], edges[2]))
	shortest := math.Min(edges[0], math.Min(edges[1], edges[2]))
	if shortest <= eps {
		return true
	}

	// Twice the area over the longest edge is the shortest altitude.
	doubleArea := r3.Norm(r3.Cross(r3.Sub(t.V2, t.V1), r3.Sub(t.V3, t.V1)))
	altitude := doubleArea / longest
	if altitude <= eps {
		return true
	}
	return longest/altitude > MaxAspectRatio
}

// FilterDegenerate returns the triangles that survive
// IsDegenerateTriangleEps and the number that were dropped.
func FilterDegenerate(tris []geometry.Triangle, eps float64) ([]geometry.Triangle, int) {
	out := make([]geometry.Triangle, 0, len(tris))
	for _, t := range tris {
		if IsDegenerateTriangleEps(t, eps) {
			continue
		}
		out = append(out, t)
	}
	return out, len(tris) - len(out)
}
