// Package csg implements mesh boolean operations (union, intersection,
// subtraction) on triangle soups using binary space partitioning trees.
//
// Every operation derives its tolerance from the extent of both operands,
// filters degenerate input triangles, builds one BSP tree per operand and
// clips the trees against each other. Trees are owned by a single call and
// discarded afterwards, so an Engine can be shared between goroutines.
package csg

import (
	"math"

	"github.com/chazu/fluidcsg/pkg/geometry"
)

// Tolerance bounds. BaseEpsilon applies to geometry of unit scale; the
// adaptive value never leaves [MinEpsilon, MaxEpsilon].
const (
	BaseEpsilon = 1e-5
	MinEpsilon  = BaseEpsilon * 1e-3
	MaxEpsilon  = BaseEpsilon * 1e3
)

// AdaptiveEpsilon returns a tolerance proportional to the largest side of
// the combined bounding box of all meshes. Empty input yields BaseEpsilon.
// Non-finite coordinates do not contribute to the extent.
func AdaptiveEpsilon(meshes ...[]geometry.Triangle) float64 {
	bbox := geometry.Bounds(meshes...)
	if bbox.IsEmpty() {
		return BaseEpsilon
	}
	return clampEpsilon(BaseEpsilon * bbox.MaxExtent())
}

func clampEpsilon(eps float64) float64 {
	return math.Min(math.Max(eps, MinEpsilon), MaxEpsilon)
}

// RobustFloatEqual compares two floats with a tolerance that is absolute
// for magnitudes up to one and relative above that. Two NaNs compare equal;
// infinities only equal an infinity of the same sign.
func RobustFloatEqual(a, b, eps float64) bool {
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		return math.IsNaN(a) && math.IsNaN(b)
	case math.IsInf(a, 0) || math.IsInf(b, 0):
		return a == b
	}
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale <= 1 {
		return diff <= eps
	}
	return diff <= eps*scale
}
