// Package geometry holds the triangle mesh types shared by the CSG engine,
// the primitive generators, the kernels and STL I/O. Coordinates are float64
// in memory; STL files store them as float32.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle is a triangular facet laid out like an STL record: one face normal
// followed by three positions in counter-clockwise order seen from outside.
type Triangle struct {
	Normal     r3.Vec
	V1, V2, V3 r3.Vec
}

// NewTriangle creates a triangle with an explicit normal.
func NewTriangle(normal, v1, v2, v3 r3.Vec) Triangle {
	return Triangle{
		Normal: normal,
		V1:     v1,
		V2:     v2,
		V3:     v3,
	}
}

// NewFacet creates a triangle whose normal is derived from the winding.
func NewFacet(v1, v2, v3 r3.Vec) Triangle {
	t := Triangle{V1: v1, V2: v2, V3: v3}
	t.Normal = t.CalculateNormal()
	return t
}

// Vertices returns the three positions in winding order.
func (t Triangle) Vertices() [3]r3.Vec {
	return [3]r3.Vec{t.V1, t.V2, t.V3}
}

// CalculateNormal computes the unit normal from the winding order. A
// zero-area triangle yields the zero vector.
func (t Triangle) CalculateNormal() r3.Vec {
	return Normalize(r3.Cross(r3.Sub(t.V2, t.V1), r3.Sub(t.V3, t.V1)))
}

// Area returns the surface area of the triangle.
func (t Triangle) Area() float64 {
	return r3.Norm(r3.Cross(r3.Sub(t.V2, t.V1), r3.Sub(t.V3, t.V1))) / 2.0
}

// EdgeLengths returns the lengths of V1V2, V2V3 and V3V1.
func (t Triangle) EdgeLengths() [3]float64 {
	return [3]float64{
		r3.Norm(r3.Sub(t.V2, t.V1)),
		r3.Norm(r3.Sub(t.V3, t.V2)),
		r3.Norm(r3.Sub(t.V1, t.V3)),
	}
}

// Center returns the centroid of the triangle.
func (t Triangle) Center() r3.Vec {
	return r3.Scale(1.0/3.0, r3.Add(r3.Add(t.V1, t.V2), t.V3))
}

// SignedVolume is the signed volume of the tetrahedron spanned by the
// triangle and the origin.
func (t Triangle) SignedVolume() float64 {
	return r3.Dot(t.V1, r3.Cross(t.V2, t.V3)) / 6.0
}

// IsFinite reports whether every position and normal component is finite.
func (t Triangle) IsFinite() bool {
	return IsFiniteVec(t.Normal) && IsFiniteVec(t.V1) && IsFiniteVec(t.V2) && IsFiniteVec(t.V3)
}

// Flip reverses the winding and the normal.
func (t Triangle) Flip() Triangle {
	return Triangle{
		Normal: r3.Scale(-1, t.Normal),
		V1:     t.V1,
		V2:     t.V3,
		V3:     t.V2,
	}
}

// Normalize returns a unit vector in the same direction, or the zero vector
// when v has zero length.
func Normalize(v r3.Vec) r3.Vec {
	length := r3.Norm(v)
	if length == 0 || math.IsNaN(length) {
		return r3.Vec{}
	}
	return r3.Scale(1.0/length, v)
}

// IsFiniteVec reports whether all components are neither NaN nor infinite.
func IsFiniteVec(v r3.Vec) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
