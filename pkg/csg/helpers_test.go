package csg

import (
	"math"
	"sort"
	"testing"

	"github.com/chazu/fluidcsg/pkg/geometry"
	"github.com/chazu/fluidcsg/pkg/primitive"
	"gonum.org/v1/gonum/spatial/r3"
)

// cube returns an axis-aligned cube of the given side centered at center.
func cube(center r3.Vec, side float64) []geometry.Triangle {
	tris, err := primitive.Cuboid(r3.Vec{X: side, Y: side, Z: side})
	if err != nil {
		panic(err)
	}
	return geometry.Translate(tris, center)
}

func scaleMesh(tris []geometry.Triangle, s float64) []geometry.Triangle {
	out := make([]geometry.Triangle, len(tris))
	for i, t := range tris {
		out[i] = geometry.Triangle{
			Normal: t.Normal,
			V1:     r3.Scale(s, t.V1),
			V2:     r3.Scale(s, t.V2),
			V3:     r3.Scale(s, t.V3),
		}
	}
	return out
}

func assertVolume(t *testing.T, tris []geometry.Triangle, want, relTol float64) {
	t.Helper()
	got := geometry.Volume(tris)
	if math.Abs(got-want) > math.Abs(want)*relTol {
		t.Errorf("volume = %.6f, want %.6f (+-%.1f%%)", got, want, relTol*100)
	}
}

func assertVolumeAbs(t *testing.T, tris []geometry.Triangle, want, absTol float64) {
	t.Helper()
	got := geometry.Volume(tris)
	if math.Abs(got-want) > absTol {
		t.Errorf("volume = %.6f, want %.6f (+-%g)", got, want, absTol)
	}
}

// sameTriangleSet reports whether a and b hold the same triangles in any
// order.
func sameTriangleSet(a, b []geometry.Triangle) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := sortedTriangles(a), sortedTriangles(b)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

func sortedTriangles(tris []geometry.Triangle) []geometry.Triangle {
	out := geometry.Clone(tris)
	sort.Slice(out, func(i, j int) bool {
		return lessTriangle(out[i], out[j])
	})
	return out
}

func lessTriangle(a, b geometry.Triangle) bool {
	av := []r3.Vec{a.V1, a.V2, a.V3, a.Normal}
	bv := []r3.Vec{b.V1, b.V2, b.V3, b.Normal}
	for i := range av {
		x, y := av[i], bv[i]
		if x.X != y.X {
			return x.X < y.X
		}
		if x.Y != y.Y {
			return x.Y < y.Y
		}
		if x.Z != y.Z {
			return x.Z < y.Z
		}
	}
	return false
}

func vertex(x, y, z float64) Vertex {
	return Vertex{Pos: r3.Vec{X: x, Y: y, Z: z}, Normal: r3.Vec{Z: 1}}
}

func triangleAtZ(z1, z2, z3 float64) Polygon {
	p, ok := NewPolygon([]Vertex{
		vertex(0, 0, z1),
		vertex(1, 0, z2),
		vertex(0, 1, z3),
	}, &Metadata{})
	if !ok {
		panic("triangleAtZ: collinear vertices")
	}
	return p
}

var zPlane = Plane{Normal: r3.Vec{Z: 1}, W: 0}
