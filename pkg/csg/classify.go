package csg

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// PolygonClassification is the position of a polygon relative to a plane.
type PolygonClassification int

const (
	Coplanar PolygonClassification = iota
	Front
	Back
	Spanning
)

func (c PolygonClassification) String() string {
	switch c {
	case Coplanar:
		return "coplanar"
	case Front:
		return "front"
	case Back:
		return "back"
	case Spanning:
		return "spanning"
	default:
		return "unknown"
	}
}

// side is a per-vertex bit set; front|back == spanning.
type side uint8

const (
	onPlane side = 0
	front   side = 1
	back    side = 2
	across  side = front | back
)

func sideOf(plane Plane, pos r3.Vec, eps float64) side {
	d := plane.Distance(pos)
	switch {
	case d > eps:
		return front
	case d < -eps:
		return back
	default:
		return onPlane
	}
}

// ClassifyPolygon places p relative to plane. Vertices within eps of the
// plane count as on it; a polygon with fewer than three vertices is
// Coplanar.
func ClassifyPolygon(p Polygon, plane Plane, eps float64) PolygonClassification {
	if len(p.Vertices) < 3 {
		return Coplanar
	}
	var mask side
	for _, v := range p.Vertices {
		mask |= sideOf(plane, v.Pos, eps)
	}
	return classificationOf(mask)
}

func classificationOf(mask side) PolygonClassification {
	switch mask {
	case front:
		return Front
	case back:
		return Back
	case across:
		return Spanning
	default:
		return Coplanar
	}
}

// SplitPolygon sorts p into the front or back of plane, cutting it in two
// when it spans the plane. Coplanar polygons go to the front. Fragments keep
// p's plane and metadata; a side with fewer than three vertices is dropped.
func SplitPolygon(plane Plane, p Polygon, eps float64) (frontPolys, backPolys []Polygon) {
	splitInto(plane, p, eps, &frontPolys, &frontPolys, &frontPolys, &backPolys)
	return frontPolys, backPolys
}

// splitInto is the tree-facing form of SplitPolygon. Coplanar polygons go
// to coFront when they face the same way as plane and to coBack otherwise.
func splitInto(plane Plane, p Polygon, eps float64, coFront, coBack, frontOut, backOut *[]Polygon) {
	n := len(p.Vertices)
	if n < 3 {
		return
	}

	var mask side
	sides := make([]side, n)
	for i, v := range p.Vertices {
		sides[i] = sideOf(plane, v.Pos, eps)
		mask |= sides[i]
	}

	switch mask {
	case onPlane:
		if r3.Dot(plane.Normal, p.Plane.Normal) > 0 {
			*coFront = append(*coFront, p)
		} else {
			*coBack = append(*coBack, p)
		}
	case front:
		*frontOut = append(*frontOut, p)
	case back:
		*backOut = append(*backOut, p)
	case across:
		f := make([]Vertex, 0, n+1)
		b := make([]Vertex, 0, n+1)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			si, sj := sides[i], sides[j]
			vi, vj := p.Vertices[i], p.Vertices[j]
			if si != back {
				f = append(f, vi)
			}
			if si != front {
				b = append(b, vi)
			}
			if si|sj == across {
				denom := r3.Dot(plane.Normal, r3.Sub(vj.Pos, vi.Pos))
				t := (plane.W - r3.Dot(plane.Normal, vi.Pos)) / denom
				v := InterpolateVertex(vi, vj, t)
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*frontOut = append(*frontOut, Polygon{Vertices: f, Plane: p.Plane, Meta: p.Meta})
		}
		if len(b) >= 3 {
			*backOut = append(*backOut, Polygon{Vertices: b, Plane: p.Plane, Meta: p.Meta})
		}
	}
}
