package csg

import (
	"math"

	"github.com/chazu/fluidcsg/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex is a polygon corner: a position and the surface normal there.
type Vertex struct {
	Pos    r3.Vec
	Normal r3.Vec
}

func (v Vertex) flip() Vertex {
	return Vertex{Pos: v.Pos, Normal: r3.Scale(-1, v.Normal)}
}

// InterpolateVertex blends v1 toward v2. The parameter is clamped to [0,1],
// so t <= 0 returns v1 and t >= 1 returns v2 exactly, and every component of
// the result lies between the corresponding components of the endpoints.
// Normals are blended but not renormalized.
func InterpolateVertex(v1, v2 Vertex, t float64) Vertex {
	if v1 == v2 || t <= 0 || math.IsNaN(t) {
		return v1
	}
	if t >= 1 {
		return v2
	}
	return Vertex{
		Pos:    lerpVec(v1.Pos, v2.Pos, t),
		Normal: lerpVec(v1.Normal, v2.Normal, t),
	}
}

func lerpVec(a, b r3.Vec, t float64) r3.Vec {
	return r3.Vec{X: lerp(a.X, b.X, t), Y: lerp(a.Y, b.Y, t), Z: lerp(a.Z, b.Z, t)}
}

// lerp keeps the result inside [min(a,b), max(a,b)] even when a+(b-a)*t
// rounds past an endpoint.
func lerp(a, b, t float64) float64 {
	v := a + (b-a)*t
	lo, hi := math.Min(a, b), math.Max(a, b)
	return math.Min(math.Max(v, lo), hi)
}

// Plane is the set of points p with dot(Normal, p) == W. Normal is unit
// length for every plane built by this package.
type Plane struct {
	Normal r3.Vec
	W      float64
}

// PlaneFromPoints returns the plane through a, b and c, oriented so that the
// points wind counter-clockwise seen from the front. It reports false for
// collinear or coincident points.
func PlaneFromPoints(a, b, c r3.Vec) (Plane, bool) {
	n := geometry.Normalize(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
	if n == (r3.Vec{}) {
		return Plane{}, false
	}
	return Plane{Normal: n, W: r3.Dot(n, a)}, true
}

// Flip returns the same plane facing the other way.
func (p Plane) Flip() Plane {
	return Plane{Normal: r3.Scale(-1, p.Normal), W: -p.W}
}

// Distance is the signed distance from pt to the plane, positive in front.
func (p Plane) Distance(pt r3.Vec) float64 {
	return r3.Dot(p.Normal, pt) - p.W
}

func (p Plane) valid() bool {
	return p.Normal != (r3.Vec{}) && geometry.IsFiniteVec(p.Normal) && !math.IsNaN(p.W) && !math.IsInf(p.W, 0)
}

// Metadata is shared by every polygon cut from the same operand. Fragments
// hold the same pointer as their parent; it is never copied.
type Metadata struct {
	Group int
}

// Polygon is a convex, planar loop of three or more vertices. The supporting
// plane is computed once and inherited by every fragment, so splitting never
// re-derives a plane from sliver geometry.
type Polygon struct {
	Vertices []Vertex
	Plane    Plane
	Meta     *Metadata
}

// NewPolygon builds a polygon from its vertices, taking the plane from the
// first three. The second result is false when those are collinear.
func NewPolygon(vertices []Vertex, meta *Metadata) (Polygon, bool) {
	if len(vertices) < 3 {
		return Polygon{}, false
	}
	plane, ok := PlaneFromPoints(vertices[0].Pos, vertices[1].Pos, vertices[2].Pos)
	if !ok {
		return Polygon{}, false
	}
	return Polygon{Vertices: vertices, Plane: plane, Meta: meta}, true
}

// Flip reverses the winding, the vertex normals and the plane.
func (p Polygon) Flip() Polygon {
	n := len(p.Vertices)
	verts := make([]Vertex, n)
	for i, v := range p.Vertices {
		verts[n-1-i] = v.flip()
	}
	return Polygon{Vertices: verts, Plane: p.Plane.Flip(), Meta: p.Meta}
}

// FromTriangles converts triangles into polygons sharing meta. Each vertex
// takes the triangle's stored normal, or the plane normal when the stored
// one is zero. Triangles without a supporting plane are skipped.
func FromTriangles(tris []geometry.Triangle, meta *Metadata) []Polygon {
	polys := make([]Polygon, 0, len(tris))
	for _, t := range tris {
		plane, ok := PlaneFromPoints(t.V1, t.V2, t.V3)
		if !ok {
			continue
		}
		normal := t.Normal
		if normal == (r3.Vec{}) {
			normal = plane.Normal
		}
		polys = append(polys, Polygon{
			Vertices: []Vertex{
				{Pos: t.V1, Normal: normal},
				{Pos: t.V2, Normal: normal},
				{Pos: t.V3, Normal: normal},
			},
			Plane: plane,
			Meta:  meta,
		})
	}
	return polys
}

// ToTriangles fans every polygon into triangles around its first vertex.
// The face normal is that vertex's normal when usable, otherwise the plane
// normal.
func ToTriangles(polys []Polygon) []geometry.Triangle {
	var tris []geometry.Triangle
	for _, p := range polys {
		if len(p.Vertices) < 3 {
			continue
		}
		normal := p.Vertices[0].Normal
		if normal == (r3.Vec{}) || !geometry.IsFiniteVec(normal) {
			normal = p.Plane.Normal
		}
		v0 := p.Vertices[0].Pos
		for i := 1; i+1 < len(p.Vertices); i++ {
			tris = append(tris, geometry.Triangle{
				Normal: normal,
				V1:     v0,
				V2:     p.Vertices[i].Pos,
				V3:     p.Vertices[i+1].Pos,
			})
		}
	}
	return tris
}
