// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. Surfaces are exact signed
// distance functions until ToMesh samples them with marching cubes, which
// makes this backend an independent cross-check for the bsp kernel.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/fluidcsg/pkg/geometry"
	"github.com/chazu/fluidcsg/pkg/kernel"
	"github.com/chazu/fluidcsg/pkg/primitive"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution along
// the longest side of the bounding box.
const DefaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the marching cubes resolution.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) {
		if n > 0 {
			k.cells = n
		}
	}
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{cells: DefaultMeshCells}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) (sdf.SDF3, error) {
	if err := kernel.Err(s); err != nil {
		return nil, err
	}
	ss, ok := s.(*sdfxSolid)
	if !ok {
		return nil, fmt.Errorf("sdfx: solid of type %T was not built by this kernel", s)
	}
	return ss.s, nil
}

// wrap creates a kernel.Solid from an sdf.SDF3 constructor result.
func wrap(s sdf.SDF3, err error) kernel.Solid {
	if err != nil {
		return kernel.Failed(fmt.Errorf("sdfx: %w", err))
	}
	return &sdfxSolid{s: s}
}

// Box creates a box centered on the origin.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	return wrap(sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0))
}

// Sphere creates a sphere. The segments parameter is ignored since SDF
// represents smooth surfaces.
func (k *SdfxKernel) Sphere(radius float64, _ int) kernel.Solid {
	return wrap(sdf.Sphere3D(radius))
}

// Cylinder creates a cylinder with the given height and radius.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, _ int) kernel.Solid {
	return wrap(sdf.Cylinder3D(height, radius, 0))
}

// Cone creates a cone with its base at -height/2 and its apex at
// +height/2.
func (k *SdfxKernel) Cone(height, radius float64, _ int) kernel.Solid {
	return wrap(sdf.Cone3D(height, radius, 0, 0))
}

// Torus revolves a circle of radius minor, centered major away from the
// axis, around Z.
func (k *SdfxKernel) Torus(major, minor float64, _ int) kernel.Solid {
	if minor >= major {
		return kernel.Failed(fmt.Errorf("sdfx: torus minor radius %v must be below major radius %v", minor, major))
	}
	circle, err := sdf.Circle2D(minor)
	if err != nil {
		return kernel.Failed(fmt.Errorf("sdfx: %w", err))
	}
	profile := sdf.Transform2D(circle, sdf.Translate2d(v2.Vec{X: major, Y: 0}))
	return wrap(sdf.Revolve3D(profile))
}

// Channel unions one convex hull per segment box of primitive.Channel.
func (k *SdfxKernel) Channel(path []r3.Vec, width, depth float64) kernel.Solid {
	segments, err := primitive.Channel(path, width, depth)
	if err != nil {
		return kernel.Failed(fmt.Errorf("sdfx: %w", err))
	}
	hulls := make([]sdf.SDF3, len(segments))
	for i, tris := range segments {
		hulls[i] = newHull(tris)
	}
	return &sdfxSolid{s: sdf.Union3D(hulls...)}
}

// hull is the convex solid bounded by the face planes of a closed, outward
// wound triangle mesh. Evaluate returns the largest signed plane distance:
// exact near the faces and a lower bound on the true distance elsewhere.
type hull struct {
	normals []v3.Vec
	offsets []float64
	bb      sdf.Box3
}

func newHull(tris []geometry.Triangle) *hull {
	h := &hull{
		normals: make([]v3.Vec, 0, len(tris)),
		offsets: make([]float64, 0, len(tris)),
	}
	for _, t := range tris {
		n := t.CalculateNormal()
		h.normals = append(h.normals, v3.Vec{X: n.X, Y: n.Y, Z: n.Z})
		h.offsets = append(h.offsets, r3.Dot(n, t.V1))
	}
	bb := geometry.Bounds(tris)
	h.bb = sdf.Box3{
		Min: v3.Vec{X: bb.Min.X, Y: bb.Min.Y, Z: bb.Min.Z},
		Max: v3.Vec{X: bb.Max.X, Y: bb.Max.Y, Z: bb.Max.Z},
	}
	return h
}

// Evaluate returns the signed distance estimate at p.
func (h *hull) Evaluate(p v3.Vec) float64 {
	d := math.Inf(-1)
	for i, n := range h.normals {
		d = max(d, n.X*p.X+n.Y*p.Y+n.Z*p.Z-h.offsets[i])
	}
	return d
}

// BoundingBox returns the hull's bounding box.
func (h *hull) BoundingBox() sdf.Box3 {
	return h.bb
}

// combine applies fn once both operands are healthy.
func combine(a, b kernel.Solid, fn func(a, b sdf.SDF3) sdf.SDF3) kernel.Solid {
	sa, err := unwrap(a)
	if err != nil {
		return kernel.Failed(err)
	}
	sb, err := unwrap(b)
	if err != nil {
		return kernel.Failed(err)
	}
	return &sdfxSolid{s: fn(sa, sb)}
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return combine(a, b, func(a, b sdf.SDF3) sdf.SDF3 { return sdf.Union3D(a, b) })
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return combine(a, b, func(a, b sdf.SDF3) sdf.SDF3 { return sdf.Difference3D(a, b) })
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return combine(a, b, func(a, b sdf.SDF3) sdf.SDF3 { return sdf.Intersect3D(a, b) })
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ss, err := unwrap(s)
	if err != nil {
		return kernel.Failed(err)
	}
	return &sdfxSolid{s: sdf.Transform3D(ss, geometry.Translation(x, y, z))}
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ss, err := unwrap(s)
	if err != nil {
		return kernel.Failed(err)
	}
	return &sdfxSolid{s: sdf.Transform3D(ss, geometry.Rotation(x, y, z))}
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3, err := unwrap(s)
	if err != nil {
		return nil, err
	}

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(sdf3, renderer)

	tris := make([]geometry.Triangle, 0, len(triangles))
	for _, tri := range triangles {
		n := tri.Normal()
		tris = append(tris, geometry.NewTriangle(
			r3.Vec{X: n.X, Y: n.Y, Z: n.Z},
			r3.Vec{X: tri[0].X, Y: tri[0].Y, Z: tri[0].Z},
			r3.Vec{X: tri[1].X, Y: tri[1].Y, Z: tri[1].Z},
			r3.Vec{X: tri[2].X, Y: tri[2].Y, Z: tri[2].Z},
		))
	}
	return kernel.NewMeshFromTriangles("", tris), nil
}
