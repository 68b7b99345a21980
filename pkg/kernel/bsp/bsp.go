// Package bsp implements the kernel.Kernel interface on exact triangle
// meshes, with booleans evaluated by the csg package.
package bsp

import (
	"fmt"
	"log/slog"

	"github.com/chazu/fluidcsg/pkg/csg"
	"github.com/chazu/fluidcsg/pkg/geometry"
	"github.com/chazu/fluidcsg/pkg/kernel"
	"github.com/chazu/fluidcsg/pkg/primitive"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*BSPKernel)(nil)

// bspSolid wraps a closed triangle mesh to implement kernel.Solid.
type bspSolid struct {
	tris []geometry.Triangle
}

// BoundingBox returns the axis-aligned bounding box.
func (s *bspSolid) BoundingBox() (min, max [3]float64) {
	bb := geometry.Bounds(s.tris)
	if bb.IsEmpty() {
		return min, max
	}
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// BSPKernel implements kernel.Kernel with polygon meshes.
type BSPKernel struct {
	engine   *csg.Engine
	segments int
	logger   *slog.Logger
}

// Option configures a BSPKernel.
type Option func(*BSPKernel)

// WithEngine sets the boolean engine. The default is csg.New().
func WithEngine(e *csg.Engine) Option {
	return func(k *BSPKernel) {
		if e != nil {
			k.engine = e
		}
	}
}

// WithSegments sets the tessellation used when a primitive is requested
// with a non-positive segment count.
func WithSegments(n int) Option {
	return func(k *BSPKernel) {
		if n >= primitive.MinSegments {
			k.segments = n
		}
	}
}

// WithLogger sets the diagnostic sink.
func WithLogger(l *slog.Logger) Option {
	return func(k *BSPKernel) {
		if l != nil {
			k.logger = l
		}
	}
}

// New returns a new BSPKernel.
func New(opts ...Option) *BSPKernel {
	k := &BSPKernel{
		segments: primitive.DefaultSegments,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.engine == nil {
		k.engine = csg.New(csg.WithLogger(k.logger))
	}
	return k
}

// Triangles returns the mesh behind a solid produced by this kernel, or the
// deferred construction error.
func Triangles(s kernel.Solid) ([]geometry.Triangle, error) {
	if err := kernel.Err(s); err != nil {
		return nil, err
	}
	bs, ok := s.(*bspSolid)
	if !ok {
		return nil, fmt.Errorf("bsp: solid of type %T was not built by this kernel", s)
	}
	return bs.tris, nil
}

// wrap creates a kernel.Solid from a generator result.
func wrap(tris []geometry.Triangle, err error) kernel.Solid {
	if err != nil {
		return kernel.Failed(fmt.Errorf("bsp: %w", err))
	}
	return &bspSolid{tris: tris}
}

func (k *BSPKernel) segmentsOr(n int) int {
	if n <= 0 {
		return k.segments
	}
	return n
}

// Box creates a box centered on the origin.
func (k *BSPKernel) Box(x, y, z float64) kernel.Solid {
	return wrap(primitive.Cuboid(r3.Vec{X: x, Y: y, Z: z}))
}

// Sphere creates a UV sphere with half as many rings as segments.
func (k *BSPKernel) Sphere(radius float64, segments int) kernel.Solid {
	segments = k.segmentsOr(segments)
	return wrap(primitive.Sphere(radius, segments, max(segments/2, primitive.MinRings)))
}

// Cylinder creates a capped cylinder along Z.
func (k *BSPKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	return wrap(primitive.Cylinder(radius, height, k.segmentsOr(segments)))
}

// Cone creates a cone along Z with its apex on top.
func (k *BSPKernel) Cone(height, radius float64, segments int) kernel.Solid {
	return wrap(primitive.Cone(radius, height, k.segmentsOr(segments)))
}

// Torus creates a torus around Z. The tube uses half as many sides as the
// sweep has segments.
func (k *BSPKernel) Torus(major, minor float64, segments int) kernel.Solid {
	segments = k.segmentsOr(segments)
	return wrap(primitive.Torus(major, minor, segments, max(segments/2, primitive.MinSegments)))
}

// Channel unions the segment boxes of primitive.Channel.
func (k *BSPKernel) Channel(path []r3.Vec, width, depth float64) kernel.Solid {
	segments, err := primitive.Channel(path, width, depth)
	if err != nil {
		return kernel.Failed(fmt.Errorf("bsp: %w", err))
	}
	solids := lo.Map(segments, func(tris []geometry.Triangle, _ int) kernel.Solid {
		return &bspSolid{tris: tris}
	})
	return lo.Reduce(solids[1:], func(acc, s kernel.Solid, _ int) kernel.Solid {
		return k.Union(acc, s)
	}, solids[0])
}

// boolean runs op unless an operand already failed.
func (k *BSPKernel) boolean(op csg.Operation, a, b kernel.Solid) kernel.Solid {
	ta, err := Triangles(a)
	if err != nil {
		return kernel.Failed(err)
	}
	tb, err := Triangles(b)
	if err != nil {
		return kernel.Failed(err)
	}
	out, err := k.engine.Apply(op, ta, tb)
	if err != nil {
		k.logger.Warn("bsp: boolean failed", "op", op, "err", err)
		return kernel.Failed(fmt.Errorf("bsp: %w", err))
	}
	return &bspSolid{tris: out}
}

// Union returns the union of two solids.
func (k *BSPKernel) Union(a, b kernel.Solid) kernel.Solid {
	return k.boolean(csg.OpUnion, a, b)
}

// Difference returns the difference a - b.
func (k *BSPKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return k.boolean(csg.OpSubtract, a, b)
}

// Intersection returns the intersection of two solids.
func (k *BSPKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return k.boolean(csg.OpIntersection, a, b)
}

// Translate moves a solid by (x, y, z).
func (k *BSPKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	tris, err := Triangles(s)
	if err != nil {
		return kernel.Failed(err)
	}
	return &bspSolid{tris: geometry.Translate(tris, r3.Vec{X: x, Y: y, Z: z})}
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *BSPKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	tris, err := Triangles(s)
	if err != nil {
		return kernel.Failed(err)
	}
	return &bspSolid{tris: geometry.Transform(tris, geometry.Rotation(x, y, z))}
}

// ToMesh flattens the solid's triangles. A failed solid returns its error.
func (k *BSPKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	tris, err := Triangles(s)
	if err != nil {
		return nil, err
	}
	return kernel.NewMeshFromTriangles("", tris), nil
}
