// Package kernel defines the abstract geometry kernel interface.
// Implementations (bsp, sdfx) provide solid modeling and boolean
// operations behind this interface. The kernel abstraction allows
// swapping backends without changing the rest of the system.
//
// All primitives are centered on the origin; round shapes use Z as
// their axis.
package kernel

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
// Construction never fails eagerly: a bad parameter or a failed boolean
// yields a solid that reports its error from ToMesh.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Sphere(radius float64, segments int) Solid
	Cylinder(height, radius float64, segments int) Solid
	Cone(height, radius float64, segments int) Solid
	Torus(major, minor float64, segments int) Solid

	// Channel sweeps a width x depth cross-section along a polyline in XY,
	// with its floor at the path's Z.
	Channel(path []r3.Vec, width, depth float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// failedSolid carries a construction error through later operations.
type failedSolid struct {
	err error
}

func (f *failedSolid) BoundingBox() (min, max [3]float64) {
	return min, max
}

// Failed returns a solid that stands for err. Backends return it instead of
// panicking and hand the error back from ToMesh.
func Failed(err error) Solid {
	if err == nil {
		err = errors.New("kernel: unknown failure")
	}
	return &failedSolid{err: err}
}

// Err returns the error carried by the first failed solid among ss, or nil.
func Err(ss ...Solid) error {
	for _, s := range ss {
		if f, ok := s.(*failedSolid); ok {
			return f.err
		}
		if s == nil {
			return errors.New("kernel: nil solid")
		}
	}
	return nil
}
