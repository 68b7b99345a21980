package geometry

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Volume returns the enclosed volume of a closed, outward wound triangle
// mesh using the divergence theorem (sum of signed tetrahedra against the
// origin). Open meshes give meaningless results.
func Volume(tris []Triangle) float64 {
	total := 0.0
	for _, t := range tris {
		total += t.SignedVolume()
	}
	return total
}

// SurfaceArea returns the summed area of all triangles.
func SurfaceArea(tris []Triangle) float64 {
	total := 0.0
	for _, t := range tris {
		total += t.Area()
	}
	return total
}

// Clone returns a copy of the slice; a nil input stays nil.
func Clone(tris []Triangle) []Triangle {
	if tris == nil {
		return nil
	}
	out := make([]Triangle, len(tris))
	copy(out, tris)
	return out
}

// ---------------------------------------------------------------------------
// Rigid transforms
// ---------------------------------------------------------------------------

// Translation returns the matrix that moves points by (x, y, z).
func Translation(x, y, z float64) sdf.M44 {
	return sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
}

// Rotation returns the matrix for Euler angles in degrees, applied X first,
// then Y, then Z.
func Rotation(x, y, z float64) sdf.M44 {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0
	return sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
}

// Transform applies m to every vertex. Normals are recomputed from the
// transformed winding so that any rigid motion keeps them consistent; a
// triangle that collapses keeps its transformed original normal direction.
func Transform(tris []Triangle, m sdf.M44) []Triangle {
	out := make([]Triangle, len(tris))
	origin := m.MulPosition(v3.Vec{})
	for i, t := range tris {
		nt := Triangle{
			V1: fromV3(m.MulPosition(toV3(t.V1))),
			V2: fromV3(m.MulPosition(toV3(t.V2))),
			V3: fromV3(m.MulPosition(toV3(t.V3))),
		}
		nt.Normal = nt.CalculateNormal()
		if nt.Normal == (r3.Vec{}) {
			nt.Normal = Normalize(r3.Sub(fromV3(m.MulPosition(toV3(t.Normal))), fromV3(origin)))
		}
		out[i] = nt
	}
	return out
}

// Translate is a shorthand for Transform with a pure translation.
func Translate(tris []Triangle, offset r3.Vec) []Triangle {
	out := make([]Triangle, len(tris))
	for i, t := range tris {
		out[i] = Triangle{
			Normal: t.Normal,
			V1:     r3.Add(t.V1, offset),
			V2:     r3.Add(t.V2, offset),
			V3:     r3.Add(t.V3, offset),
		}
	}
	return out
}

func toV3(v r3.Vec) v3.Vec {
	return v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromV3(v v3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}
