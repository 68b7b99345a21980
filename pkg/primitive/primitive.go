// Package primitive generates closed, outward wound triangle meshes for the
// basic solids used as boolean operands. All shapes are centered on the
// origin with Z as the axis of revolution.
package primitive

import (
	"fmt"
	"math"

	"github.com/chazu/fluidcsg/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// Tessellation defaults and minimums.
const (
	DefaultSegments = 32
	DefaultRings    = 16
	MinSegments     = 3
	MinRings        = 2
)

// GeometryError reports an invalid primitive parameter.
type GeometryError struct {
	Shape string
	Param string
	Value float64
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("primitive: %s: invalid %s %v", e.Shape, e.Param, e.Value)
}

func checkPositive(shape, param string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return &GeometryError{Shape: shape, Param: param, Value: v}
	}
	return nil
}

func checkCount(shape, param string, n, minimum int) error {
	if n < minimum {
		return &GeometryError{Shape: shape, Param: param, Value: float64(n)}
	}
	return nil
}

// hexahedron emits the 12 triangles of a six-sided solid. The first four
// corners are the bottom face counter-clockwise seen from above, the last
// four the top face in the same order.
func hexahedron(c [8]r3.Vec) []geometry.Triangle {
	faces := [6][4]int{
		{0, 3, 2, 1}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4},
		{1, 2, 6, 5},
		{2, 3, 7, 6},
		{3, 0, 4, 7},
	}
	tris := make([]geometry.Triangle, 0, 12)
	for _, f := range faces {
		tris = append(tris,
			geometry.NewFacet(c[f[0]], c[f[1]], c[f[2]]),
			geometry.NewFacet(c[f[0]], c[f[2]], c[f[3]]),
		)
	}
	return tris
}

// Cuboid returns an axis-aligned box with the given side lengths.
func Cuboid(size r3.Vec) ([]geometry.Triangle, error) {
	for _, p := range []struct {
		name string
		v    float64
	}{{"width", size.X}, {"depth", size.Y}, {"height", size.Z}} {
		if err := checkPositive("cuboid", p.name, p.v); err != nil {
			return nil, err
		}
	}
	hx, hy, hz := size.X/2, size.Y/2, size.Z/2
	return hexahedron([8]r3.Vec{
		{X: -hx, Y: -hy, Z: -hz}, {X: hx, Y: -hy, Z: -hz}, {X: hx, Y: hy, Z: -hz}, {X: -hx, Y: hy, Z: -hz},
		{X: -hx, Y: -hy, Z: hz}, {X: hx, Y: -hy, Z: hz}, {X: hx, Y: hy, Z: hz}, {X: -hx, Y: hy, Z: hz},
	}), nil
}

// ring returns n points on a circle of radius r at height z, starting on
// the +X axis and turning counter-clockwise seen from +Z.
func ring(r, z float64, n int) []r3.Vec {
	pts := make([]r3.Vec, n)
	for j := range pts {
		phi := 2 * math.Pi * float64(j) / float64(n)
		pts[j] = r3.Vec{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
	}
	return pts
}

// band stitches two rings of equal size, upper above lower, into an
// outward facing strip of quads.
func band(upper, lower []r3.Vec) []geometry.Triangle {
	n := len(upper)
	tris := make([]geometry.Triangle, 0, 2*n)
	for j := 0; j < n; j++ {
		k := (j + 1) % n
		a, b, c, d := upper[j], lower[j], lower[k], upper[k]
		tris = append(tris,
			geometry.NewFacet(a, b, c),
			geometry.NewFacet(a, c, d),
		)
	}
	return tris
}

// capUp fans a ring around center facing +Z; capDown faces -Z.
func capUp(center r3.Vec, rim []r3.Vec) []geometry.Triangle {
	n := len(rim)
	tris := make([]geometry.Triangle, 0, n)
	for j := 0; j < n; j++ {
		tris = append(tris, geometry.NewFacet(center, rim[j], rim[(j+1)%n]))
	}
	return tris
}

func capDown(center r3.Vec, rim []r3.Vec) []geometry.Triangle {
	n := len(rim)
	tris := make([]geometry.Triangle, 0, n)
	for j := 0; j < n; j++ {
		tris = append(tris, geometry.NewFacet(center, rim[(j+1)%n], rim[j]))
	}
	return tris
}

// Sphere returns a UV sphere. segments divide the equator, rings divide the
// meridian from pole to pole.
func Sphere(radius float64, segments, rings int) ([]geometry.Triangle, error) {
	if err := checkPositive("sphere", "radius", radius); err != nil {
		return nil, err
	}
	if err := checkCount("sphere", "segments", segments, MinSegments); err != nil {
		return nil, err
	}
	if err := checkCount("sphere", "rings", rings, MinRings); err != nil {
		return nil, err
	}

	north := r3.Vec{Z: radius}
	south := r3.Vec{Z: -radius}
	latitudes := make([][]r3.Vec, 0, rings-1)
	for i := 1; i < rings; i++ {
		theta := math.Pi * float64(i) / float64(rings)
		latitudes = append(latitudes, ring(radius*math.Sin(theta), radius*math.Cos(theta), segments))
	}

	tris := capUp(north, latitudes[0])
	for i := 0; i+1 < len(latitudes); i++ {
		tris = append(tris, band(latitudes[i], latitudes[i+1])...)
	}
	tris = append(tris, capDown(south, latitudes[len(latitudes)-1])...)
	return tris, nil
}

// Cylinder returns a capped cylinder spanning z in [-height/2, height/2].
func Cylinder(radius, height float64, segments int) ([]geometry.Triangle, error) {
	if err := checkPositive("cylinder", "radius", radius); err != nil {
		return nil, err
	}
	if err := checkPositive("cylinder", "height", height); err != nil {
		return nil, err
	}
	if err := checkCount("cylinder", "segments", segments, MinSegments); err != nil {
		return nil, err
	}

	hz := height / 2
	top := ring(radius, hz, segments)
	bottom := ring(radius, -hz, segments)

	tris := capUp(r3.Vec{Z: hz}, top)
	tris = append(tris, band(top, bottom)...)
	tris = append(tris, capDown(r3.Vec{Z: -hz}, bottom)...)
	return tris, nil
}

// Cone returns a cone with its base at z = -height/2 and apex at
// z = height/2.
func Cone(radius, height float64, segments int) ([]geometry.Triangle, error) {
	if err := checkPositive("cone", "radius", radius); err != nil {
		return nil, err
	}
	if err := checkPositive("cone", "height", height); err != nil {
		return nil, err
	}
	if err := checkCount("cone", "segments", segments, MinSegments); err != nil {
		return nil, err
	}

	hz := height / 2
	base := ring(radius, -hz, segments)
	tris := capUp(r3.Vec{Z: hz}, base)
	tris = append(tris, capDown(r3.Vec{Z: -hz}, base)...)
	return tris, nil
}

// Torus returns a ring torus around the Z axis. segments divide the sweep
// around Z, sides divide the tube cross-section. minor must be smaller than
// major.
func Torus(major, minor float64, segments, sides int) ([]geometry.Triangle, error) {
	if err := checkPositive("torus", "major radius", major); err != nil {
		return nil, err
	}
	if err := checkPositive("torus", "minor radius", minor); err != nil {
		return nil, err
	}
	if minor >= major {
		return nil, &GeometryError{Shape: "torus", Param: "minor radius", Value: minor}
	}
	if err := checkCount("torus", "segments", segments, MinSegments); err != nil {
		return nil, err
	}
	if err := checkCount("torus", "sides", sides, MinSegments); err != nil {
		return nil, err
	}

	grid := make([][]r3.Vec, segments)
	for i := range grid {
		u := 2 * math.Pi * float64(i) / float64(segments)
		grid[i] = make([]r3.Vec, sides)
		for j := range grid[i] {
			v := 2 * math.Pi * float64(j) / float64(sides)
			rho := major + minor*math.Cos(v)
			grid[i][j] = r3.Vec{X: rho * math.Cos(u), Y: rho * math.Sin(u), Z: minor * math.Sin(v)}
		}
	}

	tris := make([]geometry.Triangle, 0, 2*segments*sides)
	for i := 0; i < segments; i++ {
		ni := (i + 1) % segments
		for j := 0; j < sides; j++ {
			nj := (j + 1) % sides
			a, b, c, d := grid[i][j], grid[ni][j], grid[ni][nj], grid[i][nj]
			tris = append(tris,
				geometry.NewFacet(a, b, c),
				geometry.NewFacet(a, c, d),
			)
		}
	}
	return tris, nil
}
