package primitive

import (
	"math"

	"github.com/chazu/fluidcsg/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// Channel sweeps a rectangular cross-section along a polyline laid out in
// the XY plane and returns one box per segment. Each box is width wide,
// centered on the segment, and extends depth upward from the Z of the
// segment's endpoints. The caller unions the boxes, or subtracts them from a
// chip body, to carve a microfluidic channel network.
func Channel(path []r3.Vec, width, depth float64) ([][]geometry.Triangle, error) {
	if len(path) < 2 {
		return nil, &GeometryError{Shape: "channel", Param: "path length", Value: float64(len(path))}
	}
	if err := checkPositive("channel", "width", width); err != nil {
		return nil, err
	}
	if err := checkPositive("channel", "depth", depth); err != nil {
		return nil, err
	}
	for _, p := range path {
		if !geometry.IsFiniteVec(p) {
			return nil, &GeometryError{Shape: "channel", Param: "path point", Value: math.NaN()}
		}
	}

	segments := make([][]geometry.Triangle, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		box, err := channelSegment(path[i], path[i+1], width, depth)
		if err != nil {
			return nil, err
		}
		segments = append(segments, box)
	}
	return segments, nil
}

func channelSegment(from, to r3.Vec, width, depth float64) ([]geometry.Triangle, error) {
	dir := r3.Vec{X: to.X - from.X, Y: to.Y - from.Y}
	length := r3.Norm(dir)
	if length == 0 {
		return nil, &GeometryError{Shape: "channel", Param: "segment length", Value: 0}
	}
	// Left of the direction of travel, seen from +Z.
	side := r3.Scale(width/(2*length), r3.Vec{X: -dir.Y, Y: dir.X})

	lift := r3.Vec{Z: depth}
	b0 := r3.Sub(from, side)
	b1 := r3.Sub(to, side)
	b2 := r3.Add(to, side)
	b3 := r3.Add(from, side)
	return hexahedron([8]r3.Vec{
		b0, b1, b2, b3,
		r3.Add(b0, lift), r3.Add(b1, lift), r3.Add(b2, lift), r3.Add(b3, lift),
	}), nil
}
