// Package stl reads and writes STL files in both the binary and the ASCII
// flavor. Coordinates are float32 on disk and float64 in memory; a write
// followed by a read reproduces the float32 values bit for bit.
package stl

import (
	"github.com/chazu/fluidcsg/pkg/geometry"
)

// Model represents a complete STL model
type Model struct {
	Name      string
	Triangles []geometry.Triangle
}

// NewModel creates a new STL model
func NewModel(name string) *Model {
	return &Model{
		Name:      name,
		Triangles: make([]geometry.Triangle, 0),
	}
}

// AddTriangle adds a triangle to the model
func (m *Model) AddTriangle(triangle geometry.Triangle) {
	m.Triangles = append(m.Triangles, triangle)
}

// TriangleCount returns the number of triangles in the model
func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// BoundingBox calculates the bounding box of the entire model
func (m *Model) BoundingBox() geometry.BoundingBox {
	return geometry.Bounds(m.Triangles)
}

// SurfaceArea calculates the total surface area of the model
func (m *Model) SurfaceArea() float64 {
	return geometry.SurfaceArea(m.Triangles)
}

// Volume returns the enclosed volume, meaningful for closed meshes only.
func (m *Model) Volume() float64 {
	return geometry.Volume(m.Triangles)
}
