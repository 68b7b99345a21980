package kernel

import (
	"github.com/chazu/fluidcsg/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is a flat triangle mesh.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which design graph part this came from
}

// NewMeshFromTriangles flattens tris into a Mesh. Every triangle gets its
// own three vertices carrying the face normal.
func NewMeshFromTriangles(partName string, tris []geometry.Triangle) *Mesh {
	numVerts := len(tris) * 3
	m := &Mesh{
		Vertices: make([]float32, 0, numVerts*3),
		Normals:  make([]float32, 0, numVerts*3),
		Indices:  make([]uint32, 0, numVerts),
		PartName: partName,
	}
	for i, t := range tris {
		n := t.Normal
		for j, v := range t.Vertices() {
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
			m.Indices = append(m.Indices, uint32(i*3+j))
		}
	}
	return m
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Triangles expands the indexed mesh back into STL-layout triangles. The
// face normal is taken from the first vertex of each triangle, or computed
// from the winding when the mesh has no normals.
func (m *Mesh) Triangles() []geometry.Triangle {
	tris := make([]geometry.Triangle, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		t := geometry.Triangle{V1: m.vertex(a), V2: m.vertex(b), V3: m.vertex(c)}
		if int(a)*3+2 < len(m.Normals) {
			t.Normal = r3.Vec{
				X: float64(m.Normals[a*3]),
				Y: float64(m.Normals[a*3+1]),
				Z: float64(m.Normals[a*3+2]),
			}
		} else {
			t.Normal = t.CalculateNormal()
		}
		tris = append(tris, t)
	}
	return tris
}

func (m *Mesh) vertex(i uint32) r3.Vec {
	return r3.Vec{
		X: float64(m.Vertices[i*3]),
		Y: float64(m.Vertices[i*3+1]),
		Z: float64(m.Vertices[i*3+2]),
	}
}
