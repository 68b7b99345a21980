package stl

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/fluidcsg/pkg/geometry"
	"github.com/chazu/fluidcsg/pkg/primitive"
	"gonum.org/v1/gonum/spatial/r3"
)

func sampleMesh(t *testing.T) []geometry.Triangle {
	t.Helper()
	tris, err := primitive.Sphere(1.3, 12, 6)
	if err != nil {
		t.Fatal(err)
	}
	return geometry.Translate(tris, r3.Vec{X: 0.1, Y: -2.7, Z: 1e3})
}

// asFloat32 rounds every coordinate the way the file format stores it.
func asFloat32(tris []geometry.Triangle) []geometry.Triangle {
	out := make([]geometry.Triangle, len(tris))
	for i, t := range tris {
		out[i] = geometry.NewTriangle(
			fromFloat32(toFloat32(t.Normal)),
			fromFloat32(toFloat32(t.V1)),
			fromFloat32(toFloat32(t.V2)),
			fromFloat32(toFloat32(t.V3)),
		)
	}
	return out
}

func assertSameTriangles(t *testing.T, got, want []geometry.Triangle) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d triangles, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("triangle %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	tris := sampleMesh(t)
	var buf bytes.Buffer
	if err := Write(&buf, "part", tris); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.Len(), headerSize+4+facetSize*len(tris); got != want {
		t.Fatalf("encoded size = %d, want %d", got, want)
	}

	m, err := Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "part" {
		t.Errorf("Name = %q, want part", m.Name)
	}
	assertSameTriangles(t, m.Triangles, asFloat32(tris))
}

func TestASCIIRoundTrip(t *testing.T) {
	tris := sampleMesh(t)
	var buf bytes.Buffer
	if err := WriteASCII(&buf, "chip body", tris); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "solid chip body\n") {
		t.Errorf("unexpected preamble: %q", buf.String()[:20])
	}

	m, err := Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "chip body" {
		t.Errorf("Name = %q", m.Name)
	}
	assertSameTriangles(t, m.Triangles, asFloat32(tris))
}

func TestBinaryHeaderStartingWithSolid(t *testing.T) {
	tris := sampleMesh(t)
	var buf bytes.Buffer
	if err := Write(&buf, "solidworks export", tris); err != nil {
		t.Fatal(err)
	}
	m, err := Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if m.TriangleCount() != len(tris) {
		t.Errorf("TriangleCount() = %d, want %d", m.TriangleCount(), len(tris))
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	tris, err := primitive.Cuboid(r3.Vec{X: 1, Y: 2, Z: 3})
	if err != nil {
		t.Fatal(err)
	}

	for _, ascii := range []bool{false, true} {
		path := filepath.Join(dir, "box.stl")
		if err := WriteFile(path, tris, ascii); err != nil {
			t.Fatalf("WriteFile(ascii=%v): %v", ascii, err)
		}
		m, err := ParseFile(path)
		if err != nil {
			t.Fatalf("ParseFile(ascii=%v): %v", ascii, err)
		}
		if m.Name != "box" {
			t.Errorf("ascii=%v: Name = %q, want box", ascii, m.Name)
		}
		if math.Abs(m.Volume()-6) > 1e-6 {
			t.Errorf("ascii=%v: Volume() = %v, want 6", ascii, m.Volume())
		}
		if math.Abs(m.SurfaceArea()-22) > 1e-6 {
			t.Errorf("ascii=%v: SurfaceArea() = %v, want 22", ascii, m.SurfaceArea())
		}
		bb := m.BoundingBox()
		if bb.Size() != (r3.Vec{X: 1, Y: 2, Z: 3}) {
			t.Errorf("ascii=%v: bounding box size = %v", ascii, bb.Size())
		}
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "nope.stl")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestParseErrors(t *testing.T) {
	truncated := make([]byte, headerSize+4)
	binary.LittleEndian.PutUint32(truncated[headerSize:], 3)

	tests := []struct {
		name  string
		input []byte
	}{
		{"short binary header", []byte{1, 2, 3}},
		{"truncated binary", truncated},
		{"bad ascii number", []byte("solid x\nfacet normal 0 0 one\nendfacet\nendsolid x\n")},
		{"ascii facet with two vertices", []byte("solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nendloop\nendfacet\nendsolid x\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(bytes.NewReader(tt.input)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestEmptyMesh(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "", nil); err != nil {
		t.Fatal(err)
	}
	m, err := Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if m.TriangleCount() != 0 {
		t.Errorf("TriangleCount() = %d, want 0", m.TriangleCount())
	}
}
