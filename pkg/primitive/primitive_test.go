package primitive

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/fluidcsg/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// assertClosedOutward checks that the mesh is watertight with consistent
// winding and encloses positive volume.
func assertClosedOutward(t *testing.T, tris []geometry.Triangle) {
	t.Helper()
	if len(tris) == 0 {
		t.Fatal("empty mesh")
	}
	if v := geometry.Volume(tris); v <= 0 {
		t.Fatalf("volume = %v, want positive", v)
	}
	// Every directed edge must appear exactly once, and its reverse once.
	type edge struct{ a, b r3.Vec }
	edges := make(map[edge]int)
	for _, tri := range tris {
		vs := tri.Vertices()
		for i := range vs {
			edges[edge{vs[i], vs[(i+1)%3]}]++
		}
	}
	for e, n := range edges {
		if n != 1 {
			t.Fatalf("directed edge %v used %d times", e, n)
		}
		if edges[edge{e.b, e.a}] != 1 {
			t.Fatalf("edge %v has no opposite", e)
		}
	}
}

func TestCuboid(t *testing.T) {
	tris, err := Cuboid(r3.Vec{X: 2, Y: 3, Z: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(tris) != 12 {
		t.Fatalf("got %d triangles, want 12", len(tris))
	}
	assertClosedOutward(t, tris)
	if v := geometry.Volume(tris); math.Abs(v-24) > 1e-12 {
		t.Errorf("volume = %v, want 24", v)
	}
	b := geometry.Bounds(tris)
	if b.Min != (r3.Vec{X: -1, Y: -1.5, Z: -2}) || b.Max != (r3.Vec{X: 1, Y: 1.5, Z: 2}) {
		t.Errorf("bounds = %v..%v", b.Min, b.Max)
	}
	for i, tri := range tris {
		c := tri.Center()
		if r3.Dot(tri.Normal, c) <= 0 {
			t.Errorf("triangle %d normal %v points inward", i, tri.Normal)
		}
	}
}

func TestSphere(t *testing.T) {
	tris, err := Sphere(1, DefaultSegments, DefaultRings)
	if err != nil {
		t.Fatal(err)
	}
	assertClosedOutward(t, tris)
	want := 2*DefaultSegments + 2*DefaultSegments*(DefaultRings-2)
	if len(tris) != want {
		t.Errorf("got %d triangles, want %d", len(tris), want)
	}
	exact := 4.0 / 3.0 * math.Pi
	if v := geometry.Volume(tris); v > exact || v < 0.95*exact {
		t.Errorf("volume = %v, want just under %v", v, exact)
	}
}

func TestCylinder(t *testing.T) {
	tris, err := Cylinder(1, 2, 64)
	if err != nil {
		t.Fatal(err)
	}
	assertClosedOutward(t, tris)
	// A regular n-gon prism has volume n/2 sin(2pi/n) r^2 h.
	want := 64.0 / 2 * math.Sin(2*math.Pi/64) * 2
	if v := geometry.Volume(tris); math.Abs(v-want) > 1e-9 {
		t.Errorf("volume = %v, want %v", v, want)
	}
	b := geometry.Bounds(tris)
	if b.Min.Z != -1 || b.Max.Z != 1 {
		t.Errorf("z range = [%v, %v], want [-1, 1]", b.Min.Z, b.Max.Z)
	}
}

func TestCone(t *testing.T) {
	tris, err := Cone(1, 3, 48)
	if err != nil {
		t.Fatal(err)
	}
	assertClosedOutward(t, tris)
	want := 48.0 / 2 * math.Sin(2*math.Pi/48) * 3 / 3
	if v := geometry.Volume(tris); math.Abs(v-want) > 1e-9 {
		t.Errorf("volume = %v, want %v", v, want)
	}
}

func TestTorus(t *testing.T) {
	tris, err := Torus(2, 0.5, 48, 24)
	if err != nil {
		t.Fatal(err)
	}
	assertClosedOutward(t, tris)
	exact := 2 * math.Pi * math.Pi * 2 * 0.25
	if v := geometry.Volume(tris); math.Abs(v-exact) > 0.03*exact {
		t.Errorf("volume = %v, want about %v", v, exact)
	}
}

func TestInvalidParameters(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name  string
		fn    func() error
		param string
	}{
		{"cuboid zero", func() error { _, err := Cuboid(r3.Vec{X: 1, Y: 0, Z: 1}); return err }, "depth"},
		{"cuboid nan", func() error { _, err := Cuboid(r3.Vec{X: nan, Y: 1, Z: 1}); return err }, "width"},
		{"cuboid negative", func() error { _, err := Cuboid(r3.Vec{X: 1, Y: 1, Z: -1}); return err }, "height"},
		{"sphere radius", func() error { _, err := Sphere(-1, 8, 4); return err }, "radius"},
		{"sphere inf", func() error { _, err := Sphere(math.Inf(1), 8, 4); return err }, "radius"},
		{"sphere segments", func() error { _, err := Sphere(1, 2, 4); return err }, "segments"},
		{"sphere rings", func() error { _, err := Sphere(1, 8, 1); return err }, "rings"},
		{"cylinder height", func() error { _, err := Cylinder(1, 0, 8); return err }, "height"},
		{"cone radius", func() error { _, err := Cone(0, 1, 8); return err }, "radius"},
		{"torus minor too big", func() error { _, err := Torus(1, 1, 8, 8); return err }, "minor radius"},
		{"torus sides", func() error { _, err := Torus(2, 1, 8, 2); return err }, "sides"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			var ge *GeometryError
			if !errors.As(err, &ge) {
				t.Fatalf("got %v, want *GeometryError", err)
			}
			if ge.Param != tt.param {
				t.Errorf("Param = %q, want %q", ge.Param, tt.param)
			}
		})
	}
}

func TestGeometryErrorMessage(t *testing.T) {
	err := &GeometryError{Shape: "sphere", Param: "radius", Value: -2}
	if got := err.Error(); got != "primitive: sphere: invalid radius -2" {
		t.Errorf("Error() = %q", got)
	}
}

func TestChannel(t *testing.T) {
	path := []r3.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}}
	segs, err := Channel(path, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	for i, s := range segs {
		assertClosedOutward(t, s)
		want := r3.Norm(r3.Sub(path[i+1], path[i])) * 1 * 0.5
		if v := geometry.Volume(s); math.Abs(v-want) > 1e-9 {
			t.Errorf("segment %d volume = %v, want %v", i, v, want)
		}
	}
	b := geometry.Bounds(segs[0])
	if b.Min != (r3.Vec{X: 0, Y: -0.5, Z: 0}) || b.Max != (r3.Vec{X: 10, Y: 0.5, Z: 0.5}) {
		t.Errorf("first segment bounds = %v..%v", b.Min, b.Max)
	}
}

func TestChannelDiagonal(t *testing.T) {
	segs, err := Channel([]r3.Vec{{X: 1, Y: 1, Z: 2}, {X: 4, Y: 5, Z: 2}}, 0.2, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	assertClosedOutward(t, segs[0])
	if v := geometry.Volume(segs[0]); math.Abs(v-5*0.2*0.3) > 1e-9 {
		t.Errorf("volume = %v, want %v", v, 5*0.2*0.3)
	}
}

func TestChannelInvalid(t *testing.T) {
	tests := []struct {
		name  string
		path  []r3.Vec
		width float64
		depth float64
	}{
		{"single point", []r3.Vec{{}}, 1, 1},
		{"zero length", []r3.Vec{{X: 1}, {X: 1}}, 1, 1},
		{"zero width", []r3.Vec{{}, {X: 1}}, 0, 1},
		{"negative depth", []r3.Vec{{}, {X: 1}}, 1, -1},
		{"nan point", []r3.Vec{{}, {X: math.NaN()}}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Channel(tt.path, tt.width, tt.depth)
			var ge *GeometryError
			if !errors.As(err, &ge) {
				t.Errorf("got %v, want *GeometryError", err)
			}
		})
	}
}
