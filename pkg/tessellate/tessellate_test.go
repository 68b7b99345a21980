package tessellate_test

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/fluidcsg/pkg/geometry"
	"github.com/chazu/fluidcsg/pkg/graph"
	"github.com/chazu/fluidcsg/pkg/kernel"
	"github.com/chazu/fluidcsg/pkg/kernel/bsp"
	"github.com/chazu/fluidcsg/pkg/kernel/sdfx"
	"github.com/chazu/fluidcsg/pkg/tessellate"
)

// newKernel returns a fresh exact kernel for testing.
func newKernel() kernel.Kernel {
	return bsp.New()
}

// makeCuboid creates a named cuboid primitive node.
func makeCuboid(name string, x, y, z float64) *graph.Node {
	return &graph.Node{
		ID:   graph.NewNodeID("defpart/" + name),
		Kind: graph.NodePrimitive,
		Name: name,
		Data: graph.PrimitiveData{Shape: graph.ShapeCuboid, Size: graph.Vec3{X: x, Y: y, Z: z}},
	}
}

// makeTranslate creates an anonymous translation of child.
func makeTranslate(path string, tx, ty, tz float64, child graph.NodeID) *graph.Node {
	t := graph.Vec3{X: tx, Y: ty, Z: tz}
	return &graph.Node{
		ID:       graph.NewNodeID(path),
		Kind:     graph.NodeTransform,
		Children: []graph.NodeID{child},
		Data:     graph.TransformData{Translation: &t},
	}
}

func makeBoolean(name string, op graph.BooleanOp, children ...graph.NodeID) *graph.Node {
	return &graph.Node{
		ID:       graph.NewNodeID("defpart/" + name),
		Kind:     graph.NodeBoolean,
		Name:     name,
		Children: children,
		Data:     graph.BooleanData{Op: op},
	}
}

// makeGroup creates an assembly node with children.
func makeGroup(name string, children ...graph.NodeID) *graph.Node {
	return &graph.Node{
		ID:       graph.NewNodeID("assembly/" + name),
		Kind:     graph.NodeGroup,
		Name:     name,
		Children: children,
		Data:     graph.GroupData{Description: name},
	}
}

func build(nodes ...*graph.Node) *graph.DesignGraph {
	g := graph.New()
	for _, n := range nodes {
		g.AddNode(n)
	}
	return g
}

func meshVolume(m *kernel.Mesh) float64 {
	return geometry.Volume(m.Triangles())
}

func assertVolume(t *testing.T, m *kernel.Mesh, want float64) {
	t.Helper()
	if got := meshVolume(m); math.Abs(got-want) > 1e-3*want {
		t.Errorf("%s volume = %v, want %v", m.PartName, got, want)
	}
}

func tessellateOne(t *testing.T, g *graph.DesignGraph) *kernel.Mesh {
	t.Helper()
	meshes, err := tessellate.Tessellate(g, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	return meshes[0]
}

func TestSingleCuboid(t *testing.T) {
	block := makeCuboid("block", 60, 30, 4)
	g := build(block)
	g.AddRoot(block.ID)

	m := tessellateOne(t, g)
	if m.IsEmpty() {
		t.Fatal("mesh should not be empty")
	}
	if m.PartName != "block" {
		t.Errorf("expected PartName %q, got %q", "block", m.PartName)
	}
	if m.TriangleCount() != 12 {
		t.Errorf("triangles = %d, want 12", m.TriangleCount())
	}
	assertVolume(t, m, 60*30*4)
}

func TestTwoParts(t *testing.T) {
	chip := makeCuboid("chip", 40, 20, 4)
	lid := makeCuboid("lid", 40, 20, 1)
	g := build(chip, lid)
	g.AddRoot(chip.ID)
	g.AddRoot(lid.ID)

	meshes, err := tessellate.Tessellate(g, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	if meshes[0].PartName != "chip" || meshes[1].PartName != "lid" {
		t.Errorf("part names = %q, %q; want root order chip, lid", meshes[0].PartName, meshes[1].PartName)
	}
}

func TestPartWithTransform(t *testing.T) {
	block := makeCuboid("block", 100, 50, 10)
	place := makeTranslate("translate/1", 200, 100, 50, block.ID)
	g := build(block, place)
	g.AddRoot(place.ID)

	m := tessellateOne(t, g)
	if m.PartName != "block" {
		t.Errorf("expected PartName %q, got %q", "block", m.PartName)
	}

	// The cuboid is centered, so it spans (150,75,45)-(250,125,55).
	b := geometry.Bounds(m.Triangles())
	const tol = 1e-4
	for _, c := range []struct {
		name      string
		got, want float64
	}{
		{"min X", b.Min.X, 150}, {"min Y", b.Min.Y, 75}, {"min Z", b.Min.Z, 45},
		{"max X", b.Max.X, 250}, {"max Y", b.Max.Y, 125}, {"max Z", b.Max.Z, 55},
	} {
		if math.Abs(c.got-c.want) > tol {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestRotateThenTranslate(t *testing.T) {
	bar := makeCuboid("bar", 10, 2, 2)
	rot := graph.Vec3{Z: 90}
	move := graph.Vec3{X: 5}
	xf := &graph.Node{
		ID:       graph.NewNodeID("translate/1"),
		Kind:     graph.NodeTransform,
		Children: []graph.NodeID{bar.ID},
		Data:     graph.TransformData{Rotation: &rot, Translation: &move},
	}
	g := build(bar, xf)
	g.AddRoot(xf.ID)

	// Rotated about the origin first, the bar lies along Y, then moves to X=5.
	b := geometry.Bounds(tessellateOne(t, g).Triangles())
	if math.Abs(b.Min.X-4) > 1e-4 || math.Abs(b.Max.X-6) > 1e-4 {
		t.Errorf("X extent = [%v, %v], want [4, 6]", b.Min.X, b.Max.X)
	}
	if math.Abs(b.Min.Y+5) > 1e-4 || math.Abs(b.Max.Y-5) > 1e-4 {
		t.Errorf("Y extent = [%v, %v], want [-5, 5]", b.Min.Y, b.Max.Y)
	}
}

func TestAssembly(t *testing.T) {
	chip := makeCuboid("chip", 40, 20, 4)
	lid := makeCuboid("lid", 40, 20, 1)
	port := makeCuboid("port", 2, 2, 2)
	placeLid := makeTranslate("translate/1", 0, 0, 2.5, lid.ID)
	placePort := makeTranslate("translate/2", 15, 0, 4, port.ID)
	device := makeGroup("device", chip.ID, placeLid.ID, placePort.ID)
	g := build(chip, lid, port, placeLid, placePort, device)
	g.AddRoot(device.ID)

	meshes, err := tessellate.Tessellate(g, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(meshes))
	}
	for i, want := range []string{"chip", "lid", "port"} {
		if meshes[i].PartName != want {
			t.Errorf("mesh %d = %q, want %q", i, meshes[i].PartName, want)
		}
		if meshes[i].IsEmpty() {
			t.Errorf("mesh %q should not be empty", want)
		}
	}
}

func TestNestedAssemblyFlattens(t *testing.T) {
	well := makeCuboid("well", 2, 2, 2)
	second := makeTranslate("translate/1", 5, 0, 0, well.ID)
	row := makeGroup("row", well.ID, second.ID)
	third := makeTranslate("translate/2", 0, 5, 0, well.ID)
	plate := makeGroup("plate", row.ID, third.ID)
	g := build(well, second, row, third, plate)
	g.AddRoot(plate.ID)

	meshes, err := tessellate.Tessellate(g, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(meshes))
	}
}

func TestBooleans(t *testing.T) {
	block := makeCuboid("block", 10, 10, 10)
	hole := makeCuboid("hole", 4, 4, 20)
	side := makeCuboid("side", 10, 10, 10)
	shifted := makeTranslate("translate/1", 5, 0, 0, side.ID)
	far := makeCuboid("far", 2, 2, 2)
	farPlaced := makeTranslate("translate/2", 100, 0, 0, far.ID)

	tests := []struct {
		name string
		node *graph.Node
		want float64
	}{
		{"subtract", makeBoolean("r", graph.OpSubtract, block.ID, hole.ID), 1000 - 160},
		{"union", makeBoolean("r", graph.OpUnion, block.ID, shifted.ID), 1500},
		{"intersection", makeBoolean("r", graph.OpIntersection, block.ID, shifted.ID), 500},
		{"subtract folds left", makeBoolean("r", graph.OpSubtract, block.ID, hole.ID, shifted.ID), 500 - 80},
		{"union of disjoint", makeBoolean("r", graph.OpUnion, block.ID, farPlaced.ID), 1008},
		{"single operand", makeBoolean("r", graph.OpUnion, hole.ID), 320},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(block, hole, side, shifted, far, farPlaced, tt.node)
			g.AddRoot(tt.node.ID)
			m := tessellateOne(t, g)
			if m.PartName != "r" {
				t.Errorf("PartName = %q", m.PartName)
			}
			assertVolume(t, m, tt.want)
		})
	}
}

func TestDisjointIntersectionIsEmpty(t *testing.T) {
	a := makeCuboid("a", 1, 1, 1)
	b := makeCuboid("b", 1, 1, 1)
	moved := makeTranslate("translate/1", 10, 0, 0, b.ID)
	both := makeBoolean("both", graph.OpIntersection, a.ID, moved.ID)
	g := build(a, b, moved, both)
	g.AddRoot(both.ID)

	if m := tessellateOne(t, g); !m.IsEmpty() {
		t.Errorf("expected an empty mesh, got %d triangles", m.TriangleCount())
	}
}

func TestChannel(t *testing.T) {
	ch := &graph.Node{
		ID:   graph.NewNodeID("defpart/bend"),
		Kind: graph.NodeChannel,
		Name: "bend",
		Data: graph.ChannelData{
			Path:  []graph.Vec3{{X: 0, Y: 0, Z: 1}, {X: 10, Y: 0, Z: 1}, {X: 10, Y: 10, Z: 1}},
			Width: 2,
			Depth: 1,
		},
	}
	g := build(ch)
	g.AddRoot(ch.ID)

	m := tessellateOne(t, g)
	// Two 10x2 slabs overlapping in a 1x1 corner square.
	assertVolume(t, m, 39)

	b := geometry.Bounds(m.Triangles())
	if math.Abs(b.Min.Z-1) > 1e-4 || math.Abs(b.Max.Z-2) > 1e-4 {
		t.Errorf("Z extent = [%v, %v], want [1, 2]", b.Min.Z, b.Max.Z)
	}
	if math.Abs(b.Max.X-11) > 1e-4 || math.Abs(b.Max.Y-10) > 1e-4 {
		t.Errorf("max = (%v, %v), want (11, 10)", b.Max.X, b.Max.Y)
	}
}

func TestChipWithChannel(t *testing.T) {
	block := makeCuboid("block", 40, 20, 4)
	ch := &graph.Node{
		ID:   graph.NewNodeID("channel/1"),
		Kind: graph.NodeChannel,
		Data: graph.ChannelData{
			Path:  []graph.Vec3{{X: -15, Y: 0, Z: 1}, {X: 15, Y: 0, Z: 1}},
			Width: 1,
			Depth: 0.5,
		},
	}
	chip := makeBoolean("chip", graph.OpSubtract, block.ID, ch.ID)
	g := build(block, ch, chip)
	g.AddRoot(chip.ID)

	assertVolume(t, tessellateOne(t, g), 40*20*4-30*1*0.5)
}

// countingKernel counts Box calls on an exact kernel.
type countingKernel struct {
	kernel.Kernel
	boxes int
}

func (c *countingKernel) Box(x, y, z float64) kernel.Solid {
	c.boxes++
	return c.Kernel.Box(x, y, z)
}

func TestSharedPartsAreBuiltOnce(t *testing.T) {
	well := makeCuboid("well", 2, 2, 2)
	a := makeTranslate("translate/1", 5, 0, 0, well.ID)
	b := makeTranslate("translate/2", -5, 0, 0, well.ID)
	plate := makeGroup("plate", well.ID, a.ID, b.ID)
	g := build(well, a, b, plate)
	g.AddRoot(plate.ID)

	k := &countingKernel{Kernel: newKernel()}
	meshes, err := tessellate.Tessellate(g, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(meshes))
	}
	if k.boxes != 1 {
		t.Errorf("Box called %d times, want 1", k.boxes)
	}
}

func TestFailedPartDoesNotStopOthers(t *testing.T) {
	good := makeCuboid("good", 1, 1, 1)
	bad := &graph.Node{
		ID:   graph.NewNodeID("defpart/bad"),
		Kind: graph.NodePrimitive,
		Name: "bad",
		Data: graph.PrimitiveData{Shape: graph.ShapeTorus, Radius: 1, Minor: 5},
	}
	asm := makeGroup("asm", good.ID, bad.ID)
	g := build(good, bad, asm)
	g.AddRoot(asm.ID)

	meshes, err := tessellate.Tessellate(g, newKernel())
	if err == nil {
		t.Fatal("expected an error for the bad torus")
	}
	if !strings.Contains(err.Error(), "part bad") {
		t.Errorf("error %q should name the part", err)
	}
	if len(meshes) != 1 || meshes[0].PartName != "good" {
		t.Errorf("expected the good part to survive, got %d meshes", len(meshes))
	}
}

func TestPartNames(t *testing.T) {
	named := makeCuboid("named", 1, 1, 1)
	wrapped := makeTranslate("translate/1", 1, 0, 0, named.ID)
	anon := &graph.Node{
		ID:   graph.NewNodeID("sphere/2"),
		Kind: graph.NodePrimitive,
		Data: graph.PrimitiveData{Shape: graph.ShapeSphere, Radius: 1, Segments: 8},
	}
	anonWrapped := makeTranslate("translate/3", 1, 0, 0, anon.ID)
	g := build(named, wrapped, anon, anonWrapped)
	g.AddRoot(wrapped.ID)
	g.AddRoot(anonWrapped.ID)

	meshes, err := tessellate.Tessellate(g, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	if meshes[0].PartName != "named" {
		t.Errorf("PartName = %q, want named", meshes[0].PartName)
	}
	if meshes[1].PartName != anonWrapped.ID.Short() {
		t.Errorf("PartName = %q, want the transform's short ID", meshes[1].PartName)
	}
}

func TestCycleIsReported(t *testing.T) {
	aID := graph.NewNodeID("translate/1")
	bID := graph.NewNodeID("translate/2")
	offset := graph.Vec3{X: 1}
	a := &graph.Node{ID: aID, Kind: graph.NodeTransform, Children: []graph.NodeID{bID},
		Data: graph.TransformData{Translation: &offset}}
	b := &graph.Node{ID: bID, Kind: graph.NodeTransform, Children: []graph.NodeID{aID},
		Data: graph.TransformData{Translation: &offset}}
	g := build(a, b)
	g.AddRoot(aID)

	_, err := tessellate.Tessellate(g, newKernel())
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("expected a cycle error, got %v", err)
	}
}

func TestMissingRoot(t *testing.T) {
	g := graph.New()
	g.AddRoot(graph.NewNodeID("assembly/ghost"))
	if _, err := tessellate.Tessellate(g, newKernel()); err == nil {
		t.Error("expected an error for a missing root")
	}
}

func TestEmptyGraph(t *testing.T) {
	meshes, err := tessellate.Tessellate(graph.New(), newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 0 {
		t.Fatalf("expected 0 meshes, got %d", len(meshes))
	}

	if meshes, err := tessellate.Tessellate(nil, newKernel()); err != nil || meshes != nil {
		t.Errorf("nil graph = %v, %v", meshes, err)
	}
}

func TestSolid(t *testing.T) {
	block := makeCuboid("block", 4, 6, 8)
	asm := makeGroup("asm", block.ID)
	g := build(block, asm)

	s, err := tessellate.Solid(g, newKernel(), block.ID)
	if err != nil {
		t.Fatalf("Solid failed: %v", err)
	}
	min, max := s.BoundingBox()
	if min != [3]float64{-2, -3, -4} || max != [3]float64{2, 3, 4} {
		t.Errorf("bounds = %v..%v", min, max)
	}

	if _, err := tessellate.Solid(g, newKernel(), asm.ID); err == nil {
		t.Error("expected an error for an assembly")
	}
	if _, err := tessellate.Solid(g, newKernel(), graph.NewNodeID("nowhere")); err == nil {
		t.Error("expected an error for a missing node")
	}
}

func TestSDFKernel(t *testing.T) {
	block := makeCuboid("block", 10, 10, 10)
	pin := &graph.Node{
		ID:   graph.NewNodeID("cylinder/1"),
		Kind: graph.NodePrimitive,
		Data: graph.PrimitiveData{Shape: graph.ShapeCylinder, Radius: 2, Height: 20},
	}
	drilled := makeBoolean("drilled", graph.OpSubtract, block.ID, pin.ID)
	g := build(block, pin, drilled)
	g.AddRoot(drilled.ID)

	meshes, err := tessellate.Tessellate(g, sdfx.New(sdfx.WithMeshCells(32)))
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 || meshes[0].IsEmpty() {
		t.Fatal("expected one non-empty mesh")
	}
	if meshes[0].PartName != "drilled" {
		t.Errorf("PartName = %q", meshes[0].PartName)
	}
}
