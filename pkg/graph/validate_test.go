package graph

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// buildValidChip creates a chip block with a channel and an inlet subtracted
// from it, placed inside a device assembly root.
func buildValidChip() *DesignGraph {
	g := New()

	blockID := NewNodeID("defpart/block")
	channelID := NewNodeID("channel/1")
	inletID := NewNodeID("cylinder/2")
	chipID := NewNodeID("defpart/chip")
	placeID := NewNodeID("translate/3")
	groupID := NewNodeID("assembly/device")

	g.AddNode(&Node{
		ID: blockID, Kind: NodePrimitive, Name: "block",
		Data: PrimitiveData{Shape: ShapeCuboid, Size: Vec3{40, 20, 4}},
	})
	g.AddNode(&Node{
		ID: channelID, Kind: NodeChannel,
		Data: ChannelData{Path: []Vec3{{-15, 0, 1}, {15, 0, 1}}, Width: 0.5, Depth: 0.2},
	})
	g.AddNode(&Node{
		ID: inletID, Kind: NodePrimitive,
		Data: PrimitiveData{Shape: ShapeCylinder, Radius: 1, Height: 6, Segments: 24},
	})
	g.AddNode(&Node{
		ID: chipID, Kind: NodeBoolean, Name: "chip",
		Children: []NodeID{blockID, channelID, inletID},
		Data:     BooleanData{Op: OpSubtract},
	})
	offset := Vec3{0, 0, 10}
	g.AddNode(&Node{
		ID: placeID, Kind: NodeTransform,
		Children: []NodeID{chipID},
		Data:     TransformData{Translation: &offset},
	})
	g.AddNode(&Node{
		ID:       groupID,
		Kind:     NodeGroup,
		Name:     "device",
		Children: []NodeID{placeID},
		Data:     GroupData{Description: "single channel chip"},
	})
	g.AddRoot(groupID)

	return g
}

// hasError returns true if errs contains at least one error-severity finding
// whose message contains substr.
func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// hasWarning returns true if errs contains at least one warning-severity
// finding whose message contains substr.
func hasWarning(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityWarning && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// errorCount returns the number of error-severity findings.
func errorCount(errs []ValidationError) int {
	n := 0
	for _, e := range errs {
		if e.Severity == SeverityError {
			n++
		}
	}
	return n
}

func logAll(t *testing.T, errs []ValidationError) {
	t.Helper()
	for _, e := range errs {
		t.Logf("  %s", e)
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestValidate_ValidGraph(t *testing.T) {
	errs := Validate(buildValidChip())
	for _, e := range errs {
		t.Errorf("unexpected validation error: %s", e)
	}
}

func TestValidate_EmptyGraph(t *testing.T) {
	errs := Validate(New())
	for _, e := range errs {
		t.Errorf("unexpected validation error on empty graph: %s", e)
	}
}

func TestValidate_CycleDetection(t *testing.T) {
	g := New()

	aID := NewNodeID("a")
	bID := NewNodeID("b")
	cID := NewNodeID("c")

	// Create a cycle: a -> b -> c -> a
	g.AddNode(&Node{
		ID: aID, Kind: NodeGroup, Name: "a",
		Children: []NodeID{bID},
		Data:     GroupData{},
	})
	g.AddNode(&Node{
		ID: bID, Kind: NodeGroup, Name: "b",
		Children: []NodeID{cID},
		Data:     GroupData{},
	})
	g.AddNode(&Node{
		ID: cID, Kind: NodeGroup, Name: "c",
		Children: []NodeID{aID},
		Data:     GroupData{},
	})
	g.AddRoot(aID)

	errs := Validate(g)
	if !hasError(errs, "cycle") {
		t.Error("expected cycle detection error, got none")
		logAll(t, errs)
	}
}

func TestValidate_DanglingReference(t *testing.T) {
	g := New()

	parentID := NewNodeID("parent")
	missingID := NewNodeID("missing-child")

	g.AddNode(&Node{
		ID: parentID, Kind: NodeGroup, Name: "parent",
		Children: []NodeID{missingID},
		Data:     GroupData{},
	})
	g.AddRoot(parentID)

	errs := Validate(g)
	if !hasError(errs, "does not exist") {
		t.Error("expected dangling reference error, got none")
		logAll(t, errs)
	}
}

func TestValidate_DuplicateNames(t *testing.T) {
	g := buildValidChip()
	// A second node claiming the name "block".
	dupID := NewNodeID("defpart/block-2")
	g.Nodes[dupID] = &Node{
		ID: dupID, Kind: NodePrimitive, Name: "block",
		Data: PrimitiveData{Shape: ShapeSphere, Radius: 1},
	}
	g.AddRoot(dupID)

	errs := Validate(g)
	if !hasError(errs, `duplicate name "block"`) {
		t.Error("expected duplicate name error")
		logAll(t, errs)
	}
}

func TestValidate_NameIndexDangling(t *testing.T) {
	g := buildValidChip()
	g.NameIndex["ghost"] = NewNodeID("nowhere")

	if errs := Validate(g); !hasError(errs, `"ghost"`) {
		t.Error("expected name index error")
		logAll(t, errs)
	}
}

func TestValidate_MissingRoot(t *testing.T) {
	g := buildValidChip()
	g.AddRoot(NewNodeID("assembly/missing"))

	if errs := Validate(g); !hasError(errs, "root reference") {
		t.Error("expected missing root error")
		logAll(t, errs)
	}
}

func TestValidate_OrphanWarning(t *testing.T) {
	g := buildValidChip()
	orphanID := NewNodeID("defpart/spare")
	g.AddNode(&Node{
		ID: orphanID, Kind: NodePrimitive, Name: "spare",
		Data: PrimitiveData{Shape: ShapeSphere, Radius: 1},
	})

	errs := Validate(g)
	if !hasWarning(errs, `"spare" is not reachable`) {
		t.Error("expected orphan warning")
		logAll(t, errs)
	}
	if errorCount(errs) != 0 {
		t.Errorf("orphans must not be errors, got %d", errorCount(errs))
	}
}

func TestValidate_Arity(t *testing.T) {
	sphere := &Node{ID: NewNodeID("sphere/1"), Kind: NodePrimitive,
		Data: PrimitiveData{Shape: ShapeSphere, Radius: 1}}
	cube := &Node{ID: NewNodeID("cuboid/2"), Kind: NodePrimitive,
		Data: PrimitiveData{Shape: ShapeCuboid, Size: Vec3{1, 1, 1}}}
	group := &Node{ID: NewNodeID("assembly/g"), Kind: NodeGroup, Name: "g",
		Data: GroupData{}}

	tests := []struct {
		name string
		node *Node
		want string
	}{
		{
			name: "boolean without operands",
			node: &Node{ID: NewNodeID("union/3"), Kind: NodeBoolean, Data: BooleanData{}},
			want: "no operands",
		},
		{
			name: "transform with two children",
			node: &Node{ID: NewNodeID("translate/3"), Kind: NodeTransform,
				Children: []NodeID{sphere.ID, cube.ID}, Data: TransformData{}},
			want: "want exactly 1",
		},
		{
			name: "primitive with children",
			node: &Node{ID: NewNodeID("cuboid/3"), Kind: NodePrimitive,
				Children: []NodeID{sphere.ID}, Data: PrimitiveData{Shape: ShapeCuboid, Size: Vec3{1, 1, 1}}},
			want: "cannot have children",
		},
		{
			name: "boolean over a group",
			node: &Node{ID: NewNodeID("union/3"), Kind: NodeBoolean,
				Children: []NodeID{cube.ID, group.ID}, Data: BooleanData{}},
			want: "not a solid",
		},
		{
			name: "mismatched payload",
			node: &Node{ID: NewNodeID("union/3"), Kind: NodeBoolean,
				Children: []NodeID{cube.ID}, Data: GroupData{}},
			want: "carries graph.GroupData data",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			g.AddNode(sphere)
			g.AddNode(cube)
			g.AddNode(group)
			g.AddNode(tt.node)
			g.AddRoot(tt.node.ID)

			errs := Validate(g)
			if !hasError(errs, tt.want) {
				t.Errorf("expected error containing %q", tt.want)
				logAll(t, errs)
			}
		})
	}
}

func TestValidationErrorString(t *testing.T) {
	id := NewNodeID("defpart/chip")
	e := ValidationError{NodeID: id, Message: "bad", Severity: SeverityError}
	if got, want := e.Error(), "[error] node "+id.Short()+": bad"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	graphLevel := ValidationError{Message: "dup", Severity: SeverityWarning}
	if got := graphLevel.Error(); got != "[warning] dup" {
		t.Errorf("Error() = %q", got)
	}
	if got := ValidationSeverity(7).String(); got != "ValidationSeverity(7)" {
		t.Errorf("String() = %q", got)
	}
}

func TestValidateAll_SplitsSeverities(t *testing.T) {
	g := buildValidChip()
	g.AddNode(&Node{
		ID: NewNodeID("defpart/spare"), Kind: NodePrimitive, Name: "spare",
		Data: PrimitiveData{Shape: ShapeSphere, Radius: 1},
	})

	result := ValidateAll(g)
	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v, want the orphan only", result.Warnings)
	}
	if !strings.Contains(result.Warnings[0].Message, "orphan") {
		t.Errorf("warning = %q", result.Warnings[0].Message)
	}
}
