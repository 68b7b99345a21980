package graph

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// Shape distinguishes between primitive solids.
type Shape int

const (
	ShapeCuboid Shape = iota
	ShapeSphere
	ShapeCylinder
	ShapeCone
	ShapeTorus
)

func (s Shape) String() string {
	switch s {
	case ShapeCuboid:
		return "cuboid"
	case ShapeSphere:
		return "sphere"
	case ShapeCylinder:
		return "cylinder"
	case ShapeCone:
		return "cone"
	case ShapeTorus:
		return "torus"
	default:
		return "unknown"
	}
}

// PrimitiveData describes a primitive centered on the origin with its axis
// along Z. Which fields apply depends on Shape:
//   - cuboid: Size
//   - sphere: Radius
//   - cylinder, cone: Radius, Height
//   - torus: Radius (major), Minor
type PrimitiveData struct {
	Shape    Shape   `json:"shape"`
	Size     Vec3    `json:"size,omitempty"`
	Radius   float64 `json:"radius,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Minor    float64 `json:"minor,omitempty"`
	Segments int     `json:"segments,omitempty"` // 0 = kernel default
}

func (PrimitiveData) nodeData() {}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BooleanOp enumerates boolean operations.
type BooleanOp int

const (
	OpUnion BooleanOp = iota
	OpIntersection
	OpSubtract
)

func (op BooleanOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpIntersection:
		return "intersection"
	case OpSubtract:
		return "subtract"
	default:
		return "unknown"
	}
}

// BooleanData combines the node's children left to right:
// ((c0 op c1) op c2) ...
type BooleanData struct {
	Op BooleanOp `json:"op"`
}

func (BooleanData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData represents a spatial transformation applied to a child node.
// Rotation is applied first, then translation.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Channel
// ---------------------------------------------------------------------------

// ChannelData sweeps a width x depth rectangle along a polyline in the XY
// plane. Each straight segment becomes one box.
type ChannelData struct {
	Path  []Vec3  `json:"path"`
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`
}

func (ChannelData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData represents a logical grouping (assembly, subassembly).
// Created by the (assembly ...) Lisp form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
