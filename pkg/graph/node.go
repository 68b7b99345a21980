package graph

// NodeKind enumerates the types of nodes in the design graph.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // closed solid primitive (cuboid, sphere, ...)
	NodeBoolean                   // union, intersection or subtract over children
	NodeTransform                 // translation and rotation of one child
	NodeChannel                   // swept rectangular channel along a path
	NodeGroup                     // logical grouping (assembly)
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeBoolean:
		return "boolean"
	case NodeTransform:
		return "transform"
	case NodeChannel:
		return "channel"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// IsSolid reports whether nodes of this kind evaluate to a single solid.
func (k NodeKind) IsSolid() bool {
	return k != NodeGroup
}

// Node is the fundamental element of the design graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// Label returns the node's name, or its short ID when it has none.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
