package csg

// Node is a BSP tree node. Polygons lying in the splitting plane are stored
// on the node; everything in front of it lives under front, everything
// behind under back. A node without a plane is an empty tree.
//
// All traversals use explicit worklists. The first-polygon plane choice can
// produce chains as deep as the polygon count on convex input, so Go
// recursion is never used to walk the tree.
type Node struct {
	plane    Plane
	hasPlane bool
	polygons []Polygon
	front    *Node
	back     *Node
	eps      float64
}

// NewNode returns an empty tree that classifies with tolerance eps.
func NewNode(eps float64) *Node {
	return &Node{eps: eps}
}

// Build returns a tree holding polygons.
func Build(polygons []Polygon, eps float64) *Node {
	n := NewNode(eps)
	n.Build(polygons)
	return n
}

type buildJob struct {
	node  *Node
	polys []Polygon
}

// Build inserts polygons into the tree. A node without a plane adopts the
// plane of the first polygon that reaches it. Polygons without a valid plane
// are ignored.
func (n *Node) Build(polygons []Polygon) {
	stack := []buildJob{{node: n, polys: polygons}}
	for len(stack) > 0 {
		job := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, polys := job.node, job.polys
		var frontPolys, backPolys []Polygon
		for _, p := range polys {
			if !p.Plane.valid() || len(p.Vertices) < 3 {
				continue
			}
			if !node.hasPlane {
				node.plane = p.Plane
				node.hasPlane = true
				node.polygons = append(node.polygons, p)
				continue
			}
			splitInto(node.plane, p, node.eps, &node.polygons, &node.polygons, &frontPolys, &backPolys)
		}

		if len(frontPolys) > 0 {
			if node.front == nil {
				node.front = NewNode(node.eps)
			}
			stack = append(stack, buildJob{node: node.front, polys: frontPolys})
		}
		if len(backPolys) > 0 {
			if node.back == nil {
				node.back = NewNode(node.eps)
			}
			stack = append(stack, buildJob{node: node.back, polys: backPolys})
		}
	}
}

// ClipPolygons returns the parts of polygons that lie outside the solid the
// tree bounds. Surfaces coincident with the tree's own boundary survive when
// they face the same way. An empty tree returns a copy of the input.
func (n *Node) ClipPolygons(polygons []Polygon) []Polygon {
	var out []Polygon
	stack := []buildJob{{node: n, polys: polygons}}
	for len(stack) > 0 {
		job := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := job.node
		if !node.hasPlane {
			out = append(out, job.polys...)
			continue
		}

		var frontPolys, backPolys []Polygon
		for _, p := range job.polys {
			splitInto(node.plane, p, node.eps, &frontPolys, &backPolys, &frontPolys, &backPolys)
		}

		if node.front != nil && len(frontPolys) > 0 {
			stack = append(stack, buildJob{node: node.front, polys: frontPolys})
		} else {
			out = append(out, frontPolys...)
		}
		// Behind a leaf plane is inside the solid.
		if node.back != nil && len(backPolys) > 0 {
			stack = append(stack, buildJob{node: node.back, polys: backPolys})
		}
	}
	return out
}

// ClipTo removes from this tree every polygon part inside other.
func (n *Node) ClipTo(other *Node) {
	n.walk(func(node *Node) {
		node.polygons = other.ClipPolygons(node.polygons)
	})
}

// Invert turns the solid inside out: planes and polygons flip and the front
// and back subtrees trade places.
func (n *Node) Invert() {
	n.walk(func(node *Node) {
		for i, p := range node.polygons {
			node.polygons[i] = p.Flip()
		}
		if node.hasPlane {
			node.plane = node.plane.Flip()
		}
		node.front, node.back = node.back, node.front
	})
}

// AllPolygons returns every polygon stored in the tree.
func (n *Node) AllPolygons() []Polygon {
	var out []Polygon
	n.walk(func(node *Node) {
		out = append(out, node.polygons...)
	})
	return out
}

// Count returns the number of nodes carrying a plane.
func (n *Node) Count() int {
	count := 0
	n.walk(func(node *Node) {
		if node.hasPlane {
			count++
		}
	})
	return count
}

// Depth returns the length of the longest root-to-leaf path. An empty tree
// has depth zero.
func (n *Node) Depth() int {
	type frame struct {
		node  *Node
		depth int
	}
	if !n.hasPlane {
		return 0
	}
	maxDepth := 0
	stack := []frame{{node: n, depth: 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > maxDepth {
			maxDepth = f.depth
		}
		if f.node.front != nil {
			stack = append(stack, frame{node: f.node.front, depth: f.depth + 1})
		}
		if f.node.back != nil {
			stack = append(stack, frame{node: f.node.back, depth: f.depth + 1})
		}
	}
	return maxDepth
}

// walk visits every node once, parents before children. fn may swap a
// node's children; the children read after fn returns are visited.
func (n *Node) walk(fn func(*Node)) {
	stack := []*Node{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(node)
		if node.front != nil {
			stack = append(stack, node.front)
		}
		if node.back != nil {
			stack = append(stack, node.back)
		}
	}
}
