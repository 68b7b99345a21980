// Package tessellate walks a design graph and produces triangle meshes
// using a geometry kernel. Each root becomes one mesh, except assemblies,
// which contribute one mesh per child.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/fluidcsg/pkg/graph"
	"github.com/chazu/fluidcsg/pkg/kernel"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r3"
)

// walker builds kernel solids for graph nodes. Solids are memoized per node,
// so a part referenced from several places is built once.
type walker struct {
	g      *graph.DesignGraph
	k      kernel.Kernel
	memo   map[graph.NodeID]kernel.Solid
	active map[graph.NodeID]bool
}

func newWalker(g *graph.DesignGraph, k kernel.Kernel) *walker {
	return &walker{
		g:      g,
		k:      k,
		memo:   make(map[graph.NodeID]kernel.Solid),
		active: make(map[graph.NodeID]bool),
	}
}

// Tessellate walks the design graph and produces triangle meshes using the
// provided geometry kernel. The tessellator is read-only and never mutates
// the graph.
//
// A part that fails to mesh does not stop the others: the returned meshes
// cover every part that succeeded and the error joins the failures.
func Tessellate(g *graph.DesignGraph, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}

	w := newWalker(g, k)
	var meshes []*kernel.Mesh
	var errs []error

	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			errs = append(errs, fmt.Errorf("tessellate: root %s does not exist", rootID.Short()))
			continue
		}
		for _, n := range w.parts(root) {
			m, err := w.mesh(n)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			meshes = append(meshes, m)
		}
	}

	return meshes, errors.Join(errs...)
}

// Solid builds the kernel solid for a single node.
func Solid(g *graph.DesignGraph, k kernel.Kernel, id graph.NodeID) (kernel.Solid, error) {
	n := g.Get(id)
	if n == nil {
		return nil, fmt.Errorf("tessellate: node %s does not exist", id.Short())
	}
	if n.Kind == graph.NodeGroup {
		return nil, fmt.Errorf("tessellate: %s is an assembly, not a solid", n.Label())
	}
	s := newWalker(g, k).solid(n)
	return s, kernel.Err(s)
}

// parts flattens assemblies into the solid nodes they contain.
func (w *walker) parts(n *graph.Node) []*graph.Node {
	if n.Kind != graph.NodeGroup {
		return []*graph.Node{n}
	}
	if w.active[n.ID] {
		return nil
	}
	w.active[n.ID] = true
	defer delete(w.active, n.ID)

	return lo.FlatMap(w.g.Children(n), func(c *graph.Node, _ int) []*graph.Node {
		return w.parts(c)
	})
}

func (w *walker) mesh(n *graph.Node) (*kernel.Mesh, error) {
	name := partName(w.g, n)
	m, err := w.k.ToMesh(w.solid(n))
	if err != nil {
		return nil, fmt.Errorf("tessellate: part %s: %w", name, err)
	}
	m.PartName = name
	return m, nil
}

// solid returns the memoized kernel solid for n. Failures are carried as
// failed solids and surface from ToMesh.
func (w *walker) solid(n *graph.Node) kernel.Solid {
	if s, ok := w.memo[n.ID]; ok {
		return s
	}
	if w.active[n.ID] {
		return kernel.Failed(fmt.Errorf("cycle through node %s", n.Label()))
	}
	w.active[n.ID] = true
	s := w.build(n)
	delete(w.active, n.ID)

	w.memo[n.ID] = s
	return s
}

func (w *walker) build(n *graph.Node) kernel.Solid {
	switch data := n.Data.(type) {
	case graph.PrimitiveData:
		return w.primitive(n, data)
	case graph.BooleanData:
		return w.boolean(n, data)
	case graph.TransformData:
		return w.transform(n, data)
	case graph.ChannelData:
		return w.channel(n, data)
	case graph.GroupData:
		return kernel.Failed(fmt.Errorf("assembly %s used as a solid", n.Label()))
	default:
		return kernel.Failed(fmt.Errorf("%s node %s has unsupported data type %T", n.Kind, n.Label(), n.Data))
	}
}

func (w *walker) primitive(n *graph.Node, pd graph.PrimitiveData) kernel.Solid {
	seg := pd.Segments
	if seg == 0 {
		seg = w.g.Defaults.Segments
	}

	switch pd.Shape {
	case graph.ShapeCuboid:
		return w.k.Box(pd.Size.X, pd.Size.Y, pd.Size.Z)
	case graph.ShapeSphere:
		return w.k.Sphere(pd.Radius, seg)
	case graph.ShapeCylinder:
		return w.k.Cylinder(pd.Height, pd.Radius, seg)
	case graph.ShapeCone:
		return w.k.Cone(pd.Height, pd.Radius, seg)
	case graph.ShapeTorus:
		return w.k.Torus(pd.Radius, pd.Minor, seg)
	default:
		return kernel.Failed(fmt.Errorf("primitive %s has unknown shape %d", n.Label(), pd.Shape))
	}
}

// boolean folds the operands left: ((a op b) op c) ...
func (w *walker) boolean(n *graph.Node, bd graph.BooleanData) kernel.Solid {
	operands := lo.Map(w.g.Children(n), func(c *graph.Node, _ int) kernel.Solid {
		return w.solid(c)
	})
	if len(operands) == 0 {
		return kernel.Failed(fmt.Errorf("%s %s has no operands", bd.Op, n.Label()))
	}

	var apply func(a, b kernel.Solid) kernel.Solid
	switch bd.Op {
	case graph.OpUnion:
		apply = w.k.Union
	case graph.OpIntersection:
		apply = w.k.Intersection
	case graph.OpSubtract:
		apply = w.k.Difference
	default:
		return kernel.Failed(fmt.Errorf("boolean %s has unknown operation %d", n.Label(), bd.Op))
	}

	return lo.Reduce(operands[1:], func(acc kernel.Solid, s kernel.Solid, _ int) kernel.Solid {
		return apply(acc, s)
	}, operands[0])
}

// transform rotates the child first, then translates it.
func (w *walker) transform(n *graph.Node, td graph.TransformData) kernel.Solid {
	children := w.g.Children(n)
	if len(children) != 1 {
		return kernel.Failed(fmt.Errorf("transform %s has %d children, want 1", n.Label(), len(children)))
	}
	s := w.solid(children[0])
	if r := td.Rotation; r != nil && !r.IsZero() {
		s = w.k.Rotate(s, r.X, r.Y, r.Z)
	}
	if t := td.Translation; t != nil && !t.IsZero() {
		s = w.k.Translate(s, t.X, t.Y, t.Z)
	}
	return s
}

// channel hands the path to the kernel's channel sweep.
func (w *walker) channel(n *graph.Node, cd graph.ChannelData) kernel.Solid {
	path := lo.Map(cd.Path, func(p graph.Vec3, _ int) r3.Vec {
		return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
	})
	s := w.k.Channel(path, cd.Width, cd.Depth)
	if err := kernel.Err(s); err != nil {
		return kernel.Failed(fmt.Errorf("channel %s: %w", n.Label(), err))
	}
	return s
}

// partName returns the first name found walking down through transforms,
// or the node's short ID.
func partName(g *graph.DesignGraph, n *graph.Node) string {
	cur := n
	for i := 0; cur != nil && i <= len(g.Nodes); i++ {
		if cur.Name != "" {
			return cur.Name
		}
		if cur.Kind != graph.NodeTransform || len(cur.Children) != 1 {
			break
		}
		cur = g.Get(cur.Children[0])
	}
	return n.ID.Short()
}
