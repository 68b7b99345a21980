package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/fluidcsg/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a graph.Vec3.
type sexpVec3 struct {
	vec graph.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// number returns keyword argument kw, or else positional argument i.
func (pa kwArgs) number(kw string, i int) (float64, error) {
	if v, ok := pa.kw[kw]; ok {
		return toFloat64(v)
	}
	if i < len(pa.positional) {
		return toFloat64(pa.positional[i])
	}
	return 0, fmt.Errorf("missing %s", kw)
}

// vector returns keyword argument kw, or a vec3 at positional i, or three
// numbers starting at positional i.
func (pa kwArgs) vector(kw string, i int) (graph.Vec3, error) {
	if v, ok := pa.kw[kw]; ok {
		return toVec3(v)
	}
	if i < len(pa.positional) {
		if v, ok := pa.positional[i].(*sexpVec3); ok {
			return v.vec, nil
		}
	}
	if i+3 > len(pa.positional) {
		return graph.Vec3{}, fmt.Errorf("missing %s: expected (vec3 x y z) or three numbers", kw)
	}
	var c [3]float64
	for j := range c {
		f, err := toFloat64(pa.positional[i+j])
		if err != nil {
			return graph.Vec3{}, fmt.Errorf("%s: %w", kw, err)
		}
		c[j] = f
	}
	return graph.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// segments returns the optional :segments count, 0 when absent.
func (pa kwArgs) segments() (int, error) {
	v, ok := pa.kw["segments"]
	if !ok {
		return 0, nil
	}
	n, ok := v.(*zygo.SexpInt)
	if !ok {
		return 0, fmt.Errorf("segments: expected integer, got %s", v.SexpString(nil))
	}
	return int(n.Val), nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (graph.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toPath extracts a list of vec3 points.
func toPath(s zygo.Sexp) ([]graph.Vec3, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	path := make([]graph.Vec3, 0, len(items))
	for i, item := range items {
		v, err := toVec3(item)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		path = append(path, v)
	}
	return path, nil
}

// toRefs collects node references from args, flattening lists and arrays.
func toRefs(args []zygo.Sexp) ([]*sexpNodeRef, error) {
	var refs []*sexpNodeRef
	for i, arg := range args {
		switch v := arg.(type) {
		case *sexpNodeRef:
			refs = append(refs, v)
		case *zygo.SexpPair, *zygo.SexpArray:
			items, err := sexpListToSlice(v)
			if err != nil {
				return nil, err
			}
			inner, err := toRefs(items)
			if err != nil {
				return nil, err
			}
			refs = append(refs, inner...)
		default:
			return nil, fmt.Errorf("argument %d: expected solid, got %T (%s)", i, arg, arg.SexpString(nil))
		}
	}
	return refs, nil
}

// ---------------------------------------------------------------------------
// Graph construction
// ---------------------------------------------------------------------------

// builder populates a DesignGraph during one evaluation. Anonymous nodes
// are addressed by "<form>/<sequence>", so evaluating the same source twice
// yields the same IDs.
type builder struct {
	g     *graph.DesignGraph
	seq   int
	parts []graph.NodeID // defpart order
}

func newBuilder(g *graph.DesignGraph) *builder {
	return &builder{g: g}
}

func (b *builder) add(form string, kind graph.NodeKind, data graph.NodeData, children ...graph.NodeID) *sexpNodeRef {
	b.seq++
	id := graph.NewNodeID(fmt.Sprintf("%s/%d", form, b.seq))
	b.g.AddNode(&graph.Node{ID: id, Kind: kind, Children: children, Data: data})
	return &sexpNodeRef{id: id}
}

// solids resolves refs to solid node IDs.
func (b *builder) solids(form string, refs []*sexpNodeRef) ([]graph.NodeID, error) {
	ids := make([]graph.NodeID, 0, len(refs))
	for i, ref := range refs {
		n := b.g.Get(ref.id)
		if n == nil {
			return nil, fmt.Errorf("%s: operand %d refers to an unknown node", form, i)
		}
		if !n.Kind.IsSolid() {
			return nil, fmt.Errorf("%s: operand %d is assembly %q, not a solid", form, i, n.Name)
		}
		ids = append(ids, n.ID)
	}
	return ids, nil
}

// finish makes every top-level part a root when the source declared no
// assembly. A part is top-level when no other node uses it.
func (b *builder) finish() {
	if len(b.g.Roots) > 0 {
		return
	}
	used := lo.SliceToMap(
		lo.FlatMap(lo.Values(b.g.Nodes), func(n *graph.Node, _ int) []graph.NodeID { return n.Children }),
		func(id graph.NodeID) (graph.NodeID, bool) { return id, true },
	)
	for _, id := range lo.Filter(b.parts, func(id graph.NodeID, _ int) bool { return !used[id] }) {
		b.g.AddRoot(id)
	}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs all fluidcsg DSL builtins into a zygomys
// environment. The builtins operate on the provided builder, populating its
// graph during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	for name, fn := range map[string]builtin{
		"vec3":         b.vec3,
		"cuboid":       b.cuboid,
		"sphere":       b.sphere,
		"cylinder":     b.axial(graph.ShapeCylinder),
		"cone":         b.axial(graph.ShapeCone),
		"torus":        b.torus,
		"channel":      b.channel,
		"union":        b.boolean(graph.OpUnion),
		"intersection": b.boolean(graph.OpIntersection),
		"subtract":     b.boolean(graph.OpSubtract),
		"translate":    b.transform("translate"),
		"rotate":       b.transform("rotate"),
		"defpart":      b.defpart,
		"part":         b.part,
		"assembly":     b.assembly,
	} {
		env.AddFunction(name, fn)
	}
}

// (vec3 1 2 3)
func (b *builder) vec3(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}

	x, err := toFloat64(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
	}
	y, err := toFloat64(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
	}
	z, err := toFloat64(args[2])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
	}

	return &sexpVec3{vec: graph.Vec3{X: x, Y: y, Z: z}}, nil
}

// (cuboid 75 25 4) or (cuboid (vec3 75 25 4)) or (cuboid :size (vec3 ...))
func (b *builder) cuboid(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	size, err := pa.vector("size", 0)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("cuboid: %w", err)
	}
	return b.add(name, graph.NodePrimitive, graph.PrimitiveData{Shape: graph.ShapeCuboid, Size: size}), nil
}

// (sphere 5 :segments 32)
func (b *builder) sphere(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	r, err := pa.number("radius", 0)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
	}
	seg, err := pa.segments()
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
	}
	return b.add(name, graph.NodePrimitive, graph.PrimitiveData{
		Shape: graph.ShapeSphere, Radius: r, Segments: seg,
	}), nil
}

// (cylinder 1 5 :segments 24) and (cone 1 5): radius, then height.
func (b *builder) axial(shape graph.Shape) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		r, err := pa.number("radius", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: radius: %w", shape, err)
		}
		h, err := pa.number("height", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: height: %w", shape, err)
		}
		seg, err := pa.segments()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", shape, err)
		}
		return b.add(name, graph.NodePrimitive, graph.PrimitiveData{
			Shape: shape, Radius: r, Height: h, Segments: seg,
		}), nil
	}
}

// (torus 10 2 :segments 32): major, then minor radius.
func (b *builder) torus(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	major, err := pa.number("major", 0)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("torus: major: %w", err)
	}
	minor, err := pa.number("minor", 1)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("torus: minor: %w", err)
	}
	seg, err := pa.segments()
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("torus: %w", err)
	}
	return b.add(name, graph.NodePrimitive, graph.PrimitiveData{
		Shape: graph.ShapeTorus, Radius: major, Minor: minor, Segments: seg,
	}), nil
}

// (channel (list (vec3 0 0 1) (vec3 20 0 1)) :width 0.5 :depth 0.2)
func (b *builder) channel(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	raw, ok := pa.kw["path"]
	if !ok {
		if len(pa.positional) == 0 {
			return zygo.SexpNull, fmt.Errorf("channel requires a path")
		}
		raw = pa.positional[0]
	}
	path, err := toPath(raw)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("channel: path: %w", err)
	}
	w, err := pa.number("width", 1)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("channel: width: %w", err)
	}
	d, err := pa.number("depth", 2)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("channel: depth: %w", err)
	}
	return b.add(name, graph.NodeChannel, graph.ChannelData{Path: path, Width: w, Depth: d}), nil
}

// (union a b ...), (intersection a b ...), (subtract base tool ...)
func (b *builder) boolean(op graph.BooleanOp) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		refs, err := toRefs(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
		}
		if len(refs) == 0 {
			return zygo.SexpNull, fmt.Errorf("%s requires at least one solid", op)
		}
		ids, err := b.solids(op.String(), refs)
		if err != nil {
			return zygo.SexpNull, err
		}
		return b.add(name, graph.NodeBoolean, graph.BooleanData{Op: op}, ids...), nil
	}
}

// (translate solid (vec3 0 0 2)) and (rotate solid (vec3 0 0 90)).
func (b *builder) transform(form string) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("%s requires a solid as first argument", form)
		}
		ref, ok := pa.positional[0].(*sexpNodeRef)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("%s: expected solid, got %T (%s)",
				form, pa.positional[0], pa.positional[0].SexpString(nil))
		}
		ids, err := b.solids(form, []*sexpNodeRef{ref})
		if err != nil {
			return zygo.SexpNull, err
		}
		v, err := pa.vector("by", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
		}

		var td graph.TransformData
		if form == "rotate" {
			td.Rotation = &v
		} else {
			td.Translation = &v
		}
		return b.add(form, graph.NodeTransform, td, ids...), nil
	}
}

// (defpart "name" solid)
func (b *builder) defpart(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 2 {
		return zygo.SexpNull, fmt.Errorf("defpart requires a name and a body expression")
	}

	partName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
	}
	if b.g.Lookup(partName) != nil {
		return zygo.SexpNull, fmt.Errorf("defpart: %q is already defined", partName)
	}

	ref, ok := args[1].(*sexpNodeRef)
	if !ok {
		return zygo.SexpNull, fmt.Errorf("defpart: expected solid expression, got %T", args[1])
	}
	ids, err := b.solids("defpart", []*sexpNodeRef{ref})
	if err != nil {
		return zygo.SexpNull, err
	}
	n := b.g.Get(ids[0])
	if n.Name != "" {
		return zygo.SexpNull, fmt.Errorf("defpart: body is already part %q", n.Name)
	}

	n.Name = partName
	b.g.NameIndex[partName] = n.ID
	b.parts = append(b.parts, n.ID)

	return &sexpNodeRef{id: n.ID, name: partName}, nil
}

// (part "name")
func (b *builder) part(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 1 {
		return zygo.SexpNull, fmt.Errorf("part requires a name argument")
	}

	partName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
	}

	n := b.g.Lookup(partName)
	if n == nil {
		return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
	}

	return &sexpNodeRef{id: n.ID, name: partName}, nil
}

// (assembly "name" (part "chip") (translate (part "lid") (vec3 0 0 5)) ...)
func (b *builder) assembly(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 1 {
		return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
	}

	asmName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
	}
	if b.g.Lookup(asmName) != nil {
		return zygo.SexpNull, fmt.Errorf("assembly: %q is already defined", asmName)
	}

	refs, err := toRefs(args[1:])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("assembly: %w", err)
	}
	children := lo.Map(refs, func(r *sexpNodeRef, _ int) graph.NodeID { return r.id })

	id := graph.NewNodeID("assembly/" + asmName)
	node := &graph.Node{
		ID:       id,
		Kind:     graph.NodeGroup,
		Name:     asmName,
		Children: children,
		Data:     graph.GroupData{},
	}
	b.g.AddNode(node)
	// Nested assemblies are reached through their parent.
	b.g.Roots = lo.Without(b.g.Roots, children...)
	b.g.AddRoot(id)

	return &sexpNodeRef{id: id, name: asmName}, nil
}
