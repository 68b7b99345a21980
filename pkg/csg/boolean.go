package csg

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/chazu/fluidcsg/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// Operation identifies a boolean operation.
type Operation int

const (
	OpUnion Operation = iota
	OpIntersection
	OpSubtract
)

func (o Operation) String() string {
	switch o {
	case OpUnion:
		return "union"
	case OpIntersection:
		return "intersection"
	case OpSubtract:
		return "subtract"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// Stats describes one completed boolean operation. It is handed to the
// observer registered with WithObserver.
type Stats struct {
	Op         Operation
	Epsilon    float64
	InputA     int // triangles in operand A
	InputB     int // triangles in operand B
	Degenerate int // triangles dropped by the degenerate filter
	NodesA     int
	NodesB     int
	DepthA     int
	DepthB     int
	Duplicates int // coincident boundary polygons removed
	Output     int // triangles returned
	Elapsed    time.Duration
}

// Engine runs boolean operations. It holds no per-operation state and is
// safe for concurrent use.
type Engine struct {
	logger   *slog.Logger
	observer func(Stats)
	epsilon  float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic sink. Operations log at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers a callback invoked after every successful
// operation.
func WithObserver(fn func(Stats)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// WithEpsilon fixes the tolerance instead of deriving it from the operands.
// Non-positive values restore the adaptive behavior; others are clamped to
// [MinEpsilon, MaxEpsilon].
func WithEpsilon(eps float64) Option {
	return func(e *Engine) {
		if eps > 0 && !math.IsInf(eps, 0) {
			e.epsilon = clampEpsilon(eps)
		} else {
			e.epsilon = 0
		}
	}
}

// New creates an Engine. Without options it uses an adaptive tolerance and
// discards diagnostics.
func New(opts ...Option) *Engine {
	e := &Engine{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// Union returns the solid covered by a or b.
func Union(a, b []geometry.Triangle) ([]geometry.Triangle, error) {
	return defaultEngine.Union(a, b)
}

// Intersection returns the solid covered by both a and b.
func Intersection(a, b []geometry.Triangle) ([]geometry.Triangle, error) {
	return defaultEngine.Intersection(a, b)
}

// Subtract returns the part of a not covered by b.
func Subtract(a, b []geometry.Triangle) ([]geometry.Triangle, error) {
	return defaultEngine.Subtract(a, b)
}

// Union returns the solid covered by a or b. An empty operand yields a copy
// of the other one.
func (e *Engine) Union(a, b []geometry.Triangle) ([]geometry.Triangle, error) {
	return e.Apply(OpUnion, a, b)
}

// Intersection returns the solid covered by both a and b. An empty operand
// yields an empty result.
func (e *Engine) Intersection(a, b []geometry.Triangle) ([]geometry.Triangle, error) {
	return e.Apply(OpIntersection, a, b)
}

// Subtract returns the part of a not covered by b. An empty b yields a copy
// of a; an empty a yields an empty result.
func (e *Engine) Subtract(a, b []geometry.Triangle) ([]geometry.Triangle, error) {
	return e.Apply(OpSubtract, a, b)
}

// Apply runs op on a and b. Input containing NaN or infinite coordinates is
// rejected with a *MeshOpError wrapping ErrNonFiniteInput before any work is
// done. The result is either complete and finite or nil with an error.
func (e *Engine) Apply(op Operation, a, b []geometry.Triangle) (out []geometry.Triangle, err error) {
	if op < OpUnion || op > OpSubtract {
		return nil, &MeshOpError{Op: op.String(), Err: fmt.Errorf("%w: unknown operation", ErrInvariant)}
	}
	if err := checkFinite(a, "a"); err != nil {
		return nil, &MeshOpError{Op: op.String(), Err: err}
	}
	if err := checkFinite(b, "b"); err != nil {
		return nil, &MeshOpError{Op: op.String(), Err: err}
	}
	if res, ok := emptyOperand(op, a, b); ok {
		return res, nil
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &MeshOpError{Op: op.String(), Err: fmt.Errorf("%w: %v", ErrInvariant, r)}
		}
	}()

	start := time.Now()
	stats := Stats{Op: op, InputA: len(a), InputB: len(b)}

	eps := e.epsilon
	if eps == 0 {
		eps = AdaptiveEpsilon(a, b)
	}
	stats.Epsilon = eps

	fa, droppedA := FilterDegenerate(a, eps)
	fb, droppedB := FilterDegenerate(b, eps)
	stats.Degenerate = droppedA + droppedB
	if stats.Degenerate > 0 {
		e.logger.Debug("csg: dropped degenerate triangles", "op", op, "a", droppedA, "b", droppedB)
	}
	if res, ok := emptyOperand(op, fa, fb); ok {
		return res, nil
	}

	ta := Build(FromTriangles(fa, &Metadata{Group: 0}), eps)
	tb := Build(FromTriangles(fb, &Metadata{Group: 1}), eps)
	stats.NodesA, stats.DepthA = ta.Count(), ta.Depth()
	stats.NodesB, stats.DepthB = tb.Count(), tb.Depth()

	e.logger.Debug("csg: trees built",
		"op", op,
		"epsilon", eps,
		"nodes_a", stats.NodesA,
		"depth_a", stats.DepthA,
		"nodes_b", stats.NodesB,
		"depth_b", stats.DepthB,
	)

	switch op {
	case OpUnion:
		unionTrees(ta, tb)
	case OpIntersection:
		intersectTrees(ta, tb)
	case OpSubtract:
		subtractTrees(ta, tb)
	}

	polys, dups := dedupBoundary(ta.AllPolygons(), eps)
	stats.Duplicates = dups
	out = ToTriangles(polys)

	for i, t := range out {
		if !t.IsFinite() {
			return nil, &MeshOpError{Op: op.String(), Err: fmt.Errorf("%w: output triangle %d is not finite", ErrInvariant, i)}
		}
	}

	stats.Output = len(out)
	stats.Elapsed = time.Since(start)
	e.logger.Debug("csg: operation complete",
		"op", op,
		"triangles", stats.Output,
		"duplicates", stats.Duplicates,
		"elapsed", stats.Elapsed,
	)
	if e.observer != nil {
		e.observer(stats)
	}
	return out, nil
}

// The three compositions below leave the result in a.

func unionTrees(a, b *Node) {
	a.ClipTo(b)
	b.ClipTo(a)
	b.Invert()
	b.ClipTo(a)
	b.Invert()
	a.Build(b.AllPolygons())
}

func intersectTrees(a, b *Node) {
	a.Invert()
	b.ClipTo(a)
	b.Invert()
	a.ClipTo(b)
	b.ClipTo(a)
	a.Build(b.AllPolygons())
	a.Invert()
}

func subtractTrees(a, b *Node) {
	a.Invert()
	a.ClipTo(b)
	b.ClipTo(a)
	b.Invert()
	b.ClipTo(a)
	b.Invert()
	a.Build(b.AllPolygons())
	a.Invert()
}

// emptyOperand resolves operations with an empty side without building
// trees. The second result is false when both operands are non-empty.
func emptyOperand(op Operation, a, b []geometry.Triangle) ([]geometry.Triangle, bool) {
	if len(a) > 0 && len(b) > 0 {
		return nil, false
	}
	switch op {
	case OpUnion:
		if len(b) == 0 {
			return geometry.Clone(a), true
		}
		return geometry.Clone(b), true
	case OpSubtract:
		if len(a) == 0 {
			return []geometry.Triangle{}, true
		}
		return geometry.Clone(a), true
	default:
		return []geometry.Triangle{}, true
	}
}

func checkFinite(tris []geometry.Triangle, operand string) error {
	for i, t := range tris {
		if !t.IsFinite() {
			return fmt.Errorf("%w: operand %s triangle %d", ErrNonFiniteInput, operand, i)
		}
	}
	return nil
}

// dedupBoundary removes coincident polygons left on a shared boundary. Two
// polygons coincide when their vertex loops match after welding vertices
// that lie within eps of each other on every axis. A repeated loop with the
// same winding is kept once; a loop that meets its reverse is a
// zero-thickness wall and both copies go.
func dedupBoundary(polys []Polygon, eps float64) ([]Polygon, int) {
	w := newWelder(eps)
	seen := make(map[string]int, len(polys))
	keep := make([]bool, len(polys))
	removed := 0
	for i, p := range polys {
		loop := w.loop(p)
		key := loopKey(loop)
		reversed := loopKey(reverseLoop(loop))
		if j, ok := seen[reversed]; ok && keep[j] {
			keep[j] = false
			delete(seen, reversed)
			removed += 2
			continue
		}
		if _, ok := seen[key]; ok {
			removed++
			continue
		}
		seen[key] = i
		keep[i] = true
	}
	if removed == 0 {
		return polys, 0
	}
	out := make([]Polygon, 0, len(polys)-removed)
	for i, p := range polys {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out, removed
}

// cell indexes an eps-sized grid box. Coordinates are kept as floats so
// that no input magnitude can overflow them.
type cell [3]float64

// welder gives every vertex the id of the first earlier vertex within eps of
// it on every axis, or a new id. A match can only sit in the vertex's own
// cell or one of its 26 neighbours.
type welder struct {
	eps   float64
	cells map[cell][]int
	reps  []r3.Vec
}

func newWelder(eps float64) *welder {
	return &welder{eps: eps, cells: make(map[cell][]int)}
}

func (w *welder) cellOf(p r3.Vec) cell {
	return cell{w.floor(p.X), w.floor(p.Y), w.floor(p.Z)}
}

func (w *welder) floor(x float64) float64 {
	return math.Floor(x / w.eps)
}

func (w *welder) id(p r3.Vec) int {
	c := w.cellOf(p)
	for dx := -1.0; dx <= 1; dx++ {
		for dy := -1.0; dy <= 1; dy++ {
			for dz := -1.0; dz <= 1; dz++ {
				for _, id := range w.cells[cell{c[0] + dx, c[1] + dy, c[2] + dz}] {
					if w.near(w.reps[id], p) {
						return id
					}
				}
			}
		}
	}
	id := len(w.reps)
	w.reps = append(w.reps, p)
	w.cells[c] = append(w.cells[c], id)
	return id
}

func (w *welder) near(a, b r3.Vec) bool {
	return math.Abs(a.X-b.X) < w.eps && math.Abs(a.Y-b.Y) < w.eps && math.Abs(a.Z-b.Z) < w.eps
}

func (w *welder) loop(p Polygon) []int {
	loop := make([]int, len(p.Vertices))
	for i, v := range p.Vertices {
		loop[i] = w.id(v.Pos)
	}
	return loop
}

func reverseLoop(loop []int) []int {
	out := make([]int, len(loop))
	for i, id := range loop {
		out[len(loop)-1-i] = id
	}
	return out
}

// loopKey encodes a loop starting from its smallest id so that rotations
// of the same loop share a key.
func loopKey(loop []int) string {
	start := 0
	for i := range loop {
		if loop[i] < loop[start] {
			start = i
		}
	}
	buf := make([]byte, 0, len(loop)*binary.MaxVarintLen64)
	for k := range loop {
		buf = binary.AppendUvarint(buf, uint64(loop[(start+k)%len(loop)]))
	}
	return string(buf)
}
