// Package pipeline runs fluidcsg source through the engine, validation and
// tessellation, producing colored meshes and diagnostics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chazu/fluidcsg/pkg/engine"
	"github.com/chazu/fluidcsg/pkg/geometry"
	"github.com/chazu/fluidcsg/pkg/graph"
	"github.com/chazu/fluidcsg/pkg/kernel"
	"github.com/chazu/fluidcsg/pkg/kernel/bsp"
	"github.com/chazu/fluidcsg/pkg/tessellate"
	"github.com/samber/lo"
)

// Palette is used to assign distinct colors to parts.
var Palette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// Pipeline turns source text into meshes. It is safe for concurrent use;
// evaluations are serialized by the engine.
type Pipeline struct {
	engine *engine.Engine
	kernel kernel.Kernel
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the diagnostic sink.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithKernel sets the geometry kernel. The default is bsp.New().
func WithKernel(k kernel.Kernel) Option {
	return func(p *Pipeline) {
		if k != nil {
			p.kernel = k
		}
	}
}

// WithEngine sets the Lisp engine. The default is engine.NewEngine().
func WithEngine(e *engine.Engine) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.engine = e
		}
	}
}

// New creates a Pipeline with the exact mesh kernel.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}
	if p.engine == nil {
		p.engine = engine.NewEngine()
	}
	if p.kernel == nil {
		p.kernel = bsp.New(bsp.WithLogger(p.logger))
	}
	return p
}

// MeshData is the JSON-serializable mesh of one part.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// Triangles expands the mesh into STL-layout triangles.
func (m MeshData) Triangles() []geometry.Triangle {
	km := kernel.Mesh{Vertices: m.Vertices, Normals: m.Normals, Indices: m.Indices}
	return km.Triangles()
}

// Diagnostic is an error or warning tied to a source line when one is known.
type Diagnostic struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d: %s", d.Line, d.Message)
	}
	return d.Message
}

// Result is the outcome of one evaluation.
type Result struct {
	Meshes   []MeshData   `json:"meshes"`
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`

	// Graph is the evaluated design, nil when evaluation failed.
	Graph *graph.DesignGraph `json:"-"`
}

// OK reports whether the evaluation produced no errors.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Triangles concatenates the triangles of every part.
func (r Result) Triangles() []geometry.Triangle {
	return lo.FlatMap(r.Meshes, func(m MeshData, _ int) []geometry.Triangle {
		return m.Triangles()
	})
}

// Part returns the mesh named name.
func (r Result) Part(name string) (MeshData, bool) {
	return lo.Find(r.Meshes, func(m MeshData) bool { return m.PartName == name })
}

// EvaluateFile reads and evaluates a source file.
func (p *Pipeline) EvaluateFile(ctx context.Context, path string) (Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: %w", err)
	}
	return p.EvaluateContext(ctx, string(src)), nil
}

// Evaluate takes Lisp source and returns mesh data plus diagnostics.
// Parts that fail to mesh are reported as errors; the remaining parts are
// still returned.
func (p *Pipeline) Evaluate(source string) Result {
	return p.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate with script execution bounded by ctx.
func (p *Pipeline) EvaluateContext(ctx context.Context, source string) Result {
	start := time.Now()
	result := Result{
		Meshes:   []MeshData{},
		Errors:   []Diagnostic{},
		Warnings: []Diagnostic{},
	}

	// Step 1: Evaluate the Lisp source into a design graph.
	g, evalErrs, err := p.engine.EvaluateContext(ctx, source)
	if err != nil {
		p.logger.Error("evaluate: fatal error", "err", err)
		result.Errors = append(result.Errors, Diagnostic{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		result.Errors = append(result.Errors, lo.Map(evalErrs, func(e engine.EvalError, _ int) Diagnostic {
			return Diagnostic{Line: e.Line, Col: e.Col, Message: e.Message}
		})...)
		return result
	}
	result.Graph = g

	// Step 2: Validate before spending time in the kernel.
	vr := graph.ValidateAll(g)
	result.Warnings = append(result.Warnings, lo.Map(vr.Warnings, func(w graph.ValidationWarning, _ int) Diagnostic {
		return Diagnostic{Message: describe(g, w.NodeID, w.Message)}
	})...)
	if !vr.OK() {
		result.Errors = append(result.Errors, lo.Map(vr.Errors, func(e graph.ValidationError, _ int) Diagnostic {
			return Diagnostic{Message: describe(g, e.NodeID, e.Message)}
		})...)
		return result
	}

	// Step 3: Tessellate the design graph into triangle meshes.
	meshes, err := tessellate.Tessellate(g, p.kernel)
	if err != nil {
		p.logger.Warn("evaluate: tessellation failed", "err", err)
		result.Errors = append(result.Errors, lo.Map(unjoin(err), func(e error, _ int) Diagnostic {
			return Diagnostic{Message: "tessellation failed: " + e.Error()}
		})...)
	}

	// Step 4: Drop empty parts and assign palette colors.
	for _, m := range meshes {
		if m.IsEmpty() {
			result.Warnings = append(result.Warnings, Diagnostic{
				Message: fmt.Sprintf("part %s is empty", m.PartName),
			})
		}
	}
	solid := lo.Filter(meshes, func(m *kernel.Mesh, _ int) bool { return !m.IsEmpty() })
	result.Meshes = lo.Map(solid, func(m *kernel.Mesh, i int) MeshData {
		return MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    Palette[i%len(Palette)],
		}
	})

	p.logger.Debug("evaluate: done",
		"nodes", g.NodeCount(),
		"meshes", len(result.Meshes),
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"elapsed", time.Since(start))
	return result
}

// describe prefixes a validation message with the node's label.
func describe(g *graph.DesignGraph, id graph.NodeID, msg string) string {
	if id.IsZero() {
		return msg
	}
	if n := g.Get(id); n != nil {
		return n.Label() + ": " + msg
	}
	return id.Short() + ": " + msg
}

// unjoin splits an errors.Join result back into its parts.
func unjoin(err error) []error {
	var j interface{ Unwrap() []error }
	if errors.As(err, &j) {
		return j.Unwrap()
	}
	return []error{err}
}
