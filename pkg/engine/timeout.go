package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/fluidcsg/pkg/graph"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs longer than the engine timeout.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation finished after a
	// newer one had started.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// outcome carries what the evaluating goroutine produced.
type outcome struct {
	graph  *graph.DesignGraph
	errors []EvalError
	err    error
}

// await blocks until the evaluation of generation gen reports on ch, the
// timeout elapses or ctx ends. The interpreter goroutine is not stopped on
// timeout; its late result is dropped through the generation check.
func (e *Engine) await(ctx context.Context, ch <-chan outcome, gen uint64) (*graph.DesignGraph, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		if !e.isCurrent(gen) {
			return nil, nil, ErrSuperseded
		}
		return out.graph, out.errors, out.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("evaluation canceled: %w", ctx.Err())
	}
}

// begin starts a new generation and returns its number.
func (e *Engine) begin() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	return e.generation
}

func (e *Engine) isCurrent(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}
