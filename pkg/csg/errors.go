package csg

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by MeshOpError.
var (
	// ErrNonFiniteInput means an operand contained a NaN or infinite
	// coordinate. It is detected before any tree is built.
	ErrNonFiniteInput = errors.New("non-finite input coordinate")

	// ErrInvariant means the engine reached an inconsistent internal state
	// or produced non-finite output. No geometry is returned with it.
	ErrInvariant = errors.New("internal invariant violated")
)

// MeshOpError reports the failure of a boolean operation.
type MeshOpError struct {
	Op  string // "union", "intersection" or "subtract"
	Err error
}

func (e *MeshOpError) Error() string {
	return fmt.Sprintf("csg: %s: %v", e.Op, e.Err)
}

func (e *MeshOpError) Unwrap() error {
	return e.Err
}
