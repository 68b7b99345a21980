package graph

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// ValidationSeverity indicates whether a validation finding blocks evaluation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Validate runs all Tier 1 structural validation checks on the design graph
// and returns a slice of validation errors. An empty slice means the graph is
// valid. This function is read-only and never mutates the graph.
func Validate(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateArity(g)...)
	return errs
}

// ValidateAll runs all validation tiers (structural, geometric, advisory)
// and returns a ValidationResult with separated errors and warnings.
func ValidateAll(g *DesignGraph) ValidationResult {
	structural := Validate(g)
	geomErrs, geomWarnings := validateGeometry(g)

	var result ValidationResult
	result.Errors = lo.Filter(structural, func(e ValidationError, _ int) bool {
		return e.Severity == SeverityError
	})
	result.Warnings = lo.FilterMap(structural, func(e ValidationError, _ int) (ValidationWarning, bool) {
		return ValidationWarning{NodeID: e.NodeID, Message: e.Message}, e.Severity == SeverityWarning
	})
	result.Errors = append(result.Errors, geomErrs...)
	result.Warnings = append(result.Warnings, geomWarnings...)
	result.Warnings = append(result.Warnings, validateAdvisory(g)...)
	return result
}

func structuralError(id NodeID, format string, args ...any) ValidationError {
	return ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

// validateDAG reports the first cycle found through Children edges. Nodes
// are visited in sorted ID order so the reported node is stable.
func validateDAG(g *DesignGraph) []ValidationError {
	type frame struct {
		id   NodeID
		next int
	}
	const (
		unseen = iota
		onPath
		done
	)

	state := make(map[NodeID]int, len(g.Nodes))
	for _, start := range sortedIDs(g) {
		if state[start] != unseen {
			continue
		}
		state[start] = onPath
		stack := []frame{{id: start}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			node := g.Nodes[top.id]
			if node == nil || top.next == len(node.Children) {
				state[top.id] = done
				stack = stack[:len(stack)-1]
				continue
			}
			child := node.Children[top.next]
			top.next++
			switch state[child] {
			case onPath:
				return []ValidationError{structuralError(child,
					"cycle detected: node %s is its own ancestor", child.Short())}
			case unseen:
				if _, ok := g.Nodes[child]; ok {
					state[child] = onPath
					stack = append(stack, frame{id: child})
				}
			}
		}
	}
	return nil
}

// validateReferences reports children that point outside the graph.
func validateReferences(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	for _, id := range sortedIDs(g) {
		node := g.Nodes[id]
		missing := lo.Reject(node.Children, func(c NodeID, _ int) bool {
			_, ok := g.Nodes[c]
			return ok
		})
		for _, c := range missing {
			errs = append(errs, structuralError(id, "child reference %s does not exist", c.Short()))
		}
	}
	return errs
}

// validateNames checks that every name index entry resolves and that no two
// nodes carry the same name.
func validateNames(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	for _, name := range lo.Keys(g.NameIndex) {
		id := g.NameIndex[name]
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, structuralError(NodeID{},
				"name index entry %q references non-existent node %s", name, id.Short()))
		}
	}

	named := lo.Filter(lo.Values(g.Nodes), func(n *Node, _ int) bool { return n.Name != "" })
	byName := lo.GroupBy(named, func(n *Node) string { return n.Name })
	for name, nodes := range byName {
		if len(nodes) > 1 {
			errs = append(errs, structuralError(NodeID{},
				"duplicate name %q assigned to %d nodes", name, len(nodes)))
		}
	}
	return errs
}

// validateRoots checks that roots resolve and warns about nodes that no
// root reaches.
func validateRoots(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	reachable := make(map[NodeID]bool, len(g.Nodes))
	var pending []NodeID
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; !ok {
			errs = append(errs, structuralError(NodeID{}, "root reference %s does not exist", rid.Short()))
			continue
		}
		pending = append(pending, rid)
	}

	for len(pending) > 0 {
		id := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		if node := g.Nodes[id]; node != nil {
			pending = append(pending, node.Children...)
		}
	}

	for _, id := range sortedIDs(g) {
		if reachable[id] {
			continue
		}
		errs = append(errs, ValidationError{
			NodeID:   id,
			Message:  fmt.Sprintf("node %q is not reachable from any root (orphan)", g.Nodes[id].Label()),
			Severity: SeverityWarning,
		})
	}
	return errs
}

func sortedIDs(g *DesignGraph) []NodeID {
	ids := lo.Keys(g.Nodes)
	slices.SortFunc(ids, func(a, b NodeID) int { return bytes.Compare(a[:], b[:]) })
	return ids
}

// validateArity checks that each node carries the payload its kind expects
// and the number and kind of children its kind allows.
func validateArity(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	fail := func(n *Node, format string, args ...any) {
		errs = append(errs, structuralError(n.ID, format, args...))
	}

	for _, node := range g.Nodes {
		var dataOK bool
		switch node.Kind {
		case NodePrimitive:
			_, dataOK = node.Data.(PrimitiveData)
		case NodeBoolean:
			_, dataOK = node.Data.(BooleanData)
		case NodeTransform:
			_, dataOK = node.Data.(TransformData)
		case NodeChannel:
			_, dataOK = node.Data.(ChannelData)
		case NodeGroup:
			_, dataOK = node.Data.(GroupData)
		}
		if !dataOK {
			fail(node, "%s node carries %T data", node.Kind, node.Data)
		}

		switch node.Kind {
		case NodePrimitive, NodeChannel:
			if len(node.Children) > 0 {
				fail(node, "%s node cannot have children", node.Kind)
			}
		case NodeBoolean:
			if len(node.Children) == 0 {
				fail(node, "boolean node has no operands")
			}
		case NodeTransform:
			if len(node.Children) != 1 {
				fail(node, "transform node has %d children, want exactly 1", len(node.Children))
			}
		}

		// Only groups may contain groups.
		if node.Kind != NodeGroup {
			for _, c := range g.Children(node) {
				if !c.Kind.IsSolid() {
					fail(node, "child %s is a %s, not a solid", c.Label(), c.Kind)
				}
			}
		}
	}

	return errs
}

// OK reports whether the result has no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}
