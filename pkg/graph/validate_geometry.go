package graph

import (
	"fmt"
	"math"

	"github.com/chazu/fluidcsg/pkg/primitive"
	"github.com/samber/lo"
)

// CoarseSegments is the segment count below which round primitives draw a
// tessellation warning.
const CoarseSegments = 8

// ---------------------------------------------------------------------------
// Tier 2: Geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	primErrs, primWarnings := validatePrimitives(g)
	errs = append(errs, primErrs...)
	warnings = append(warnings, primWarnings...)

	errs = append(errs, validateTransforms(g)...)
	errs = append(errs, validateChannels(g)...)

	return errs, warnings
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// validatePrimitives checks that every dimension a shape uses is finite and
// positive, that a torus tube fits inside its ring, and that segment counts
// can close a surface.
func validatePrimitives(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	for _, node := range g.Nodes {
		pd, ok := node.Data.(PrimitiveData)
		if !ok {
			continue
		}
		fail := func(format string, args ...any) {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf(format, args...),
				Severity: SeverityError,
			})
		}
		check := func(param string, v float64) {
			if !positive(v) {
				fail("%s %s is %.4f, must be positive", pd.Shape, param, v)
			}
		}

		switch pd.Shape {
		case ShapeCuboid:
			check("size X", pd.Size.X)
			check("size Y", pd.Size.Y)
			check("size Z", pd.Size.Z)
		case ShapeSphere:
			check("radius", pd.Radius)
		case ShapeCylinder, ShapeCone:
			check("radius", pd.Radius)
			check("height", pd.Height)
		case ShapeTorus:
			check("major radius", pd.Radius)
			check("minor radius", pd.Minor)
			if pd.Minor >= pd.Radius {
				fail("torus minor radius %.4f must be below major radius %.4f", pd.Minor, pd.Radius)
			}
		default:
			fail("unknown shape %d", int(pd.Shape))
		}

		if pd.Shape == ShapeCuboid {
			continue
		}
		switch {
		case pd.Segments == 0:
		case pd.Segments < primitive.MinSegments:
			fail("%s has %d segments, need at least %d", pd.Shape, pd.Segments, primitive.MinSegments)
		case pd.Segments < CoarseSegments:
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("%s %s uses %d segments; the surface will be coarse", pd.Shape, node.Label(), pd.Segments),
			})
		}
	}

	return errs, warnings
}

// validateTransforms checks that translations and rotations are finite.
func validateTransforms(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		td, ok := node.Data.(TransformData)
		if !ok {
			continue
		}
		if td.Translation != nil && !td.Translation.IsFinite() {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("translation %s is not finite", td.Translation),
				Severity: SeverityError,
			})
		}
		if td.Rotation != nil && !td.Rotation.IsFinite() {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("rotation %s is not finite", td.Rotation),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateChannels checks channel paths and cross-sections. A segment whose
// endpoints coincide in XY has no direction to sweep along.
func validateChannels(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		cd, ok := node.Data.(ChannelData)
		if !ok {
			continue
		}
		fail := func(format string, args ...any) {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf(format, args...),
				Severity: SeverityError,
			})
		}

		if !positive(cd.Width) {
			fail("channel width is %.4f, must be positive", cd.Width)
		}
		if !positive(cd.Depth) {
			fail("channel depth is %.4f, must be positive", cd.Depth)
		}
		if len(cd.Path) < 2 {
			fail("channel path has %d points, need at least 2", len(cd.Path))
			continue
		}
		if bad := lo.CountBy(cd.Path, func(p Vec3) bool { return !p.IsFinite() }); bad > 0 {
			fail("channel path has %d non-finite points", bad)
			continue
		}
		for i := 0; i+1 < len(cd.Path); i++ {
			a, b := cd.Path[i], cd.Path[i+1]
			if a.X == b.X && a.Y == b.Y {
				fail("channel segment %d has zero length", i)
			}
		}
	}

	return errs
}

// ---------------------------------------------------------------------------
// Tier 3: Advisory warnings
// ---------------------------------------------------------------------------

// validateAdvisory runs all Tier 3 checks.
func validateAdvisory(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning
	warnings = append(warnings, validateTrivialBooleans(g)...)
	warnings = append(warnings, validateEmptyGroups(g)...)
	return warnings
}

// validateTrivialBooleans warns about booleans over a single operand, which
// evaluate to that operand unchanged.
func validateTrivialBooleans(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, node := range g.OfKind(NodeBoolean) {
		bd, ok := node.Data.(BooleanData)
		if !ok || len(node.Children) != 1 {
			continue
		}
		warnings = append(warnings, ValidationWarning{
			NodeID:  node.ID,
			Message: fmt.Sprintf("%s %s has a single operand and does nothing", bd.Op, node.Label()),
		})
	}

	return warnings
}

// validateEmptyGroups warns about assemblies that produce no meshes.
func validateEmptyGroups(g *DesignGraph) []ValidationWarning {
	return lo.FilterMap(g.OfKind(NodeGroup), func(n *Node, _ int) (ValidationWarning, bool) {
		return ValidationWarning{
			NodeID:  n.ID,
			Message: fmt.Sprintf("assembly %s is empty", n.Label()),
		}, len(n.Children) == 0
	})
}
