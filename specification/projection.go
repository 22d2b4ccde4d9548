package specification

import (
	"reflect"
)

// Projection is a thin immutable wrapper around a transform tree from the
// source entity shape to a result shape: either a single selector or a Tuple
// of selectors.
type Projection struct {
	expr Expression
}

// ProjectField creates a projection selecting a single field path.
func ProjectField(path string) (Projection, error) {
	if path == "" {
		return Projection{}, ErrEmptySelectorPath
	}

	return Projection{expr: Field(path)}, nil
}

// ProjectFields creates a projection selecting multiple field paths as a
// tuple, in the given order.
func ProjectFields(paths ...string) (Projection, error) {
	if len(paths) == 0 {
		return Projection{}, ErrEmptySelectorPath
	}

	elems := make([]Expression, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			return Projection{}, ErrEmptySelectorPath
		}
		elems = append(elems, Field(path))
	}

	return Projection{expr: Tuple{Elems: elems}}, nil
}

// Selector returns the projection's transform tree.
func (p Projection) Selector() Expression {
	return p.expr
}

// IsZero reports whether the projection selects nothing.
func (p Projection) IsZero() bool {
	return p.expr == nil
}

// Apply evaluates the transform locally: a single selector yields the
// selected value, a tuple yields a []any in declaration order. Absent steps
// yield nil elements rather than faulting.
func (p Projection) Apply(candidate any) any {
	if p.expr == nil {
		return nil
	}

	root := reflect.ValueOf(candidate)

	if tuple, ok := p.expr.(Tuple); ok {
		result := make([]any, len(tuple.Elems))
		for i, elem := range tuple.Elems {
			if value, present := resolve(elem, root); present {
				result[i] = value
			}
		}
		return result
	}

	value, _ := resolve(p.expr, root)

	return value
}
