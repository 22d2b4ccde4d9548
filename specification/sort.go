package specification

import (
	"reflect"
	"slices"
)

// Direction is the ordering direction of a sort clause.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortClause is one (key-selector, direction) pair at a fixed position in the
// clause order.
type SortClause struct {
	selector Expression
	dir      Direction
	position int
}

// Selector returns the clause's key-selector tree.
func (c SortClause) Selector() Expression { return c.selector }

// Direction returns the clause's ordering direction.
func (c SortClause) Direction() Direction { return c.dir }

// Position returns the clause's position in the overall sort order.
func (c SortClause) Position() int { return c.position }

// Sort is an ordered, immutable list of sort clauses. Positions are strictly
// increasing and match list order; chaining copies structurally and appends,
// never interleaves. Evaluation is primary clause first, each subsequent
// clause breaking ties only among equal predecessors.
type Sort struct {
	clauses []SortClause
}

// SortBy creates a single-clause sort at position 0.
func SortBy(path string, direction Direction) (Sort, error) {
	if path == "" {
		return Sort{}, ErrEmptySelectorPath
	}

	return Sort{clauses: []SortClause{{selector: Field(path), dir: direction, position: 0}}}, nil
}

// Then returns a new Sort with an additional clause appended at the next
// position; all prior clauses are preserved unchanged.
func (s Sort) Then(path string, direction Direction) (Sort, error) {
	if path == "" {
		return Sort{}, ErrEmptySelectorPath
	}

	clauses := make([]SortClause, len(s.clauses), len(s.clauses)+1)
	copy(clauses, s.clauses)
	clauses = append(clauses, SortClause{selector: Field(path), dir: direction, position: len(clauses)})

	return Sort{clauses: clauses}, nil
}

// ThenSort concatenates another Sort's clauses after this one's, renumbering
// the appended clauses to continue the position sequence while preserving
// their relative order.
func (s Sort) ThenSort(other Sort) Sort {
	clauses := make([]SortClause, len(s.clauses), len(s.clauses)+len(other.clauses))
	copy(clauses, s.clauses)

	for _, clause := range other.clauses {
		clause.position = len(clauses)
		clauses = append(clauses, clause)
	}

	return Sort{clauses: clauses}
}

// Clauses returns the clause list as a copy.
func (s Sort) Clauses() []SortClause {
	clauses := make([]SortClause, len(s.clauses))
	copy(clauses, s.clauses)

	return clauses
}

// IsZero reports whether the sort has no clauses.
func (s Sort) IsZero() bool {
	return len(s.clauses) == 0
}

// ApplySort returns a stably sorted copy of items honoring the clause order:
// primary clause first, later clauses only breaking ties. Absent or
// incomparable values order after present ones.
func ApplySort[T any](items []T, s Sort) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)

	if len(s.clauses) == 0 {
		return sorted
	}

	slices.SortStableFunc(sorted, func(left, right T) int {
		for _, clause := range s.clauses {
			ordering := compareByClause(clause, reflect.ValueOf(left), reflect.ValueOf(right))
			if ordering != 0 {
				return ordering
			}
		}

		return 0
	})

	return sorted
}

func compareByClause(clause SortClause, left, right reflect.Value) int {
	leftValue, leftPresent := resolve(clause.selector, left)
	rightValue, rightPresent := resolve(clause.selector, right)

	switch {
	case !leftPresent && !rightPresent:
		return 0
	case !leftPresent:
		return 1
	case !rightPresent:
		return -1
	}

	ordering, comparable := compareValues(leftValue, rightValue)
	if !comparable {
		return 0
	}

	if clause.dir == Descending {
		return -ordering
	}

	return ordering
}
