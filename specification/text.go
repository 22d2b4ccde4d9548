package specification

// TextSpecification matches candidates whose selected string value contains,
// starts with, or ends with a search term, optionally case-folded on both
// sides.
//
// An empty or missing term yields an always-false predicate instead of an
// unfiltered match: a text filter that accidentally matches everything is a
// full-table scan waiting to happen. A nil candidate never matches.
type TextSpecification[T any] struct {
	predicateSpecification[T]
	kind     FilterKind
	selector Expression
	term     string
	fold     bool
}

// Kind returns the exact kind of this specification.
func (s TextSpecification[T]) Kind() FilterKind { return s.kind }

// Selector returns the selector tree the match applies to.
func (s TextSpecification[T]) Selector() Expression { return s.selector }

// Term returns the search term.
func (s TextSpecification[T]) Term() string { return s.term }

// Fold reports whether the match is case-insensitive.
func (s TextSpecification[T]) Fold() bool { return s.fold }

func newText[T any](kind FilterKind, op TextOp, path, term string, fold bool) (TextSpecification[T], error) {
	var empty TextSpecification[T]

	if path == "" {
		return empty, ErrEmptySelectorPath
	}

	selector := Field(path)

	var expr Expression
	if term == "" {
		expr = Literal{Value: false}
	} else {
		expr = GuardNavigation(selector, Call{Op: op, Target: selector, Term: term, Fold: fold})
	}

	base, err := newPredicateSpecification[T](expr)
	if err != nil {
		return empty, err
	}

	return TextSpecification[T]{
		predicateSpecification: base,
		kind:                   kind,
		selector:               selector,
		term:                   term,
		fold:                   fold,
	}, nil
}

// Contains matches candidates whose selected string contains term, case-sensitively.
func Contains[T any](path, term string) (TextSpecification[T], error) {
	return newText[T](KindContains, TextContains, path, term, false)
}

// ContainsFold is the case-insensitive variant of Contains.
func ContainsFold[T any](path, term string) (TextSpecification[T], error) {
	return newText[T](KindContains, TextContains, path, term, true)
}

// StartsWith matches candidates whose selected string starts with term, case-sensitively.
func StartsWith[T any](path, term string) (TextSpecification[T], error) {
	return newText[T](KindStartsWith, TextStartsWith, path, term, false)
}

// StartsWithFold is the case-insensitive variant of StartsWith.
func StartsWithFold[T any](path, term string) (TextSpecification[T], error) {
	return newText[T](KindStartsWith, TextStartsWith, path, term, true)
}

// EndsWith matches candidates whose selected string ends with term, case-sensitively.
func EndsWith[T any](path, term string) (TextSpecification[T], error) {
	return newText[T](KindEndsWith, TextEndsWith, path, term, false)
}

// EndsWithFold is the case-insensitive variant of EndsWith.
func EndsWithFold[T any](path, term string) (TextSpecification[T], error) {
	return newText[T](KindEndsWith, TextEndsWith, path, term, true)
}
