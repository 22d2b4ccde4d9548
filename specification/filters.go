package specification

// FilterKind tags every concrete filter specification with the exact shape it
// has, and FilterFamily groups kinds into the coarser buckets provider
// rewrite rules can target as a whole.
type FilterKind string

// Exact filter specification kinds.
const (
	KindEquals             FilterKind = "equals"
	KindNotEquals          FilterKind = "not_equals"
	KindGreaterThan        FilterKind = "greater_than"
	KindGreaterThanOrEqual FilterKind = "greater_than_or_equal"
	KindLessThan           FilterKind = "less_than"
	KindLessThanOrEqual    FilterKind = "less_than_or_equal"
	KindBetween            FilterKind = "between"
	KindIn                 FilterKind = "in"
	KindIsNull             FilterKind = "is_null"
	KindIsNotNull          FilterKind = "is_not_null"
	KindIsEmpty            FilterKind = "is_empty"
	KindContains           FilterKind = "contains"
	KindStartsWith         FilterKind = "starts_with"
	KindEndsWith           FilterKind = "ends_with"
)

// FilterFamily is the open-definition bucket a FilterKind belongs to.
type FilterFamily string

// Filter specification families.
const (
	FamilyComparison FilterFamily = "comparison"
	FamilyRange      FilterFamily = "range"
	FamilyMembership FilterFamily = "membership"
	FamilyNull       FilterFamily = "null"
	FamilyText       FilterFamily = "text"
)

// Family returns the family a kind belongs to.
func (k FilterKind) Family() FilterFamily {
	switch k {
	case KindEquals, KindNotEquals, KindGreaterThan, KindGreaterThanOrEqual, KindLessThan, KindLessThanOrEqual:
		return FamilyComparison
	case KindBetween:
		return FamilyRange
	case KindIn:
		return FamilyMembership
	case KindIsNull, KindIsNotNull, KindIsEmpty:
		return FamilyNull
	case KindContains, KindStartsWith, KindEndsWith:
		return FamilyText
	default:
		return ""
	}
}

// Kinded is implemented by every concrete filter specification; the
// optimization registry keys rewrite lookups on it.
type Kinded interface {
	Kind() FilterKind
}

/***** Comparison family *****/

// ComparisonSpecification compares a selector against a constant with one of
// the ==, !=, >, >=, <, <= operators, null-guarded over the selector's
// intermediate steps.
type ComparisonSpecification[T any] struct {
	predicateSpecification[T]
	kind     FilterKind
	selector Expression
	value    any
}

// Kind returns the exact kind of this specification.
func (s ComparisonSpecification[T]) Kind() FilterKind { return s.kind }

// Selector returns the selector tree the comparison applies to.
func (s ComparisonSpecification[T]) Selector() Expression { return s.selector }

// Value returns the constant compared against.
func (s ComparisonSpecification[T]) Value() any { return s.value }

func newComparison[T any](kind FilterKind, op CompareOp, path string, value any) (ComparisonSpecification[T], error) {
	var empty ComparisonSpecification[T]

	if path == "" {
		return empty, ErrEmptySelectorPath
	}
	if value == nil {
		return empty, ErrMissingComparisonValue
	}

	selector := Field(path)
	core := Comparison{Op: op, Left: selector, Right: Constant{Value: value}}

	base, err := newPredicateSpecification[T](GuardNavigation(selector, core))
	if err != nil {
		return empty, err
	}

	return ComparisonSpecification[T]{
		predicateSpecification: base,
		kind:                   kind,
		selector:               selector,
		value:                  value,
	}, nil
}

// Equals matches candidates whose selected value equals the given constant.
func Equals[T any](path string, value any) (ComparisonSpecification[T], error) {
	return newComparison[T](KindEquals, CompareEq, path, value)
}

// NotEquals matches candidates whose selected value differs from the given constant.
func NotEquals[T any](path string, value any) (ComparisonSpecification[T], error) {
	return newComparison[T](KindNotEquals, CompareNotEq, path, value)
}

// GreaterThan matches candidates whose selected value orders strictly above the constant.
func GreaterThan[T any](path string, value any) (ComparisonSpecification[T], error) {
	return newComparison[T](KindGreaterThan, CompareGt, path, value)
}

// GreaterThanOrEqual matches candidates whose selected value orders at or above the constant.
func GreaterThanOrEqual[T any](path string, value any) (ComparisonSpecification[T], error) {
	return newComparison[T](KindGreaterThanOrEqual, CompareGte, path, value)
}

// LessThan matches candidates whose selected value orders strictly below the constant.
func LessThan[T any](path string, value any) (ComparisonSpecification[T], error) {
	return newComparison[T](KindLessThan, CompareLt, path, value)
}

// LessThanOrEqual matches candidates whose selected value orders at or below the constant.
func LessThanOrEqual[T any](path string, value any) (ComparisonSpecification[T], error) {
	return newComparison[T](KindLessThanOrEqual, CompareLte, path, value)
}

/***** Range family *****/

// RangeOption configures which edges of a Between range are exclusive.
type RangeOption func(*rangeEdges)

type rangeEdges struct {
	exclusiveLower bool
	exclusiveUpper bool
}

// WithExclusiveLower makes the lower bound exclusive (> instead of >=).
func WithExclusiveLower() RangeOption {
	return func(edges *rangeEdges) { edges.exclusiveLower = true }
}

// WithExclusiveUpper makes the upper bound exclusive (< instead of <=).
func WithExclusiveUpper() RangeOption {
	return func(edges *rangeEdges) { edges.exclusiveUpper = true }
}

// RangeSpecification matches candidates whose selected value lies between two
// bounds; each edge is independently inclusive (default) or exclusive.
type RangeSpecification[T any] struct {
	predicateSpecification[T]
	selector Expression
	lower    any
	upper    any
	edges    rangeEdges
}

// Kind returns KindBetween.
func (s RangeSpecification[T]) Kind() FilterKind { return KindBetween }

// Selector returns the selector tree the range applies to.
func (s RangeSpecification[T]) Selector() Expression { return s.selector }

// Bounds returns the lower and upper bound constants.
func (s RangeSpecification[T]) Bounds() (lower, upper any) { return s.lower, s.upper }

// Between matches candidates whose selected value lies between lower and
// upper, both inclusive unless configured otherwise per bound.
func Between[T any](path string, lower, upper any, options ...RangeOption) (RangeSpecification[T], error) {
	var empty RangeSpecification[T]

	if path == "" {
		return empty, ErrEmptySelectorPath
	}
	if lower == nil || upper == nil {
		return empty, ErrMissingRangeBound
	}

	edges := rangeEdges{}
	for _, option := range options {
		option(&edges)
	}

	lowerOp := CompareGte
	if edges.exclusiveLower {
		lowerOp = CompareGt
	}
	upperOp := CompareLte
	if edges.exclusiveUpper {
		upperOp = CompareLt
	}

	selector := Field(path)
	core := Logical{Op: LogicalAnd, Operands: []Expression{
		Comparison{Op: lowerOp, Left: selector, Right: Constant{Value: lower}},
		Comparison{Op: upperOp, Left: selector, Right: Constant{Value: upper}},
	}}

	base, err := newPredicateSpecification[T](GuardNavigation(selector, core))
	if err != nil {
		return empty, err
	}

	return RangeSpecification[T]{
		predicateSpecification: base,
		selector:               selector,
		lower:                  lower,
		upper:                  upper,
		edges:                  edges,
	}, nil
}

/***** Membership family *****/

// MembershipSpecification matches candidates whose selected value is one of a
// fixed set. An empty set yields an always-false predicate, never an
// unfiltered or faulting one.
type MembershipSpecification[T any] struct {
	predicateSpecification[T]
	selector Expression
	values   []any
}

// Kind returns KindIn.
func (s MembershipSpecification[T]) Kind() FilterKind { return KindIn }

// Selector returns the selector tree the membership test applies to.
func (s MembershipSpecification[T]) Selector() Expression { return s.selector }

// Values returns a copy of the candidate set.
func (s MembershipSpecification[T]) Values() []any {
	values := make([]any, len(s.values))
	copy(values, s.values)

	return values
}

// In matches candidates whose selected value is contained in values.
func In[T any](path string, values ...any) (MembershipSpecification[T], error) {
	var empty MembershipSpecification[T]

	if path == "" {
		return empty, ErrEmptySelectorPath
	}

	selector := Field(path)

	// the tree must stay immutable even if the caller spreads and later
	// mutates an existing slice, so the set is copied on the way in
	ownedValues := make([]any, len(values))
	copy(ownedValues, values)

	var expr Expression
	if len(ownedValues) == 0 {
		expr = Literal{Value: false}
	} else {
		expr = GuardNavigation(selector, Membership{Target: selector, Values: ownedValues})
	}

	base, err := newPredicateSpecification[T](expr)
	if err != nil {
		return empty, err
	}

	return MembershipSpecification[T]{
		predicateSpecification: base,
		selector:               selector,
		values:                 ownedValues,
	}, nil
}

/***** Null family *****/

// NullCheckSpecification tests the selected value for absence or emptiness.
// The final step's absence is what the check itself asserts, so only the
// intermediate steps are guarded.
type NullCheckSpecification[T any] struct {
	predicateSpecification[T]
	kind     FilterKind
	selector Expression
}

// Kind returns the exact kind of this specification.
func (s NullCheckSpecification[T]) Kind() FilterKind { return s.kind }

// Selector returns the selector tree the check applies to.
func (s NullCheckSpecification[T]) Selector() Expression { return s.selector }

func newNullCheck[T any](kind FilterKind, path string, core func(Expression) Expression) (NullCheckSpecification[T], error) {
	var empty NullCheckSpecification[T]

	if path == "" {
		return empty, ErrEmptySelectorPath
	}

	selector := Field(path)

	base, err := newPredicateSpecification[T](GuardNavigation(selector, core(selector)))
	if err != nil {
		return empty, err
	}

	return NullCheckSpecification[T]{predicateSpecification: base, kind: kind, selector: selector}, nil
}

// IsNull matches candidates whose selected value is missing or nil.
func IsNull[T any](path string) (NullCheckSpecification[T], error) {
	return newNullCheck[T](KindIsNull, path, func(selector Expression) Expression {
		return IsNullCheck{Target: selector}
	})
}

// IsNotNull matches candidates whose selected value is present and non-nil.
func IsNotNull[T any](path string) (NullCheckSpecification[T], error) {
	return newNullCheck[T](KindIsNotNull, path, func(selector Expression) Expression {
		return Not{Operand: IsNullCheck{Target: selector}}
	})
}

// IsEmpty matches candidates whose selected value is missing, nil, or a
// zero-length string/collection.
func IsEmpty[T any](path string) (NullCheckSpecification[T], error) {
	return newNullCheck[T](KindIsEmpty, path, func(selector Expression) Expression {
		return IsEmptyCheck{Target: selector}
	})
}
