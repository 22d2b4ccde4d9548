package specification

// ExpressionSource is the type-erased half of a specification: the contract
// backend engines consume. ToExpression returns the predicate tree for
// translated execution.
type ExpressionSource interface {
	ToExpression() Expression
}

// Specification describes a reusable, composable boolean test over entities
// of type T. It can be handed to a backend engine for translated execution
// (ToExpression) or evaluated directly over already-materialized data
// (IsSatisfiedBy).
//
// Specifications are immutable once constructed and safe for concurrent use.
type Specification[T any] interface {
	ExpressionSource
	IsSatisfiedBy(candidate T) bool
}

// predicateSpecification is the shared implementation behind every concrete
// specification: an immutable tree plus the predicate compiled from it once
// at construction time.
type predicateSpecification[T any] struct {
	expr Expression
	eval func(T) bool
}

func newPredicateSpecification[T any](expr Expression) (predicateSpecification[T], error) {
	eval, err := Compile[T](expr)
	if err != nil {
		return predicateSpecification[T]{}, err
	}

	return predicateSpecification[T]{expr: expr, eval: eval}, nil
}

// ToExpression returns the specification's predicate tree.
func (s predicateSpecification[T]) ToExpression() Expression {
	return s.expr
}

// IsSatisfiedBy evaluates the candidate against the compiled predicate.
func (s predicateSpecification[T]) IsSatisfiedBy(candidate T) bool {
	return s.eval(candidate)
}

// And combines two specifications into one whose tree is the conjunction of
// both operand trees. The composition is pure tree splicing: neither operand
// is invoked as a function, so the result stays translatable by backends.
// Operands are left untouched; their sub-trees are shared structurally.
func And[T any](left, right Specification[T]) (Specification[T], error) {
	if left == nil || right == nil {
		return nil, ErrNilSpecification
	}

	return newCompositeSpecification[T](Logical{
		Op:       LogicalAnd,
		Operands: []Expression{left.ToExpression(), right.ToExpression()},
	})
}

// Or combines two specifications into one whose tree is the disjunction of
// both operand trees, by the same tree-splicing rules as And.
func Or[T any](left, right Specification[T]) (Specification[T], error) {
	if left == nil || right == nil {
		return nil, ErrNilSpecification
	}

	return newCompositeSpecification[T](Logical{
		Op:       LogicalOr,
		Operands: []Expression{left.ToExpression(), right.ToExpression()},
	})
}

// NotSpec negates a specification's tree.
func NotSpec[T any](operand Specification[T]) (Specification[T], error) {
	if operand == nil {
		return nil, ErrNilSpecification
	}

	return newCompositeSpecification[T](Not{Operand: operand.ToExpression()})
}

// CompositeSpecification is the result of And/Or/NotSpec.
type CompositeSpecification[T any] struct {
	predicateSpecification[T]
}

func newCompositeSpecification[T any](expr Expression) (CompositeSpecification[T], error) {
	base, err := newPredicateSpecification[T](expr)
	if err != nil {
		return CompositeSpecification[T]{}, err
	}

	return CompositeSpecification[T]{predicateSpecification: base}, nil
}
