package specification

import (
	"errors"
)

var (
	// ErrEmptySelectorPath is returned when a specification is constructed
	// without a selector path.
	ErrEmptySelectorPath = errors.New("empty selector path supplied")

	// ErrMissingComparisonValue is returned when a comparison specification
	// is constructed without a value to compare against.
	ErrMissingComparisonValue = errors.New("missing comparison value supplied")

	// ErrMissingRangeBound is returned when a range specification is
	// constructed without a lower or upper bound.
	ErrMissingRangeBound = errors.New("missing range bound supplied")

	// ErrNilSpecification is returned when a combinator receives a nil
	// operand.
	ErrNilSpecification = errors.New("nil specification supplied")

	// ErrUnsupportedExpression is returned when a predicate tree contains a
	// node the local evaluator does not know how to evaluate.
	ErrUnsupportedExpression = errors.New("unsupported expression node")

	// ErrEmptyBackendCode is returned when a rewrite rule is registered
	// without a backend code.
	ErrEmptyBackendCode = errors.New("empty backend code supplied")

	// ErrNilRewriteRule is returned when a nil rewrite rule is registered.
	ErrNilRewriteRule = errors.New("nil rewrite rule supplied")
)
