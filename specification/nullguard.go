package specification

// GuardNavigation wraps an inner predicate with not-missing checks for every
// intermediate step of the selector's member chain, so that evaluating a deep
// path over absent intermediate data short-circuits to false instead of
// faulting.
//
// For a chain of depth N the guard has exactly N-1 conjuncts, ordered root to
// leaf and placed in front of the inner predicate; combined with the
// evaluator's left-to-right short-circuit AND semantics that means every
// guard is checked before the access it protects. Chains of depth 0 or 1 need
// no guard and return the inner predicate unchanged.
func GuardNavigation(selector Expression, inner Expression) Expression {
	chain := memberNodes(selector)
	if len(chain) <= 1 {
		return inner
	}

	// chain[0] is the leaf access, which the inner predicate itself handles;
	// every node above it gets a not-missing check, root first.
	operands := make([]Expression, 0, len(chain))
	for i := len(chain) - 1; i >= 1; i-- {
		operands = append(operands, Not{Operand: IsNullCheck{Target: chain[i]}})
	}
	operands = append(operands, inner)

	return Logical{Op: LogicalAnd, Operands: operands}
}
