package specification

import (
	"strings"
)

// CompareOp identifies the operator of a Comparison node.
type CompareOp string

// Comparison operators.
const (
	CompareEq    CompareOp = "eq"
	CompareNotEq CompareOp = "neq"
	CompareGt    CompareOp = "gt"
	CompareGte   CompareOp = "gte"
	CompareLt    CompareOp = "lt"
	CompareLte   CompareOp = "lte"
)

// LogicalOp identifies the operator of a Logical node.
type LogicalOp string

// Logical operators.
const (
	LogicalAnd LogicalOp = "and"
	LogicalOr  LogicalOp = "or"
)

// TextOp identifies the operation of a Call node.
type TextOp string

// Text match operations.
const (
	TextContains   TextOp = "contains"
	TextStartsWith TextOp = "starts_with"
	TextEndsWith   TextOp = "ends_with"
)

// Expression is a node of an immutable predicate/selector tree.
//
// Trees are built once at specification construction time and never mutated
// afterward, so sub-trees can be shared structurally between specifications.
// An Expression is either handed to a backend engine for translation or
// compiled into a local predicate for in-memory evaluation.
type Expression interface {
	isExpression()
}

// Root represents the candidate entity itself, the parameter every member
// chain ultimately starts from.
type Root struct{}

// Member is a single field-access step. Chains link leaf to root through
// Source: the selector "dept.city" is Member{Name: "city", Source:
// Member{Name: "dept", Source: Root{}}}.
type Member struct {
	Source Expression
	Name   string
}

// Convert is a type-coercion wrapper around a selector. It carries no
// behavior of its own; chain extraction looks straight through it.
type Convert struct {
	Source Expression
}

// Constant is a literal operand.
type Constant struct {
	Value any
}

// Comparison is a binary comparison of a selector against a constant.
type Comparison struct {
	Op    CompareOp
	Left  Expression
	Right Expression
}

// Logical combines two or more boolean operands with AND or OR.
// Operands are evaluated left to right with short-circuiting, which is what
// makes null-guard conjuncts safe to put in front of the guarded access.
type Logical struct {
	Op       LogicalOp
	Operands []Expression
}

// Not negates its single operand.
type Not struct {
	Operand Expression
}

// Call is a text match operation against a selector. Fold requests
// case-insensitive matching: both the candidate and the term are case-folded
// before the match.
type Call struct {
	Op     TextOp
	Target Expression
	Term   string
	Fold   bool
}

// Match is a backend-native pattern match (e.g. LIKE/ILIKE against a
// pre-built pattern). It is never produced by the specification constructors,
// only by provider rewrite rules that replace a Call with something the
// backend can run natively.
type Match struct {
	Target      Expression
	Pattern     string
	Insensitive bool
}

// Membership tests whether a selector's value is contained in a fixed set.
type Membership struct {
	Target Expression
	Values []any
}

// IsNullCheck tests whether a selector resolves to a missing/nil value.
type IsNullCheck struct {
	Target Expression
}

// IsEmptyCheck tests whether a selector is missing, nil, or a zero-length
// string/collection.
type IsEmptyCheck struct {
	Target Expression
}

// Literal is a constant boolean predicate (always-true / always-false).
type Literal struct {
	Value bool
}

// Tuple is an ordered list of selectors, used as a projection shape.
type Tuple struct {
	Elems []Expression
}

func (Root) isExpression()         {}
func (Member) isExpression()       {}
func (Convert) isExpression()      {}
func (Constant) isExpression()     {}
func (Comparison) isExpression()   {}
func (Logical) isExpression()      {}
func (Not) isExpression()          {}
func (Call) isExpression()         {}
func (Match) isExpression()        {}
func (Membership) isExpression()   {}
func (IsNullCheck) isExpression()  {}
func (IsEmptyCheck) isExpression() {}
func (Literal) isExpression()      {}
func (Tuple) isExpression()        {}

// Field builds a member chain from a dotted path, e.g. Field("dept.city").
// An empty path yields the Root parameter itself.
func Field(path string) Expression {
	if path == "" {
		return Root{}
	}

	var expr Expression = Root{}
	for _, step := range strings.Split(path, ".") {
		expr = Member{Source: expr, Name: step}
	}

	return expr
}
