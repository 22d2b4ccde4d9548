package postgresengine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/querykit/composable-specifications-go/specification"
)

var (
	// ErrUntranslatableExpression is returned when a predicate tree contains
	// a node the Postgres translator cannot express.
	ErrUntranslatableExpression = errors.New("expression cannot be translated for postgres")

	// ErrEmptySelectorChain is returned when a selector has no member steps
	// to derive a document path from.
	ErrEmptySelectorChain = errors.New("selector has no member steps")
)

// treeTranslator translates predicate/selector trees into goqu expressions
// over a single JSONB document column. Member chains become JSON path
// extractions: depth-1 "name" becomes doc->>'name', deeper chains become
// doc->'dept'->>'city'. Text extraction yields SQL NULL for both missing
// steps and JSON nulls, which lines up with the local evaluator's "absent"
// semantics.
type treeTranslator struct {
	docColumn string
}

//nolint:cyclop
func (t treeTranslator) Translate(expr specification.Expression) (goqu.Expression, error) {
	switch node := expr.(type) {
	case specification.Literal:
		if node.Value {
			return goqu.L("TRUE"), nil
		}
		return goqu.L("FALSE"), nil

	case specification.Not:
		inner, err := t.Translate(node.Operand)
		if err != nil {
			return nil, err
		}
		return goqu.L("NOT (?)", inner), nil

	case specification.Logical:
		return t.translateLogical(node)

	case specification.Comparison:
		return t.translateComparison(node)

	case specification.Call:
		return t.translateTextMatch(node)

	case specification.Match:
		return t.translatePatternMatch(node)

	case specification.Membership:
		return t.translateMembership(node)

	case specification.IsNullCheck:
		path, err := t.textPath(node.Target)
		if err != nil {
			return nil, err
		}
		return goqu.L(path).IsNull(), nil

	case specification.IsEmptyCheck:
		path, err := t.textPath(node.Target)
		if err != nil {
			return nil, err
		}
		return goqu.Or(goqu.L(path).IsNull(), goqu.L(path).Eq("")), nil

	default:
		return nil, ErrUntranslatableExpression
	}
}

func (t treeTranslator) translateLogical(node specification.Logical) (goqu.Expression, error) {
	operands := make([]goqu.Expression, 0, len(node.Operands))
	for _, operand := range node.Operands {
		translated, err := t.Translate(operand)
		if err != nil {
			return nil, err
		}
		operands = append(operands, translated)
	}

	if node.Op == specification.LogicalOr {
		return goqu.Or(operands...), nil
	}

	return goqu.And(operands...), nil
}

func (t treeTranslator) translateComparison(node specification.Comparison) (goqu.Expression, error) {
	constant, ok := node.Right.(specification.Constant)
	if !ok {
		return nil, ErrUntranslatableExpression
	}

	path, err := t.textPath(node.Left)
	if err != nil {
		return nil, err
	}

	target := goqu.L(castPath(path, constant.Value))

	switch node.Op {
	case specification.CompareEq:
		return target.Eq(constant.Value), nil
	case specification.CompareNotEq:
		return target.Neq(constant.Value), nil
	case specification.CompareGt:
		return target.Gt(constant.Value), nil
	case specification.CompareGte:
		return target.Gte(constant.Value), nil
	case specification.CompareLt:
		return target.Lt(constant.Value), nil
	case specification.CompareLte:
		return target.Lte(constant.Value), nil
	default:
		return nil, ErrUntranslatableExpression
	}
}

// translateTextMatch is the generic rendering of a text match: LIKE over the
// extracted text, LOWER(...) on both sides when case-folding is requested.
// The registered Pg rewrite rules replace folded Call nodes with Match nodes
// ahead of translation, so this branch is the fallback for trees that were
// not optimized.
func (t treeTranslator) translateTextMatch(node specification.Call) (goqu.Expression, error) {
	if node.Term == "" {
		return goqu.L("FALSE"), nil
	}

	pattern, err := likePattern(node.Op, node.Term)
	if err != nil {
		return nil, err
	}

	path, pathErr := t.textPath(node.Target)
	if pathErr != nil {
		return nil, pathErr
	}

	if node.Fold {
		return goqu.L(fmt.Sprintf("LOWER(%s)", path)).Like(strings.ToLower(pattern)), nil
	}

	return goqu.L(path).Like(pattern), nil
}

func (t treeTranslator) translatePatternMatch(node specification.Match) (goqu.Expression, error) {
	if node.Pattern == "" {
		return goqu.L("FALSE"), nil
	}

	path, err := t.textPath(node.Target)
	if err != nil {
		return nil, err
	}

	if node.Insensitive {
		return goqu.L(path).ILike(node.Pattern), nil
	}

	return goqu.L(path).Like(node.Pattern), nil
}

func (t treeTranslator) translateMembership(node specification.Membership) (goqu.Expression, error) {
	if len(node.Values) == 0 {
		return goqu.L("FALSE"), nil
	}

	path, err := t.textPath(node.Target)
	if err != nil {
		return nil, err
	}

	return goqu.L(castPath(path, node.Values[0])).In(node.Values...), nil
}

// textPath renders a selector's member chain as a JSONB text extraction over
// the document column.
func (t treeTranslator) textPath(selector specification.Expression) (string, error) {
	steps := rootFirstSteps(selector)
	if len(steps) == 0 {
		return "", ErrEmptySelectorChain
	}

	var builder strings.Builder
	builder.WriteString(t.docColumn)

	for i, step := range steps {
		if i == len(steps)-1 {
			builder.WriteString("->>")
		} else {
			builder.WriteString("->")
		}
		builder.WriteString("'")
		builder.WriteString(strings.ReplaceAll(step, "'", "''"))
		builder.WriteString("'")
	}

	return builder.String(), nil
}

// orderExpression renders one sort clause for ORDER BY.
func (t treeTranslator) orderExpression(clause specification.SortClause) (exp.OrderedExpression, error) {
	path, err := t.textPath(clause.Selector())
	if err != nil {
		return nil, err
	}

	if clause.Direction() == specification.Descending {
		return goqu.L(path).Desc(), nil
	}

	return goqu.L(path).Asc(), nil
}

// selectExpressions renders a projection as aliased select columns. Aliases
// are the dotted field paths, so callers can index result documents by the
// same paths they projected.
func (t treeTranslator) selectExpressions(projection specification.Projection) ([]any, []string, error) {
	selectors := []specification.Expression{projection.Selector()}
	if tuple, ok := projection.Selector().(specification.Tuple); ok {
		selectors = tuple.Elems
	}

	columns := make([]any, 0, len(selectors))
	aliases := make([]string, 0, len(selectors))

	for _, selector := range selectors {
		steps := rootFirstSteps(selector)
		if len(steps) == 0 {
			return nil, nil, ErrEmptySelectorChain
		}

		path, err := t.textPath(selector)
		if err != nil {
			return nil, nil, err
		}

		alias := strings.Join(steps, ".")
		columns = append(columns, goqu.L(path).As(goqu.C(alias)))
		aliases = append(aliases, alias)
	}

	return columns, aliases, nil
}

// rootFirstSteps returns a selector's member chain ordered root to leaf.
func rootFirstSteps(selector specification.Expression) []string {
	steps := specification.MemberChain(selector)
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}

	return steps
}

// castPath wraps a JSONB text extraction in the cast the comparison value
// calls for. The parentheses matter: the cast must apply to the extraction,
// not to the path literal.
func castPath(path string, value any) string {
	cast := castFor(value)
	if cast == "" {
		return path
	}

	return "(" + path + ")" + cast
}

// castFor chooses the SQL cast applied to an extracted text value based on
// the Go type of the constant it is compared with.
func castFor(value any) string {
	switch value.(type) {
	case string:
		return ""
	case bool:
		return "::boolean"
	case time.Time:
		return "::timestamptz"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "::numeric"
	default:
		return ""
	}
}

// escapeLikeTerm escapes the LIKE wildcards and the escape character itself
// in a raw search term.
func escapeLikeTerm(term string) string {
	escaped := strings.ReplaceAll(term, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `%`, `\%`)
	escaped = strings.ReplaceAll(escaped, `_`, `\_`)

	return escaped
}

// likePattern builds the LIKE pattern for a text operation from an unescaped
// term.
func likePattern(op specification.TextOp, term string) (string, error) {
	escaped := escapeLikeTerm(term)

	switch op {
	case specification.TextContains:
		return "%" + escaped + "%", nil
	case specification.TextStartsWith:
		return escaped + "%", nil
	case specification.TextEndsWith:
		return "%" + escaped, nil
	default:
		return "", ErrUntranslatableExpression
	}
}
