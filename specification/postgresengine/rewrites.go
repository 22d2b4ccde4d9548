package postgresengine

import (
	"github.com/querykit/composable-specifications-go/specification"
)

// textMatcher is the method set shared by every text specification
// instantiation, so a single rule can rewrite them regardless of the
// candidate type parameter.
type textMatcher interface {
	Kind() specification.FilterKind
	Selector() specification.Expression
	Term() string
	Fold() bool
}

var kindToTextOp = map[specification.FilterKind]specification.TextOp{
	specification.KindContains:   specification.TextContains,
	specification.KindStartsWith: specification.TextStartsWith,
	specification.KindEndsWith:   specification.TextEndsWith,
}

// RegisterPgRewrites registers the Postgres rule set with the registry. It
// is meant to run once at startup; the engine constructors call it for the
// default registry.
//
// The single rule replaces case-folded text matches with a native ILIKE
// pattern match, avoiding the LOWER() call on the document path that the
// default translation would emit and keeping trigram indexes usable. The
// null-navigation guards of the original tree are rebuilt in front of the
// replacement, so the rewrite never changes which rows match.
func RegisterPgRewrites(registry *specification.Registry) error {
	rule := specification.NewRewriteRule(
		specification.FamilyTarget(specification.FamilyText),
		rewriteFoldedTextMatch,
	)

	return registry.Register(specification.BackendPostgres, rule)
}

func rewriteFoldedTextMatch(spec specification.ExpressionSource) (specification.Expression, bool) {
	text, ok := spec.(textMatcher)
	if !ok || !text.Fold() || text.Term() == "" {
		return nil, false
	}

	op, known := kindToTextOp[text.Kind()]
	if !known {
		return nil, false
	}

	pattern, err := likePattern(op, text.Term())
	if err != nil {
		return nil, false
	}

	selector := text.Selector()
	match := specification.Match{Target: selector, Pattern: pattern, Insensitive: true}

	return specification.GuardNavigation(selector, match), true
}
