package postgresengine

import (
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querykit/composable-specifications-go/specification"
)

// renderWhere translates the tree and renders it inside a select statement,
// so assertions can look at the SQL the engine would actually execute.
func renderWhere(t *testing.T, expr specification.Expression) string {
	t.Helper()

	translator := treeTranslator{docColumn: "doc"}
	translated, err := translator.Translate(expr)
	require.NoError(t, err)

	sqlQuery, _, toSQLErr := goqu.Dialect(dialectPostgres).
		From("entities").
		Select(goqu.L("doc")).
		Where(translated).
		ToSQL()
	require.NoError(t, toSQLErr)

	return sqlQuery
}

func Test_TreeTranslator_TextPath_RendersMemberChains(t *testing.T) {
	translator := treeTranslator{docColumn: "doc"}

	testCases := []struct {
		name         string
		path         string
		expectedPath string
	}{
		{
			name:         "depth_one_uses_text_extraction",
			path:         "name",
			expectedPath: "doc->>'name'",
		},
		{
			name:         "deep_chain_extracts_text_on_last_step_only",
			path:         "dept.city",
			expectedPath: "doc->'dept'->>'city'",
		},
		{
			name:         "three_levels",
			path:         "dept.head.name",
			expectedPath: "doc->'dept'->'head'->>'name'",
		},
		{
			name:         "single_quotes_in_step_names_are_doubled",
			path:         "o'neil",
			expectedPath: "doc->>'o''neil'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path, err := translator.textPath(specification.Field(tc.path))

			require.NoError(t, err)
			assert.Equal(t, tc.expectedPath, path)
		})
	}
}

func Test_TreeTranslator_TextPath_ShouldFail_WithoutMemberSteps(t *testing.T) {
	translator := treeTranslator{docColumn: "doc"}

	_, err := translator.textPath(specification.Root{})

	assert.ErrorIs(t, err, ErrEmptySelectorChain)
}

func Test_TreeTranslator_Comparisons_RenderCastsFromValueType(t *testing.T) {
	testCases := []struct {
		name     string
		expr     specification.Expression
		expected string
	}{
		{
			name: "string_equality_without_cast",
			expr: specification.Comparison{
				Op:    specification.CompareEq,
				Left:  specification.Field("name"),
				Right: specification.Constant{Value: "alice"},
			},
			expected: "doc->>'name' = 'alice'",
		},
		{
			name: "integer_comparison_casts_to_numeric",
			expr: specification.Comparison{
				Op:    specification.CompareGt,
				Left:  specification.Field("age"),
				Right: specification.Constant{Value: 30},
			},
			expected: "(doc->>'age')::numeric > 30",
		},
		{
			name: "float_comparison_casts_to_numeric",
			expr: specification.Comparison{
				Op:    specification.CompareLte,
				Left:  specification.Field("score"),
				Right: specification.Constant{Value: 99.5},
			},
			expected: "(doc->>'score')::numeric <= 99.5",
		},
		{
			name: "boolean_comparison_casts_to_boolean",
			expr: specification.Comparison{
				Op:    specification.CompareEq,
				Left:  specification.Field("active"),
				Right: specification.Constant{Value: true},
			},
			expected: "(doc->>'active')::boolean = TRUE",
		},
		{
			name: "deep_chain_comparison",
			expr: specification.Comparison{
				Op:    specification.CompareNotEq,
				Left:  specification.Field("dept.city"),
				Right: specification.Constant{Value: "Berlin"},
			},
			expected: "doc->'dept'->>'city' != 'Berlin'",
		},
		{
			name: "ordering_operators",
			expr: specification.Comparison{
				Op:    specification.CompareGte,
				Left:  specification.Field("age"),
				Right: specification.Constant{Value: 18},
			},
			expected: "(doc->>'age')::numeric >= 18",
		},
		{
			name: "less_than",
			expr: specification.Comparison{
				Op:    specification.CompareLt,
				Left:  specification.Field("age"),
				Right: specification.Constant{Value: 65},
			},
			expected: "(doc->>'age')::numeric < 65",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sqlQuery := renderWhere(t, tc.expr)

			assert.Contains(t, sqlQuery, tc.expected)
		})
	}
}

func Test_TreeTranslator_TimeComparison_CastsToTimestamptz(t *testing.T) {
	signedUpAfter := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	expr := specification.Comparison{
		Op:    specification.CompareGte,
		Left:  specification.Field("signed_up_at"),
		Right: specification.Constant{Value: signedUpAfter},
	}

	sqlQuery := renderWhere(t, expr)

	assert.Contains(t, sqlQuery, "(doc->>'signed_up_at')::timestamptz >=")
}

func Test_TreeTranslator_Comparison_ShouldFail_WithNonConstantOperand(t *testing.T) {
	translator := treeTranslator{docColumn: "doc"}
	expr := specification.Comparison{
		Op:    specification.CompareEq,
		Left:  specification.Field("name"),
		Right: specification.Field("alias"),
	}

	_, err := translator.Translate(expr)

	assert.ErrorIs(t, err, ErrUntranslatableExpression)
}

func Test_TreeTranslator_Logical_RendersAndOrWithShortCircuitOrder(t *testing.T) {
	left := specification.Comparison{
		Op:    specification.CompareEq,
		Left:  specification.Field("name"),
		Right: specification.Constant{Value: "alice"},
	}
	right := specification.Comparison{
		Op:    specification.CompareGt,
		Left:  specification.Field("age"),
		Right: specification.Constant{Value: 30},
	}

	andQuery := renderWhere(t, specification.Logical{
		Op:       specification.LogicalAnd,
		Operands: []specification.Expression{left, right},
	})
	orQuery := renderWhere(t, specification.Logical{
		Op:       specification.LogicalOr,
		Operands: []specification.Expression{left, right},
	})

	assert.Contains(t, andQuery, "doc->>'name' = 'alice'")
	assert.Contains(t, andQuery, "(doc->>'age')::numeric > 30")
	assert.Contains(t, andQuery, " AND ")
	assert.Contains(t, orQuery, " OR ")
}

func Test_TreeTranslator_Not_WrapsOperandInParentheses(t *testing.T) {
	expr := specification.Not{
		Operand: specification.Comparison{
			Op:    specification.CompareEq,
			Left:  specification.Field("name"),
			Right: specification.Constant{Value: "alice"},
		},
	}

	sqlQuery := renderWhere(t, expr)

	assert.Contains(t, sqlQuery, "NOT (doc->>'name' = 'alice')")
}

func Test_TreeTranslator_TextMatch_RendersLikeWithEscapedPattern(t *testing.T) {
	testCases := []struct {
		name     string
		expr     specification.Call
		expected string
	}{
		{
			name: "contains_wraps_term_in_wildcards",
			expr: specification.Call{
				Op:     specification.TextContains,
				Target: specification.Field("name"),
				Term:   "ali",
			},
			expected: "doc->>'name' LIKE '%ali%'",
		},
		{
			name: "starts_with_appends_wildcard",
			expr: specification.Call{
				Op:     specification.TextStartsWith,
				Target: specification.Field("name"),
				Term:   "Al",
			},
			expected: "doc->>'name' LIKE 'Al%'",
		},
		{
			name: "ends_with_prepends_wildcard",
			expr: specification.Call{
				Op:     specification.TextEndsWith,
				Target: specification.Field("email"),
				Term:   "@example.com",
			},
			expected: "doc->>'email' LIKE '%@example.com'",
		},
		{
			name: "wildcards_in_term_are_escaped",
			expr: specification.Call{
				Op:     specification.TextContains,
				Target: specification.Field("name"),
				Term:   "50%_off",
			},
			expected: `LIKE '%50\%\_off%'`,
		},
		{
			name: "folded_fallback_lowers_both_sides",
			expr: specification.Call{
				Op:     specification.TextContains,
				Target: specification.Field("name"),
				Term:   "ALI",
				Fold:   true,
			},
			expected: "LOWER(doc->>'name') LIKE '%ali%'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sqlQuery := renderWhere(t, tc.expr)

			assert.Contains(t, sqlQuery, tc.expected)
		})
	}
}

func Test_TreeTranslator_TextMatch_EmptyTerm_RendersFalse(t *testing.T) {
	expr := specification.Call{
		Op:     specification.TextContains,
		Target: specification.Field("name"),
		Term:   "",
	}

	sqlQuery := renderWhere(t, expr)

	assert.Contains(t, sqlQuery, "FALSE")
	assert.NotContains(t, sqlQuery, "LIKE")
}

func Test_TreeTranslator_PatternMatch_RendersLikeAndILike(t *testing.T) {
	sensitive := specification.Match{
		Target:  specification.Field("name"),
		Pattern: "%ali%",
	}
	insensitive := specification.Match{
		Target:      specification.Field("name"),
		Pattern:     "%ali%",
		Insensitive: true,
	}

	assert.Contains(t, renderWhere(t, sensitive), "doc->>'name' LIKE '%ali%'")
	assert.Contains(t, renderWhere(t, insensitive), "doc->>'name' ILIKE '%ali%'")
}

func Test_TreeTranslator_Membership_RendersInList(t *testing.T) {
	expr := specification.Membership{
		Target: specification.Field("dept.city"),
		Values: []any{"Berlin", "Hamburg"},
	}

	sqlQuery := renderWhere(t, expr)

	assert.Contains(t, sqlQuery, "doc->'dept'->>'city' IN ('Berlin', 'Hamburg')")
}

func Test_TreeTranslator_Membership_CastsFromFirstValue(t *testing.T) {
	expr := specification.Membership{
		Target: specification.Field("age"),
		Values: []any{30, 40},
	}

	sqlQuery := renderWhere(t, expr)

	assert.Contains(t, sqlQuery, "(doc->>'age')::numeric IN (30, 40)")
}

func Test_TreeTranslator_Membership_EmptySet_RendersFalse(t *testing.T) {
	expr := specification.Membership{Target: specification.Field("age")}

	sqlQuery := renderWhere(t, expr)

	assert.Contains(t, sqlQuery, "FALSE")
	assert.NotContains(t, sqlQuery, "IN")
}

func Test_TreeTranslator_NullChecks_RenderIsNullAndEmptyVariant(t *testing.T) {
	isNull := specification.IsNullCheck{Target: specification.Field("dept")}
	isEmpty := specification.IsEmptyCheck{Target: specification.Field("tags")}

	nullQuery := renderWhere(t, isNull)
	emptyQuery := renderWhere(t, isEmpty)

	assert.Contains(t, nullQuery, "doc->>'dept' IS NULL")
	assert.Contains(t, emptyQuery, "doc->>'tags' IS NULL")
	assert.Contains(t, emptyQuery, "doc->>'tags' = ''")
	assert.Contains(t, emptyQuery, " OR ")
}

func Test_TreeTranslator_Literal_RendersBooleanConstants(t *testing.T) {
	assert.Contains(t, renderWhere(t, specification.Literal{Value: true}), "TRUE")
	assert.Contains(t, renderWhere(t, specification.Literal{Value: false}), "FALSE")
}

func Test_TreeTranslator_ShouldFail_WithUntranslatableNode(t *testing.T) {
	translator := treeTranslator{docColumn: "doc"}

	_, err := translator.Translate(specification.Tuple{})

	assert.ErrorIs(t, err, ErrUntranslatableExpression)
}

func Test_TreeTranslator_GuardedFilterTree_RendersGuardConjuncts(t *testing.T) {
	// the constructor wraps deep selectors in not-missing guards, so the
	// rendered SQL carries an IS NULL check on the parent step
	spec, specErr := specification.Equals[map[string]any]("dept.city", "Berlin")
	require.NoError(t, specErr)

	sqlQuery := renderWhere(t, spec.ToExpression())

	assert.Contains(t, sqlQuery, "NOT (doc->>'dept' IS NULL)")
	assert.Contains(t, sqlQuery, "doc->'dept'->>'city' = 'Berlin'")
	assert.Contains(t, sqlQuery, " AND ")
}

func Test_TreeTranslator_OrderExpression_RendersSortDirections(t *testing.T) {
	translator := treeTranslator{docColumn: "doc"}
	sort, sortErr := specification.SortBy("dept.city", specification.Ascending)
	require.NoError(t, sortErr)
	sort, sortErr = sort.Then("age", specification.Descending)
	require.NoError(t, sortErr)

	selectStmt := goqu.Dialect(dialectPostgres).From("entities").Select(goqu.L("doc"))
	for _, clause := range sort.Clauses() {
		ordered, err := translator.orderExpression(clause)
		require.NoError(t, err)
		selectStmt = selectStmt.OrderAppend(ordered)
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	require.NoError(t, toSQLErr)

	assert.Contains(t, sqlQuery, "ORDER BY doc->'dept'->>'city' ASC, doc->>'age' DESC")
}

func Test_TreeTranslator_SelectExpressions_AliasesColumnsByDottedPath(t *testing.T) {
	translator := treeTranslator{docColumn: "doc"}
	projection, projErr := specification.ProjectFields("name", "dept.city")
	require.NoError(t, projErr)

	columns, aliases, err := translator.selectExpressions(projection)

	require.NoError(t, err)
	assert.Equal(t, []string{"name", "dept.city"}, aliases)

	sqlQuery, _, toSQLErr := goqu.Dialect(dialectPostgres).
		From("entities").
		Select(columns...).
		ToSQL()
	require.NoError(t, toSQLErr)

	assert.Contains(t, sqlQuery, `doc->>'name' AS "name"`)
	assert.Contains(t, sqlQuery, `doc->'dept'->>'city' AS "dept.city"`)
}

func Test_EscapeLikeTerm_EscapesWildcardsAndEscapeCharacter(t *testing.T) {
	testCases := []struct {
		name     string
		term     string
		expected string
	}{
		{name: "plain_term_untouched", term: "alice", expected: "alice"},
		{name: "percent_escaped", term: "50%", expected: `50\%`},
		{name: "underscore_escaped", term: "a_b", expected: `a\_b`},
		{name: "backslash_escaped_first", term: `a\%`, expected: `a\\\%`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, escapeLikeTerm(tc.term))
		})
	}
}

func Test_LikePattern_BuildsPatternPerOperation(t *testing.T) {
	testCases := []struct {
		name     string
		op       specification.TextOp
		term     string
		expected string
	}{
		{name: "contains", op: specification.TextContains, term: "ali", expected: "%ali%"},
		{name: "starts_with", op: specification.TextStartsWith, term: "Al", expected: "Al%"},
		{name: "ends_with", op: specification.TextEndsWith, term: "ce", expected: "%ce"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pattern, err := likePattern(tc.op, tc.term)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, pattern)
		})
	}
}

func Test_LikePattern_ShouldFail_WithUnknownOperation(t *testing.T) {
	_, err := likePattern(specification.TextOp("regex"), "ali")

	assert.ErrorIs(t, err, ErrUntranslatableExpression)
}

func Test_CastPath_WrapsExtractionBeforeCasting(t *testing.T) {
	testCases := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "string_needs_no_cast", value: "x", expected: "doc->>'v'"},
		{name: "int_casts_to_numeric", value: 1, expected: "(doc->>'v')::numeric"},
		{name: "float_casts_to_numeric", value: 1.5, expected: "(doc->>'v')::numeric"},
		{name: "bool_casts_to_boolean", value: true, expected: "(doc->>'v')::boolean"},
		{name: "time_casts_to_timestamptz", value: time.Now(), expected: "(doc->>'v')::timestamptz"},
		{name: "unknown_type_needs_no_cast", value: struct{}{}, expected: "doc->>'v'"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, castPath("doc->>'v'", tc.value))
		})
	}
}
