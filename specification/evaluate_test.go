package specification_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querykit/composable-specifications-go/specification"
)

func Test_Compile_RejectsNonBooleanTrees(t *testing.T) {
	tests := []struct {
		name string
		expr specification.Expression
	}{
		{name: "bare_selector", expr: specification.Field("Name")},
		{name: "bare_constant", expr: specification.Constant{Value: 1}},
		{name: "tuple", expr: specification.Tuple{Elems: []specification.Expression{specification.Field("Name")}}},
		{
			name: "nested_invalid_operand",
			expr: specification.Logical{
				Op:       specification.LogicalAnd,
				Operands: []specification.Expression{specification.Literal{Value: true}, specification.Field("Name")},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := specification.Compile[any](tc.expr)
			assert.ErrorIs(t, err, specification.ErrUnsupportedExpression)
		})
	}
}

func Test_Compile_EvaluatesOverMapCandidates(t *testing.T) {
	// documents decoded from JSON resolve through map keys the same way
	// structs resolve through fields
	equalsBerlin := specification.Comparison{
		Op:    specification.CompareEq,
		Left:  specification.Field("dept.city"),
		Right: specification.Constant{Value: "Berlin"},
	}

	eval, err := specification.Compile[map[string]any](specification.GuardNavigation(specification.Field("dept.city"), equalsBerlin))
	require.NoError(t, err)

	assert.True(t, eval(map[string]any{"dept": map[string]any{"city": "Berlin"}}))
	assert.False(t, eval(map[string]any{"dept": map[string]any{"city": "Munich"}}))
	assert.False(t, eval(map[string]any{"name": "no department"}))
	assert.False(t, eval(nil))
}

func Test_Compile_FieldResolution_FallsBackToCaseInsensitive(t *testing.T) {
	type entity struct {
		UserName string
	}

	equals := specification.Comparison{
		Op:    specification.CompareEq,
		Left:  specification.Field("username"),
		Right: specification.Constant{Value: "alice"},
	}

	eval, err := specification.Compile[entity](equals)
	require.NoError(t, err)

	assert.True(t, eval(entity{UserName: "alice"}))
	assert.False(t, eval(entity{UserName: "bob"}))
}

func Test_Compile_ComparesTimeValues(t *testing.T) {
	type entity struct {
		CreatedAt time.Time
	}

	cutoff := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	after := specification.Comparison{
		Op:    specification.CompareGt,
		Left:  specification.Field("CreatedAt"),
		Right: specification.Constant{Value: cutoff},
	}

	eval, err := specification.Compile[entity](after)
	require.NoError(t, err)

	assert.True(t, eval(entity{CreatedAt: cutoff.Add(time.Hour)}))
	assert.False(t, eval(entity{CreatedAt: cutoff}))
	assert.False(t, eval(entity{CreatedAt: cutoff.Add(-time.Hour)}))
}

func Test_Compile_IncomparableValues_EvaluateFalse(t *testing.T) {
	type entity struct {
		Name string
	}

	// ordering a string against a number is not defined; it degrades to
	// false instead of faulting
	mixed := specification.Comparison{
		Op:    specification.CompareGt,
		Left:  specification.Field("Name"),
		Right: specification.Constant{Value: 5},
	}

	eval, err := specification.Compile[entity](mixed)
	require.NoError(t, err)

	assert.False(t, eval(entity{Name: "alice"}))
}

func Test_Compile_LikePatternMatching(t *testing.T) {
	type entity struct {
		Name string
	}

	tests := []struct {
		name        string
		pattern     string
		insensitive bool
		candidate   string
		expected    bool
	}{
		{name: "percent_matches_any_run", pattern: "%ice%", candidate: "alice", expected: true},
		{name: "percent_at_edges", pattern: "a%e", candidate: "alice", expected: true},
		{name: "underscore_matches_one_rune", pattern: "al_ce", candidate: "alice", expected: true},
		{name: "underscore_requires_a_rune", pattern: "alice_", candidate: "alice", expected: false},
		{name: "escaped_percent_is_literal", pattern: `100\%`, candidate: "100%", expected: true},
		{name: "escaped_percent_not_wildcard", pattern: `100\%`, candidate: "1000", expected: false},
		{name: "escaped_underscore_is_literal", pattern: `a\_b`, candidate: "a_b", expected: true},
		{name: "case_sensitive_by_default", pattern: "ALICE", candidate: "alice", expected: false},
		{name: "insensitive_folds_both_sides", pattern: "ALICE", insensitive: true, candidate: "alice", expected: true},
		{name: "empty_pattern_never_matches", pattern: "", candidate: "", expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			match := specification.Match{
				Target:      specification.Field("Name"),
				Pattern:     tc.pattern,
				Insensitive: tc.insensitive,
			}

			eval, err := specification.Compile[entity](match)
			require.NoError(t, err)

			assert.Equal(t, tc.expected, eval(entity{Name: tc.candidate}))
		})
	}
}

func Test_Compile_UnexportedFields_AreAbsent(t *testing.T) {
	type entity struct {
		Name   string
		hidden string
	}

	equals := specification.Comparison{
		Op:    specification.CompareEq,
		Left:  specification.Field("hidden"),
		Right: specification.Constant{Value: "x"},
	}

	eval, err := specification.Compile[entity](equals)
	require.NoError(t, err)

	assert.False(t, eval(entity{Name: "alice", hidden: "x"}))
}
