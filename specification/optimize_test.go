package specification_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querykit/composable-specifications-go/specification"
	"github.com/querykit/composable-specifications-go/testutil/helper"
)

func markerRule(target specification.RewriteTarget, applied *bool) specification.RewriteRule {
	return specification.NewRewriteRule(target, func(_ specification.ExpressionSource) (specification.Expression, bool) {
		if applied != nil {
			*applied = true
		}
		return specification.Literal{Value: true}, true
	})
}

func decliningRule(target specification.RewriteTarget) specification.RewriteRule {
	return specification.NewRewriteRule(target, func(_ specification.ExpressionSource) (specification.Expression, bool) {
		return nil, false
	})
}

func Test_Registry_Register_Validation(t *testing.T) {
	registry := specification.NewRegistry()

	t.Run("empty_backend_code_rejected", func(t *testing.T) {
		err := registry.Register("", markerRule(specification.ExactTarget(specification.KindEquals), nil))
		assert.ErrorIs(t, err, specification.ErrEmptyBackendCode)
	})

	t.Run("nil_rule_rejected", func(t *testing.T) {
		err := registry.Register(specification.BackendPostgres, nil)
		assert.ErrorIs(t, err, specification.ErrNilRewriteRule)
	})
}

func Test_Registry_Get_ExactKindBeatsFamily(t *testing.T) {
	// arrange
	registry := specification.NewRegistry()

	familyRule := decliningRule(specification.FamilyTarget(specification.FamilyText))
	exactRule := decliningRule(specification.ExactTarget(specification.KindContains))

	require.NoError(t, registry.Register(specification.BackendPostgres, familyRule))
	require.NoError(t, registry.Register(specification.BackendPostgres, exactRule))

	// act
	contains := registry.Get(specification.BackendPostgres, specification.KindContains)
	startsWith := registry.Get(specification.BackendPostgres, specification.KindStartsWith)

	// assert: the exact bucket shadows the family bucket for its kind only
	require.Len(t, contains, 1)
	assert.True(t, contains[0].Target().IsExact())
	require.Len(t, startsWith, 1)
	assert.False(t, startsWith[0].Target().IsExact())
}

func Test_Registry_Get_UnregisteredPair_IsEmptyNotError(t *testing.T) {
	registry := specification.NewRegistry()

	assert.Empty(t, registry.Get(specification.BackendPostgres, specification.KindEquals))
	assert.Empty(t, registry.Get("unknown-backend", specification.KindEquals))
}

func Test_Registry_BackendCodes_AreCaseInsensitive(t *testing.T) {
	registry := specification.NewRegistry()
	require.NoError(t, registry.Register("Pg", decliningRule(specification.ExactTarget(specification.KindEquals))))

	assert.Len(t, registry.Get("pg", specification.KindEquals), 1)
	assert.Len(t, registry.Get("PG", specification.KindEquals), 1)
	assert.Len(t, registry.Get("Pg", specification.KindEquals), 1)
}

func Test_Registry_DuplicateRegistrations_Accumulate(t *testing.T) {
	registry := specification.NewRegistry()
	rule := decliningRule(specification.ExactTarget(specification.KindEquals))

	require.NoError(t, registry.Register(specification.BackendPostgres, rule))
	require.NoError(t, registry.Register(specification.BackendPostgres, rule))

	assert.Len(t, registry.Get(specification.BackendPostgres, specification.KindEquals), 2)
}

func Test_Registry_ConcurrentRegistrationAndLookup(t *testing.T) {
	registry := specification.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)

		go func(n int) {
			defer wg.Done()
			backend := fmt.Sprintf("backend-%d", n%4)
			_ = registry.Register(backend, decliningRule(specification.ExactTarget(specification.KindEquals)))
		}(i)

		go func(n int) {
			defer wg.Done()
			backend := fmt.Sprintf("backend-%d", n%4)
			_ = registry.Get(backend, specification.KindEquals)
		}(i)
	}
	wg.Wait()

	total := 0
	for i := 0; i < 4; i++ {
		total += len(registry.Get(fmt.Sprintf("backend-%d", i), specification.KindEquals))
	}
	assert.Equal(t, 16, total)
}

func Test_OptimizedExpression_FirstNonDecliningRuleWins(t *testing.T) {
	// arrange
	registry := specification.NewRegistry()

	firstApplied := false
	secondApplied := false
	require.NoError(t, registry.Register(
		specification.BackendPostgres,
		decliningRule(specification.ExactTarget(specification.KindContains))))
	require.NoError(t, registry.Register(
		specification.BackendPostgres,
		markerRule(specification.ExactTarget(specification.KindContains), &firstApplied)))
	require.NoError(t, registry.Register(
		specification.BackendPostgres,
		markerRule(specification.ExactTarget(specification.KindContains), &secondApplied)))

	spec, err := specification.Contains[helper.Reader]("Name", "ali")
	require.NoError(t, err)

	// act
	result := specification.OptimizedExpression(registry, specification.BackendPostgres, spec)

	// assert
	assert.Equal(t, specification.Expression(specification.Literal{Value: true}), result)
	assert.True(t, firstApplied)
	assert.False(t, secondApplied)
}

func Test_OptimizedExpression_FallsBackToDefaultTree(t *testing.T) {
	spec, err := specification.Contains[helper.Reader]("Name", "ali")
	require.NoError(t, err)

	t.Run("nil_registry", func(t *testing.T) {
		result := specification.OptimizedExpression(nil, specification.BackendPostgres, spec)
		assert.Equal(t, spec.ToExpression(), result)
	})

	t.Run("no_rules_registered", func(t *testing.T) {
		result := specification.OptimizedExpression(specification.NewRegistry(), specification.BackendPostgres, spec)
		assert.Equal(t, spec.ToExpression(), result)
	})

	t.Run("every_rule_declines", func(t *testing.T) {
		registry := specification.NewRegistry()
		require.NoError(t, registry.Register(
			specification.BackendPostgres,
			decliningRule(specification.ExactTarget(specification.KindContains))))

		result := specification.OptimizedExpression(registry, specification.BackendPostgres, spec)
		assert.Equal(t, spec.ToExpression(), result)
	})
}

func Test_OptimizedExpression_CompositeSpecifications_AreNeverRewritten(t *testing.T) {
	// composites carry no kind, so the registry is not consulted for them
	registry := specification.NewRegistry()
	require.NoError(t, registry.Register(
		specification.BackendPostgres,
		markerRule(specification.FamilyTarget(specification.FamilyText), nil)))

	left, err := specification.Contains[helper.Reader]("Name", "ali")
	require.NoError(t, err)
	right, err := specification.Contains[helper.Reader]("Email", "example")
	require.NoError(t, err)
	combined, err := specification.And[helper.Reader](left, right)
	require.NoError(t, err)

	result := specification.OptimizedExpression(registry, specification.BackendPostgres, combined)

	assert.Equal(t, combined.ToExpression(), result)
}

func Test_RewriteTarget_Accessors(t *testing.T) {
	exact := specification.ExactTarget(specification.KindContains)
	assert.True(t, exact.IsExact())
	assert.Equal(t, specification.KindContains, exact.TargetKind())
	assert.Equal(t, specification.FamilyText, exact.TargetFamily())

	family := specification.FamilyTarget(specification.FamilyNull)
	assert.False(t, family.IsExact())
	assert.Equal(t, specification.FilterKind(""), family.TargetKind())
	assert.Equal(t, specification.FamilyNull, family.TargetFamily())
}

func Test_ResolveBackendCode_SubstringHeuristic(t *testing.T) {
	tests := []struct {
		identity string
		expected string
	}{
		{identity: "pgx-pool", expected: specification.BackendPostgres},
		{identity: "database-sql-postgres", expected: specification.BackendPostgres},
		{identity: "sqlx-postgres", expected: specification.BackendPostgres},
		{identity: "lib/pq", expected: specification.BackendPostgres},
		{identity: "PostgreSQL 16", expected: specification.BackendPostgres},
		{identity: "sqlserver", expected: specification.BackendSQLServer},
		{identity: "go-mssqldb", expected: specification.BackendSQLServer},
		{identity: "mysql-driver", expected: specification.BackendMySQL},
		{identity: "mariadb", expected: specification.BackendMySQL},
		{identity: "sqlite3", expected: specification.BackendSQLite},
		{identity: "oracle", expected: specification.BackendGeneric},
		{identity: "", expected: specification.BackendGeneric},
	}

	for _, tc := range tests {
		t.Run(tc.identity, func(t *testing.T) {
			assert.Equal(t, tc.expected, specification.ResolveBackendCode(tc.identity))
		})
	}
}
