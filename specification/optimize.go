package specification

import (
	"strings"
	"sync"
)

// RewriteTarget identifies the specification shape a rewrite rule was
// registered for: one exact FilterKind, or a whole FilterFamily.
type RewriteTarget struct {
	kind   FilterKind
	family FilterFamily
}

// ExactTarget targets a single specification kind.
func ExactTarget(kind FilterKind) RewriteTarget {
	return RewriteTarget{kind: kind, family: kind.Family()}
}

// FamilyTarget targets every specification kind of a family.
func FamilyTarget(family FilterFamily) RewriteTarget {
	return RewriteTarget{family: family}
}

// IsExact reports whether the target names a single kind.
func (t RewriteTarget) IsExact() bool { return t.kind != "" }

// TargetKind returns the exact kind, empty for family-wide targets.
func (t RewriteTarget) TargetKind() FilterKind { return t.kind }

// TargetFamily returns the family the target belongs to.
func (t RewriteTarget) TargetFamily() FilterFamily { return t.family }

// Rewrite is a backend-specific optimization rule. Apply receives the
// original specification instance, type-checks it, and either returns a
// replacement predicate tree or declines by returning false. Rules are
// expected to be pure and total: decline for unmatched input, never panic.
type Rewrite interface {
	Target() RewriteTarget
	Apply(spec ExpressionSource) (Expression, bool)
}

// RewriteRule adapts a plain function into a Rewrite.
type RewriteRule struct {
	target RewriteTarget
	apply  func(spec ExpressionSource) (Expression, bool)
}

// NewRewriteRule creates a Rewrite from a target and an apply function.
func NewRewriteRule(target RewriteTarget, apply func(spec ExpressionSource) (Expression, bool)) RewriteRule {
	return RewriteRule{target: target, apply: apply}
}

// Target returns the specification shape the rule applies to.
func (r RewriteRule) Target() RewriteTarget { return r.target }

// Apply runs the rule's rewrite attempt.
func (r RewriteRule) Apply(spec ExpressionSource) (Expression, bool) {
	if r.apply == nil {
		return nil, false
	}

	return r.apply(spec)
}

type registryKey struct {
	backend string
	kind    FilterKind
	family  FilterFamily
}

// Registry maps (backend code, specification shape) to rewrite rules. It is
// process-lifetime state: populated by startup registration calls, read
// during steady-state query execution. Registration is append-only, duplicate
// registrations accumulate, and lookups return independent snapshots so a
// concurrent registration can never produce a partially-visible result.
//
// Backend codes are case-insensitive.
type Registry struct {
	mu    sync.RWMutex
	rules map[registryKey][]Rewrite
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[registryKey][]Rewrite)}
}

// Register appends a rule to the bag keyed by the backend code and the rule's
// target. Multiple registrations for the same key accumulate; callers must
// avoid double-registration if they care.
func (r *Registry) Register(backendCode string, rule Rewrite) error {
	if backendCode == "" {
		return ErrEmptyBackendCode
	}
	if rule == nil {
		return ErrNilRewriteRule
	}

	key := registryKey{backend: strings.ToLower(backendCode)}
	target := rule.Target()
	if target.IsExact() {
		key.kind = target.TargetKind()
	} else {
		key.family = target.TargetFamily()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[key] = append(r.rules[key], rule)

	return nil
}

// Get returns the rules registered for the backend and the exact kind; when
// none exist it falls back to rules registered against the kind's whole
// family; otherwise an empty list. The result is a snapshot copy, and an
// unregistered pair is not an error.
func (r *Registry) Get(backendCode string, kind FilterKind) []Rewrite {
	backend := strings.ToLower(backendCode)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if exact := r.rules[registryKey{backend: backend, kind: kind}]; len(exact) > 0 {
		return append([]Rewrite(nil), exact...)
	}

	if family := r.rules[registryKey{backend: backend, family: kind.Family()}]; len(family) > 0 {
		return append([]Rewrite(nil), family...)
	}

	return nil
}

// OptimizedExpression resolves the predicate tree to hand to a backend: the
// first registered rule that does not decline wins; when no rule applies, or
// the specification carries no kind (composites), the specification's own
// default tree is used.
func OptimizedExpression(registry *Registry, backendCode string, spec ExpressionSource) Expression {
	if registry == nil {
		return spec.ToExpression()
	}

	kinded, ok := spec.(Kinded)
	if !ok {
		return spec.ToExpression()
	}

	for _, rule := range registry.Get(backendCode, kinded.Kind()) {
		if replacement, applied := rule.Apply(spec); applied {
			return replacement
		}
	}

	return spec.ToExpression()
}
