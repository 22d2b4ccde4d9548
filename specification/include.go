package specification

// IncludeChain is an ordered relation-navigation chain from the root entity,
// consumed by relation-aware backends to eagerly attach related data.
type IncludeChain interface {
	Steps() []string
}

// TypedChain is a relation chain whose step continuity is enforced by the
// type system: TCurrent is the target type of the last step, and Extend only
// accepts a chain whose current type matches. String-path chains carry no
// such check and stay unchecked until the backend consumes them.
type TypedChain[TRoot any, TCurrent any] struct {
	steps []string
}

// NewChain starts a typed chain with one navigation step from TRoot to
// TCurrent.
func NewChain[TRoot any, TCurrent any](step string) TypedChain[TRoot, TCurrent] {
	return TypedChain[TRoot, TCurrent]{steps: []string{step}}
}

// Extend appends a navigation step from TCurrent to TNext. It is a free
// function because Go methods cannot introduce new type parameters.
func Extend[TRoot any, TCurrent any, TNext any](chain TypedChain[TRoot, TCurrent], step string) TypedChain[TRoot, TNext] {
	steps := make([]string, len(chain.steps), len(chain.steps)+1)
	copy(steps, chain.steps)
	steps = append(steps, step)

	return TypedChain[TRoot, TNext]{steps: steps}
}

// Steps returns the chain's navigation steps from the root entity.
func (c TypedChain[TRoot, TCurrent]) Steps() []string {
	steps := make([]string, len(c.steps))
	copy(steps, c.steps)

	return steps
}

// Include describes which related collections or references to eagerly
// attach: zero or more typed chains plus zero or more string-described paths,
// applied independently and additively by a relation-aware backend.
//
// Against an execution target with no relation-loading concept, inclusion is
// a no-op, not an error: for in-memory evaluation the related data is assumed
// to be materialized already.
type Include struct {
	chains []IncludeChain
	paths  []string
}

// WithChain returns a new Include with an additional typed chain.
func (i Include) WithChain(chain IncludeChain) Include {
	chains := make([]IncludeChain, len(i.chains), len(i.chains)+1)
	copy(chains, i.chains)

	return Include{chains: append(chains, chain), paths: i.paths}
}

// WithPath returns a new Include with an additional string-described path,
// e.g. "Orders.Lines".
func (i Include) WithPath(path string) Include {
	paths := make([]string, len(i.paths), len(i.paths)+1)
	copy(paths, i.paths)

	return Include{chains: i.chains, paths: append(paths, path)}
}

// Chains returns the typed chains as a copy.
func (i Include) Chains() []IncludeChain {
	chains := make([]IncludeChain, len(i.chains))
	copy(chains, i.chains)

	return chains
}

// Paths returns the string paths as a copy.
func (i Include) Paths() []string {
	paths := make([]string, len(i.paths))
	copy(paths, i.paths)

	return paths
}

// IsZero reports whether the include describes nothing to attach.
func (i Include) IsZero() bool {
	return len(i.chains) == 0 && len(i.paths) == 0
}

// ApplyInclude is the in-memory interpretation of an Include: the input,
// unchanged.
func ApplyInclude[T any](items []T, _ Include) []T {
	return items
}
