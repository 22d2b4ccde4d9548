package specification

// MemberChain walks a selector tree and returns the names of its contiguous
// field-access steps, leaf first. Type-coercion wrappers are stripped along
// the way. The walk stops, without error, at the first node that is not a
// member access: a non-member prefix simply ends the chain, so partial chains
// are valid and a selector that is just the root parameter yields an empty
// result.
func MemberChain(selector Expression) []string {
	steps := make([]string, 0, 4)

	for {
		switch node := selector.(type) {
		case Convert:
			selector = node.Source

		case Member:
			steps = append(steps, node.Name)
			selector = node.Source

		default:
			return steps
		}
	}
}

// memberNodes returns the Member nodes of a selector's contiguous chain, leaf
// first. The nodes themselves double as the partial paths the null-guard
// builder checks, so guards share the selector's sub-trees instead of copying
// them.
func memberNodes(selector Expression) []Member {
	nodes := make([]Member, 0, 4)

	for {
		switch node := selector.(type) {
		case Convert:
			selector = node.Source

		case Member:
			nodes = append(nodes, node)
			selector = node.Source

		default:
			return nodes
		}
	}
}
