package specification

import (
	"reflect"
	"strings"
	"time"
)

// Compile turns a boolean predicate tree into a local predicate function over
// candidates of type T. Member access is resolved by reflection: exported
// struct fields (exact name first, then case-insensitive), string-keyed map
// entries, with pointers and interfaces dereferenced along the way. A nil or
// missing step makes the value "absent" and every operation over an absent
// value degrades to false, it never faults.
//
// Compile validates the tree shape once up front; evaluation itself cannot
// fail.
func Compile[T any](expr Expression) (func(T) bool, error) {
	if err := validatePredicate(expr); err != nil {
		return nil, err
	}

	return func(candidate T) bool {
		return evalPredicate(expr, reflect.ValueOf(candidate))
	}, nil
}

// validatePredicate checks that expr is a well-formed boolean tree.
func validatePredicate(expr Expression) error {
	switch node := expr.(type) {
	case Literal, IsNullCheck, IsEmptyCheck, Call, Match, Membership:
		return nil

	case Comparison:
		return nil

	case Not:
		return validatePredicate(node.Operand)

	case Logical:
		for _, operand := range node.Operands {
			if err := validatePredicate(operand); err != nil {
				return err
			}
		}
		return nil

	default:
		return ErrUnsupportedExpression
	}
}

//nolint:cyclop
func evalPredicate(expr Expression, root reflect.Value) bool {
	switch node := expr.(type) {
	case Literal:
		return node.Value

	case Not:
		return !evalPredicate(node.Operand, root)

	case Logical:
		return evalLogical(node, root)

	case Comparison:
		return evalComparison(node, root)

	case Call:
		return evalTextMatch(node, root)

	case Match:
		return evalPatternMatch(node, root)

	case Membership:
		return evalMembership(node, root)

	case IsNullCheck:
		value, present := resolve(node.Target, root)
		return !present || isNilValue(value)

	case IsEmptyCheck:
		return evalIsEmpty(node, root)

	default:
		return false
	}
}

// evalLogical applies short-circuiting AND/OR, operands left to right. The
// left-to-right order is load-bearing: null-guard conjuncts sit in front of
// the access they protect.
func evalLogical(node Logical, root reflect.Value) bool {
	if node.Op == LogicalAnd {
		for _, operand := range node.Operands {
			if !evalPredicate(operand, root) {
				return false
			}
		}
		return true
	}

	for _, operand := range node.Operands {
		if evalPredicate(operand, root) {
			return true
		}
	}
	return false
}

func evalComparison(node Comparison, root reflect.Value) bool {
	left, leftPresent := resolve(node.Left, root)
	right, rightPresent := resolve(node.Right, root)

	if !leftPresent || !rightPresent || isNilValue(left) || isNilValue(right) {
		return false
	}

	switch node.Op {
	case CompareEq:
		return equalValues(left, right)

	case CompareNotEq:
		return !equalValues(left, right)

	case CompareGt, CompareGte, CompareLt, CompareLte:
		ordering, comparable := compareValues(left, right)
		if !comparable {
			return false
		}
		switch node.Op {
		case CompareGt:
			return ordering > 0
		case CompareGte:
			return ordering >= 0
		case CompareLt:
			return ordering < 0
		default:
			return ordering <= 0
		}

	default:
		return false
	}
}

// evalTextMatch implements contains / starts-with / ends-with. An empty term
// never matches, and a nil candidate never matches, both checked explicitly
// before the match operation.
func evalTextMatch(node Call, root reflect.Value) bool {
	if node.Term == "" {
		return false
	}

	candidate, present := resolveString(node.Target, root)
	if !present {
		return false
	}

	term := node.Term
	if node.Fold {
		candidate = strings.ToLower(candidate)
		term = strings.ToLower(term)
	}

	switch node.Op {
	case TextContains:
		return strings.Contains(candidate, term)
	case TextStartsWith:
		return strings.HasPrefix(candidate, term)
	case TextEndsWith:
		return strings.HasSuffix(candidate, term)
	default:
		return false
	}
}

func evalPatternMatch(node Match, root reflect.Value) bool {
	if node.Pattern == "" {
		return false
	}

	candidate, present := resolveString(node.Target, root)
	if !present {
		return false
	}

	pattern := node.Pattern
	if node.Insensitive {
		candidate = strings.ToLower(candidate)
		pattern = strings.ToLower(pattern)
	}

	return likeMatch([]rune(candidate), []rune(pattern))
}

// likeMatch evaluates a SQL LIKE pattern with % and _ wildcards and backslash
// escapes.
func likeMatch(candidate, pattern []rune) bool {
	if len(pattern) == 0 {
		return len(candidate) == 0
	}

	switch pattern[0] {
	case '%':
		for i := 0; i <= len(candidate); i++ {
			if likeMatch(candidate[i:], pattern[1:]) {
				return true
			}
		}
		return false

	case '_':
		return len(candidate) > 0 && likeMatch(candidate[1:], pattern[1:])

	case '\\':
		if len(pattern) >= 2 {
			return len(candidate) > 0 && candidate[0] == pattern[1] && likeMatch(candidate[1:], pattern[2:])
		}
		return len(candidate) == 1 && candidate[0] == '\\'

	default:
		return len(candidate) > 0 && candidate[0] == pattern[0] && likeMatch(candidate[1:], pattern[1:])
	}
}

// evalMembership tests set membership; an empty candidate set is always
// false.
func evalMembership(node Membership, root reflect.Value) bool {
	if len(node.Values) == 0 {
		return false
	}

	value, present := resolve(node.Target, root)
	if !present || isNilValue(value) {
		return false
	}

	for _, member := range node.Values {
		if equalValues(value, member) {
			return true
		}
	}

	return false
}

func evalIsEmpty(node IsEmptyCheck, root reflect.Value) bool {
	value, present := resolve(node.Target, root)
	if !present || isNilValue(value) {
		return true
	}

	rv := indirect(reflect.ValueOf(value))
	if !rv.IsValid() {
		return true
	}

	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	default:
		return false
	}
}

// resolve evaluates a selector sub-tree against the candidate and reports
// whether every step along the way was present.
func resolve(expr Expression, root reflect.Value) (any, bool) {
	switch node := expr.(type) {
	case Root:
		if !root.IsValid() {
			return nil, false
		}
		return root.Interface(), true

	case Constant:
		return node.Value, true

	case Convert:
		return resolve(node.Source, root)

	case Member:
		source, present := resolve(node.Source, root)
		if !present {
			return nil, false
		}
		return navigate(source, node.Name)

	default:
		return nil, false
	}
}

func resolveString(expr Expression, root reflect.Value) (string, bool) {
	value, present := resolve(expr, root)
	if !present || isNilValue(value) {
		return "", false
	}

	rv := indirect(reflect.ValueOf(value))
	if !rv.IsValid() || rv.Kind() != reflect.String {
		return "", false
	}

	return rv.String(), true
}

// navigate performs one field-access step on an already-resolved value.
func navigate(source any, name string) (any, bool) {
	rv := indirect(reflect.ValueOf(source))
	if !rv.IsValid() {
		return nil, false
	}

	switch rv.Kind() {
	case reflect.Struct:
		field := rv.FieldByName(name)
		if !field.IsValid() {
			field = rv.FieldByNameFunc(func(candidate string) bool {
				return strings.EqualFold(candidate, name)
			})
		}
		if !field.IsValid() || !field.CanInterface() {
			return nil, false
		}
		return field.Interface(), true

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		entry := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !entry.IsValid() {
			for _, key := range rv.MapKeys() {
				if strings.EqualFold(key.String(), name) {
					entry = rv.MapIndex(key)
					break
				}
			}
		}
		if !entry.IsValid() {
			return nil, false
		}
		return entry.Interface(), true

	default:
		return nil, false
	}
}

// indirect unwraps pointers and interfaces; a nil anywhere yields an invalid
// value, which callers treat as "absent".
func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}

	return rv
}

func isNilValue(value any) bool {
	if value == nil {
		return true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

// equalValues compares two scalars for equality, normalizing across numeric
// kinds first so that int(3) equals int64(3) and float64(3).
func equalValues(left, right any) bool {
	if ordering, comparable := compareValues(left, right); comparable {
		return ordering == 0
	}

	return reflect.DeepEqual(left, right)
}

// compareValues orders two scalars. Supported: all numeric kinds (compared as
// float64), strings, and time.Time. Anything else is not comparable.
func compareValues(left, right any) (int, bool) {
	if leftTime, ok := left.(time.Time); ok {
		rightTime, rightIsTime := right.(time.Time)
		if !rightIsTime {
			return 0, false
		}
		return leftTime.Compare(rightTime), true
	}

	lv := indirect(reflect.ValueOf(left))
	rv := indirect(reflect.ValueOf(right))
	if !lv.IsValid() || !rv.IsValid() {
		return 0, false
	}

	if lv.Kind() == reflect.String && rv.Kind() == reflect.String {
		return strings.Compare(lv.String(), rv.String()), true
	}

	leftNum, leftOK := numericValue(lv)
	rightNum, rightOK := numericValue(rv)
	if !leftOK || !rightOK {
		return 0, false
	}

	switch {
	case leftNum < rightNum:
		return -1, true
	case leftNum > rightNum:
		return 1, true
	default:
		return 0, true
	}
}

func numericValue(rv reflect.Value) (float64, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
