package cypher

import (
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"
)

// Reserved boolean-group keys in filter expressions.
const (
	groupKeyAnd = "$and"
	groupKeyOr  = "$or"
)

// comparisonOps maps filter operator suffixes to their Cypher operators.
// Operators with their own node shapes (in, overlap, startswith) are
// handled separately in compileField.
var comparisonOps = map[string]string{
	"lt":       "<",
	"lte":      "<=",
	"gt":       ">",
	"gte":      ">=",
	"ne":       "<>",
	"contains": "CONTAINS",
}

// CompileFilter translates a declarative filter expression into a
// Predicate, binding every literal through bag. Keys are either a
// boolean-group marker ($and / $or, mapping to a list of sub-expressions)
// or a field name optionally suffixed with __<operator>. A bare field is an
// equality test, or a null check when the value is nil.
//
// An empty or nil expression compiles to the always-true predicate so the
// result can be combined with other predicates without special-casing.
// Unknown operators and malformed groups are hard errors, never silently
// dropped.
func CompileFilter(expr map[string]any, bag *ParamBag) (Predicate, error) {
	return compileConjunction(expr, bag)
}

func compileConjunction(expr map[string]any, bag *ParamBag) (Predicate, error) {
	if len(expr) == 0 {
		return True(), nil
	}

	children := make([]Predicate, 0, len(expr))
	for _, key := range orderedKeys(expr) {
		child, err := compileEntry(key, expr[key], bag)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return And(children...), nil
}

// orderedKeys returns the expression's keys in a deterministic order:
// field keys sorted lexically, group markers after them. Parameter names
// and rendered text are then stable across calls with the same filter.
func orderedKeys(expr map[string]any) []string {
	keys := make([]string, 0, len(expr))
	for key := range expr {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		gi, gj := strings.HasPrefix(keys[i], "$"), strings.HasPrefix(keys[j], "$")
		if gi != gj {
			return gj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func compileEntry(key string, value any, bag *ParamBag) (Predicate, error) {
	switch key {
	case groupKeyAnd:
		return compileGroup(key, GroupAnd, value, bag)
	case groupKeyOr:
		return compileGroup(key, GroupOr, value, bag)
	}

	if strings.HasPrefix(key, "$") {
		return nil, &InvalidShapeError{Key: key, Reason: "unknown group marker"}
	}

	if field, op, found := strings.Cut(key, "__"); found {
		return compileField(field, op, value, bag)
	}

	if value == nil {
		return NullCheck{Field: key}, nil
	}
	return Comparison{Field: key, Op: "=", Param: bag.Add(value)}, nil
}

func compileGroup(key string, op GroupOp, value any, bag *ParamBag) (Predicate, error) {
	items, ok := asList(value)
	if !ok {
		return nil, &InvalidShapeError{Key: key, Reason: "group value must be a list of filter expressions"}
	}

	children := make([]Predicate, 0, len(items))
	for _, item := range items {
		sub, ok := asExpr(item)
		if !ok {
			return nil, &InvalidShapeError{Key: key, Reason: "group elements must be filter expressions"}
		}
		child, err := compileConjunction(sub, bag)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	// And/Or of zero children yields the group's identity element.
	if op == GroupAnd {
		return And(children...), nil
	}
	return Or(children...), nil
}

func compileField(field, op string, value any, bag *ParamBag) (Predicate, error) {
	switch op {
	case "ne":
		if value == nil {
			return NullCheck{Field: field, Negated: true}, nil
		}
		return Comparison{Field: field, Op: "<>", Param: bag.Add(value)}, nil

	case "in":
		if _, ok := asList(value); !ok {
			return nil, &InvalidShapeError{Key: field + "__in", Reason: "operator requires a list value"}
		}
		return Membership{Field: field, Param: bag.Add(value)}, nil

	case "overlap":
		if _, ok := asList(value); !ok {
			return nil, &InvalidShapeError{Key: field + "__overlap", Reason: "operator requires a list value"}
		}
		return Overlap{Field: field, Param: bag.Add(value)}, nil

	case "startswith":
		prefix, ok := value.(string)
		if !ok {
			return nil, &InvalidShapeError{Key: field + "__startswith", Reason: "operator requires a string value"}
		}
		return PrefixMatch{
			Field:      field,
			LenParam:   bag.Add(utf8.RuneCountInString(prefix)),
			ValueParam: bag.Add(prefix),
		}, nil
	}

	if cypherOp, ok := comparisonOps[op]; ok {
		return Comparison{Field: field, Op: cypherOp, Param: bag.Add(value)}, nil
	}
	return nil, &UnsupportedOperatorError{Field: field, Operator: op}
}

func asList(value any) ([]any, bool) {
	if items, ok := value.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	if _, isBytes := value.([]byte); isBytes {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func asExpr(value any) (map[string]any, bool) {
	expr, ok := value.(map[string]any)
	return expr, ok
}
