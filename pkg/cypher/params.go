// Package cypher builds parameterized Cypher queries for the memory graph.
//
// The package is split into a filter compiler (declarative filter
// expressions to a predicate tree), a clause state machine that rejects
// structurally invalid queries, a fluent builder that renders clause
// templates, and a similarity planner that chooses between vector-index
// retrieval and an in-query exact-similarity fallback. Literal values never
// appear in rendered query text; they live in a ParamBag and are referenced
// by name.
package cypher

import "fmt"

// ParamBag holds every literal value referenced by a query. Names are
// allocated from a monotonic counter so no two logically distinct values
// can collide. A bag belongs to exactly one builder and is not safe for
// concurrent use.
type ParamBag struct {
	names   []string
	values  map[string]any
	counter int
	seen    map[scalarKey]string
}

type scalarKey struct {
	kind  string
	value any
}

// NewParamBag returns an empty parameter bag.
func NewParamBag() *ParamBag {
	return &ParamBag{
		values: make(map[string]any),
		seen:   make(map[scalarKey]string),
	}
}

// Add binds a value and returns the parameter name referencing it.
// Identical scalar literals are deduplicated; lists and vectors always get
// a fresh name since comparing them is not worth the cost.
func (b *ParamBag) Add(value any) string {
	if key, ok := scalarKeyFor(value); ok {
		if name, dup := b.seen[key]; dup {
			return name
		}
		name := b.allocate(value)
		b.seen[key] = name
		return name
	}
	return b.allocate(value)
}

func (b *ParamBag) allocate(value any) string {
	name := fmt.Sprintf("p%d", b.counter)
	b.counter++
	b.names = append(b.names, name)
	b.values[name] = value
	return name
}

func scalarKeyFor(value any) (scalarKey, bool) {
	switch v := value.(type) {
	case nil:
		return scalarKey{}, false
	case string:
		return scalarKey{kind: "s", value: v}, true
	case bool:
		return scalarKey{kind: "b", value: v}, true
	case int:
		return scalarKey{kind: "i", value: int64(v)}, true
	case int32:
		return scalarKey{kind: "i", value: int64(v)}, true
	case int64:
		return scalarKey{kind: "i", value: v}, true
	case float32:
		return scalarKey{kind: "f", value: float64(v)}, true
	case float64:
		return scalarKey{kind: "f", value: v}, true
	default:
		return scalarKey{}, false
	}
}

// Len reports the number of bound parameters.
func (b *ParamBag) Len() int {
	return len(b.names)
}

// Names returns parameter names in allocation order.
func (b *ParamBag) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// Values returns a copy of the name to value mapping, in the shape the
// graph driver expects for parameterized execution.
func (b *ParamBag) Values() map[string]any {
	out := make(map[string]any, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}
