package cypher

import (
	"fmt"
	"sort"
	"strings"
)

// clause is one accepted, templated fragment of the query under
// construction. Text contains parameter references only, never values.
type clause struct {
	kind ClauseKind
	text string
}

// Builder accumulates a clause sequence validated by the state machine and
// a ParamBag holding every literal. A builder belongs to one logical query:
// create it, chain clause calls, Build once, discard.
//
// Clause methods are fluent; the first failure (invalid clause order,
// malformed input) is recorded and every later call becomes a no-op, so
// the error surfaces exactly once from Build or Err.
type Builder struct {
	clauses   []clause
	bag       *ParamBag
	state     clauseState
	finalized bool
	err       error
}

// NewBuilder returns an empty query builder with a fresh parameter bag.
func NewBuilder() *Builder {
	return &Builder{bag: NewParamBag()}
}

// Err returns the first construction error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Params exposes the builder's parameter bag so collaborating components
// (the filter compiler, the similarity planner) bind literals into the same
// namespace.
func (b *Builder) Params() *ParamBag {
	return b.bag
}

// BindParam adds a literal to the bag and returns its parameter name for
// use inside a clause template.
func (b *Builder) BindParam(value any) string {
	return b.bag.Add(value)
}

func (b *Builder) emit(kind ClauseKind, text string) *Builder {
	if b.err != nil {
		return b
	}
	if b.finalized {
		b.err = ErrAlreadyFinalized
		return b
	}
	if err := b.state.transition(kind); err != nil {
		b.err = err
		return b
	}
	b.clauses = append(b.clauses, clause{kind: kind, text: text})
	return b
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Match emits `MATCH <pattern>`. The pattern is builder-owned template
// text; any property values belong in the bag via BindParam.
func (b *Builder) Match(pattern string) *Builder {
	return b.emit(ClauseMatch, "MATCH "+pattern)
}

// OptionalMatch emits `OPTIONAL MATCH <pattern>`.
func (b *Builder) OptionalMatch(pattern string) *Builder {
	return b.emit(ClauseOptionalMatch, "OPTIONAL MATCH "+pattern)
}

// CallYield emits `CALL <procedure> YIELD <items>`.
func (b *Builder) CallYield(procedure string, yieldItems ...string) *Builder {
	text := "CALL " + procedure
	if len(yieldItems) > 0 {
		text += " YIELD " + strings.Join(yieldItems, ", ")
	}
	return b.emit(ClauseCall, text)
}

// Unwind emits `UNWIND <expr> AS <alias>`.
func (b *Builder) Unwind(expr, alias string) *Builder {
	return b.emit(ClauseUnwind, fmt.Sprintf("UNWIND %s AS %s", expr, alias))
}

// Where emits a WHERE clause from a compiled predicate. An always-true
// predicate is skipped entirely; an always-false one is rendered as-is so
// the query legitimately matches nothing rather than everything.
func (b *Builder) Where(pred Predicate, alias string) *Builder {
	if b.err != nil || pred == nil || IsAlwaysTrue(pred) {
		return b
	}
	return b.emit(ClauseWhere, "WHERE "+pred.Render(alias))
}

// With emits a WITH projection, opening a new binding context.
func (b *Builder) With(items ...string) *Builder {
	return b.emit(ClauseWith, "WITH "+strings.Join(items, ", "))
}

// Return emits the RETURN clause. At most one RETURN is allowed per query
// segment.
func (b *Builder) Return(items ...string) *Builder {
	return b.emit(ClauseReturn, "RETURN "+strings.Join(items, ", "))
}

// OrderBy emits `ORDER BY <items>`. Items are template text such as
// "similarity DESC".
func (b *Builder) OrderBy(items ...string) *Builder {
	return b.emit(ClauseOrderBy, "ORDER BY "+strings.Join(items, ", "))
}

// Create emits `CREATE <pattern>`.
func (b *Builder) Create(pattern string) *Builder {
	return b.emit(ClauseCreate, "CREATE "+pattern)
}

// Merge emits `MERGE <pattern>`.
func (b *Builder) Merge(pattern string) *Builder {
	return b.emit(ClauseMerge, "MERGE "+pattern)
}

// Set emits a SET clause assigning the given properties on alias, each
// value bound through the bag. Property names are sorted so rendering is
// deterministic.
func (b *Builder) Set(alias string, properties map[string]any) *Builder {
	if b.err != nil {
		return b
	}
	if len(properties) == 0 {
		return b.fail(fmt.Errorf("SET requires at least one property"))
	}
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	assignments := make([]string, 0, len(names))
	for _, name := range names {
		assignments = append(assignments, fmt.Sprintf("%s.%s = $%s", alias, name, b.bag.Add(properties[name])))
	}
	return b.emit(ClauseSet, "SET "+strings.Join(assignments, ", "))
}

// Remove emits `REMOVE <items>`, e.g. "m.topic_id" or "m:Label".
func (b *Builder) Remove(items ...string) *Builder {
	return b.emit(ClauseRemove, "REMOVE "+strings.Join(items, ", "))
}

// Delete emits `DELETE <vars>`.
func (b *Builder) Delete(vars ...string) *Builder {
	return b.emit(ClauseDelete, "DELETE "+strings.Join(vars, ", "))
}

// DetachDelete emits `DETACH DELETE <vars>`.
func (b *Builder) DetachDelete(vars ...string) *Builder {
	return b.emit(ClauseDetachDelete, "DETACH DELETE "+strings.Join(vars, ", "))
}

// Skip emits `SKIP $n` with the count bound as a parameter.
func (b *Builder) Skip(count int) *Builder {
	if b.err != nil {
		return b
	}
	if count < 0 {
		return b.fail(fmt.Errorf("%w: skip %d", ErrInvalidPagination, count))
	}
	return b.emit(ClauseSkip, "SKIP $"+b.bag.Add(count))
}

// Limit emits `LIMIT $n` with the count bound as a parameter.
func (b *Builder) Limit(count int) *Builder {
	if b.err != nil {
		return b
	}
	if count <= 0 {
		return b.fail(fmt.Errorf("%w: limit %d", ErrInvalidPagination, count))
	}
	return b.emit(ClauseLimit, "LIMIT $"+b.bag.Add(count))
}

// Build finalizes the query, rendering the clause sequence into text and
// returning it with the parameter values. Build is terminal: calling it
// again, or emitting further clauses, fails with ErrAlreadyFinalized.
func (b *Builder) Build() (string, map[string]any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if b.finalized {
		return "", nil, ErrAlreadyFinalized
	}
	if len(b.clauses) == 0 {
		return "", nil, ErrEmptyQuery
	}
	if !b.state.complete() {
		return "", nil, ErrIncompleteQuery
	}

	b.finalized = true

	parts := make([]string, 0, len(b.clauses))
	for _, c := range b.clauses {
		parts = append(parts, c.text)
	}
	return strings.Join(parts, "\n"), b.bag.Values(), nil
}
