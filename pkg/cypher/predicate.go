package cypher

import (
	"fmt"
	"strings"
)

// Predicate is a compiled filter expression. Nodes reference values through
// ParamBag names only; rendering a predicate can never leak a literal into
// query text.
type Predicate interface {
	// Render emits the Cypher fragment for this node. alias is the
	// variable the target node is bound to (e.g. "m").
	Render(alias string) string

	sealed()
}

// GroupOp is the boolean connective of a Group node.
type GroupOp string

const (
	GroupAnd GroupOp = "AND"
	GroupOr  GroupOp = "OR"
)

// Comparison is `alias.Field Op $Param`.
type Comparison struct {
	Field string
	Op    string
	Param string
}

func (c Comparison) Render(alias string) string {
	return fmt.Sprintf("%s.%s %s $%s", alias, c.Field, c.Op, c.Param)
}

// VarComparison compares a projected query variable (such as the similarity
// score) against a bound parameter: `Var Op $Param`. The variable name is
// builder-owned template text, never caller input.
type VarComparison struct {
	Var   string
	Op    string
	Param string
}

func (c VarComparison) Render(string) string {
	return fmt.Sprintf("%s %s $%s", c.Var, c.Op, c.Param)
}

// Membership is `alias.Field IN $Param` where the parameter is a list.
type Membership struct {
	Field string
	Param string
}

func (m Membership) Render(alias string) string {
	return fmt.Sprintf("%s.%s IN $%s", alias, m.Field, m.Param)
}

// Overlap holds when any element of the bound list parameter also occurs in
// the node's list-valued field. The semantics are deliberately asymmetric:
// the bound list is scanned against the field, not the other way around.
type Overlap struct {
	Field string
	Param string
}

func (o Overlap) Render(alias string) string {
	return fmt.Sprintf("any(x IN $%s WHERE x IN %s.%s)", o.Param, alias, o.Field)
}

// PrefixMatch is a length-bounded prefix test using two parameters: the
// prefix length and the prefix value. Binding both avoids dynamic string
// slicing in query text.
type PrefixMatch struct {
	Field      string
	LenParam   string
	ValueParam string
}

func (p PrefixMatch) Render(alias string) string {
	return fmt.Sprintf("left(%s.%s, $%s) = $%s", alias, p.Field, p.LenParam, p.ValueParam)
}

// NullCheck is `alias.Field IS NULL`, or IS NOT NULL when negated.
type NullCheck struct {
	Field   string
	Negated bool
}

func (n NullCheck) Render(alias string) string {
	if n.Negated {
		return fmt.Sprintf("%s.%s IS NOT NULL", alias, n.Field)
	}
	return fmt.Sprintf("%s.%s IS NULL", alias, n.Field)
}

// Group combines child predicates with AND or OR.
type Group struct {
	Op       GroupOp
	Children []Predicate
}

func (g Group) Render(alias string) string {
	parts := make([]string, 0, len(g.Children))
	for _, child := range g.Children {
		parts = append(parts, child.Render(alias))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " "+string(g.Op)+" ") + ")"
}

// truth is the identity element of a boolean group: an empty $and compiles
// to true, an empty $or to false. Keeping it as a node makes combining a
// compiled group with other predicates algebraically safe.
type truth struct {
	value bool
}

func (t truth) Render(string) string {
	if t.value {
		return "true"
	}
	return "false"
}

// True returns the always-true predicate (AND identity).
func True() Predicate { return truth{value: true} }

// False returns the always-false predicate (OR identity).
func False() Predicate { return truth{value: false} }

// IsAlwaysTrue reports whether p trivially holds, so callers can skip
// emitting a WHERE clause entirely.
func IsAlwaysTrue(p Predicate) bool {
	t, ok := p.(truth)
	return ok && t.value
}

// IsAlwaysFalse reports whether p can never hold.
func IsAlwaysFalse(p Predicate) bool {
	t, ok := p.(truth)
	return ok && !t.value
}

// And combines predicates, dropping true identities and collapsing to a
// single child where possible. Any always-false child makes the whole
// conjunction false.
func And(preds ...Predicate) Predicate {
	children := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p == nil || IsAlwaysTrue(p) {
			continue
		}
		if IsAlwaysFalse(p) {
			return False()
		}
		children = append(children, p)
	}
	switch len(children) {
	case 0:
		return True()
	case 1:
		return children[0]
	default:
		return Group{Op: GroupAnd, Children: children}
	}
}

// Or combines predicates, dropping false identities and collapsing to a
// single child where possible. Any always-true child makes the whole
// disjunction true.
func Or(preds ...Predicate) Predicate {
	children := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p == nil || IsAlwaysFalse(p) {
			continue
		}
		if IsAlwaysTrue(p) {
			return True()
		}
		children = append(children, p)
	}
	switch len(children) {
	case 0:
		return False()
	case 1:
		return children[0]
	default:
		return Group{Op: GroupOr, Children: children}
	}
}

func (Comparison) sealed()    {}
func (VarComparison) sealed() {}
func (Membership) sealed()    {}
func (Overlap) sealed()       {}
func (PrefixMatch) sealed()   {}
func (NullCheck) sealed()     {}
func (Group) sealed()         {}
func (truth) sealed()         {}
