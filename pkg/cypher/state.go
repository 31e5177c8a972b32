package cypher

// ClauseKind identifies a Cypher clause for state-machine validation.
type ClauseKind int

const (
	// ClauseNone is the empty-query state, before any clause is emitted.
	ClauseNone ClauseKind = iota

	// Retrieval clauses open a binding context.
	ClauseMatch
	ClauseOptionalMatch
	ClauseCall
	ClauseUnwind

	// ClauseWhere filters the current binding context.
	ClauseWhere

	// ClauseWith projects into a fresh binding context.
	ClauseWith

	// Write clauses.
	ClauseCreate
	ClauseMerge
	ClauseSet
	ClauseRemove
	ClauseDelete
	ClauseDetachDelete

	// ClauseReturn closes the read part of a query segment.
	ClauseReturn

	// Ordering and paging.
	ClauseOrderBy
	ClauseSkip
	ClauseLimit
)

var clauseNames = map[ClauseKind]string{
	ClauseNone:          "START",
	ClauseMatch:         "MATCH",
	ClauseOptionalMatch: "OPTIONAL MATCH",
	ClauseCall:          "CALL",
	ClauseUnwind:        "UNWIND",
	ClauseWhere:         "WHERE",
	ClauseWith:          "WITH",
	ClauseCreate:        "CREATE",
	ClauseMerge:         "MERGE",
	ClauseSet:           "SET",
	ClauseRemove:        "REMOVE",
	ClauseDelete:        "DELETE",
	ClauseDetachDelete:  "DETACH DELETE",
	ClauseReturn:        "RETURN",
	ClauseOrderBy:       "ORDER BY",
	ClauseSkip:          "SKIP",
	ClauseLimit:         "LIMIT",
}

func (k ClauseKind) String() string {
	if name, ok := clauseNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsRetrieval reports whether the clause opens a binding context.
func (k ClauseKind) IsRetrieval() bool {
	switch k {
	case ClauseMatch, ClauseOptionalMatch, ClauseCall, ClauseUnwind:
		return true
	}
	return false
}

// IsWrite reports whether the clause mutates the graph.
func (k ClauseKind) IsWrite() bool {
	switch k {
	case ClauseCreate, ClauseMerge, ClauseSet, ClauseRemove, ClauseDelete, ClauseDetachDelete:
		return true
	}
	return false
}

// validAfter is the full transition table: which clause kinds may follow
// each kind. Notably WHERE admits no retrieval clause: re-opening the
// binding context after a filter requires an explicit WITH projection.
var validAfter = map[ClauseKind]map[ClauseKind]bool{
	ClauseNone: kinds(
		ClauseMatch, ClauseOptionalMatch, ClauseCall, ClauseUnwind,
		ClauseCreate, ClauseMerge,
	),
	ClauseMatch: kinds(
		ClauseMatch, ClauseOptionalMatch, ClauseCall, ClauseUnwind,
		ClauseWhere, ClauseWith, ClauseReturn,
		ClauseCreate, ClauseMerge, ClauseSet, ClauseRemove, ClauseDelete, ClauseDetachDelete,
	),
	ClauseOptionalMatch: kinds(
		ClauseMatch, ClauseOptionalMatch, ClauseCall, ClauseUnwind,
		ClauseWhere, ClauseWith, ClauseReturn,
		ClauseCreate, ClauseMerge, ClauseSet, ClauseRemove, ClauseDelete, ClauseDetachDelete,
	),
	ClauseCall: kinds(
		ClauseMatch, ClauseOptionalMatch, ClauseCall, ClauseUnwind,
		ClauseWhere, ClauseWith, ClauseReturn,
		ClauseCreate, ClauseMerge, ClauseSet, ClauseRemove, ClauseDelete, ClauseDetachDelete,
	),
	ClauseUnwind: kinds(
		ClauseMatch, ClauseOptionalMatch, ClauseCall, ClauseUnwind,
		ClauseWhere, ClauseWith, ClauseReturn,
		ClauseCreate, ClauseMerge, ClauseSet, ClauseRemove, ClauseDelete, ClauseDetachDelete,
	),
	ClauseWhere: kinds(
		ClauseWith, ClauseReturn,
		ClauseCreate, ClauseMerge, ClauseSet, ClauseRemove, ClauseDelete, ClauseDetachDelete,
	),
	ClauseWith: kinds(
		ClauseMatch, ClauseOptionalMatch, ClauseCall, ClauseUnwind,
		ClauseWhere, ClauseWith, ClauseReturn, ClauseOrderBy,
		ClauseCreate, ClauseMerge, ClauseSet, ClauseRemove, ClauseDelete, ClauseDetachDelete,
	),
	ClauseCreate: kinds(
		ClauseMatch, ClauseOptionalMatch, ClauseCall, ClauseUnwind,
		ClauseWith, ClauseReturn,
		ClauseCreate, ClauseMerge, ClauseSet, ClauseRemove,
	),
	ClauseMerge: kinds(
		ClauseMatch, ClauseOptionalMatch, ClauseCall, ClauseUnwind,
		ClauseWith, ClauseReturn,
		ClauseCreate, ClauseMerge, ClauseSet, ClauseRemove,
	),
	ClauseSet: kinds(
		ClauseWith, ClauseReturn,
		ClauseSet, ClauseRemove, ClauseDelete, ClauseDetachDelete,
	),
	ClauseRemove: kinds(
		ClauseWith, ClauseReturn,
		ClauseSet, ClauseRemove, ClauseDelete, ClauseDetachDelete,
	),
	ClauseDelete: kinds(
		ClauseWith, ClauseReturn, ClauseSet, ClauseRemove,
	),
	ClauseDetachDelete: kinds(
		ClauseWith, ClauseReturn, ClauseSet, ClauseRemove,
	),
	ClauseReturn:  kinds(ClauseOrderBy, ClauseSkip, ClauseLimit),
	ClauseOrderBy: kinds(ClauseSkip, ClauseLimit),
	ClauseSkip:    kinds(ClauseLimit),
	ClauseLimit:   kinds(),
}

func kinds(ks ...ClauseKind) map[ClauseKind]bool {
	set := make(map[ClauseKind]bool, len(ks))
	for _, k := range ks {
		set[k] = true
	}
	return set
}

// CanFollow is the pure transition function: whether next may be emitted
// when the previous clause was prev. prev is ClauseNone for an empty query.
func CanFollow(prev, next ClauseKind) bool {
	allowed, ok := validAfter[prev]
	return ok && allowed[next]
}

// clauseState tracks the clause sequence for one builder. It layers two
// rules on top of the transition table: RETURN at most once per segment
// (WITH starts a new segment) and completion tracking for Build.
type clauseState struct {
	last           ClauseKind
	returnEmitted  bool
	sawAnyClause   bool
	returnAnywhere bool
}

func (s *clauseState) transition(next ClauseKind) error {
	if !CanFollow(s.last, next) {
		return &InvalidClauseOrderError{From: s.last, Attempted: next}
	}
	if next == ClauseWith {
		s.returnEmitted = false
	} else if next == ClauseReturn {
		if s.returnEmitted {
			return &InvalidClauseOrderError{From: s.last, Attempted: next}
		}
		s.returnEmitted = true
		s.returnAnywhere = true
	}
	s.last = next
	s.sawAnyClause = true
	return nil
}

// complete reports whether the clause sequence can legally end here: after
// RETURN (optionally followed by ordering and paging) or a write clause.
func (s *clauseState) complete() bool {
	if !s.sawAnyClause {
		return false
	}
	switch s.last {
	case ClauseReturn:
		return true
	case ClauseOrderBy, ClauseSkip, ClauseLimit:
		return s.returnAnywhere
	default:
		return s.last.IsWrite()
	}
}
