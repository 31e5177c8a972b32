package cypher

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyFinalized is returned when a builder is mutated or built
	// again after Build has been called.
	ErrAlreadyFinalized = errors.New("query builder already finalized")

	// ErrEmptyQuery is returned when Build is called before any clause
	// has been emitted.
	ErrEmptyQuery = errors.New("query has no clauses")

	// ErrIncompleteQuery is returned when Build is called on a query that
	// does not end with RETURN or a write clause.
	ErrIncompleteQuery = errors.New("query is incomplete: must end with RETURN or a write clause")

	// ErrInvalidPagination is returned for skip < 0 or limit <= 0.
	ErrInvalidPagination = errors.New("invalid pagination bounds")
)

// UnsupportedOperatorError indicates a filter expression used an operator
// suffix the compiler does not know.
type UnsupportedOperatorError struct {
	Field    string
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported filter operator %q on field %q", e.Operator, e.Field)
}

// InvalidShapeError indicates a malformed filter expression, such as a
// boolean group whose value is not a list of sub-expressions.
type InvalidShapeError struct {
	Key    string
	Reason string
}

func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("invalid filter shape at %q: %s", e.Key, e.Reason)
}

// InvalidClauseOrderError indicates a clause emission that the state
// machine rejected. From is ClauseNone when the query is still empty.
type InvalidClauseOrderError struct {
	From      ClauseKind
	Attempted ClauseKind
}

func (e *InvalidClauseOrderError) Error() string {
	if e.From == ClauseNone {
		return fmt.Sprintf("query cannot start with %s", e.Attempted)
	}
	return fmt.Sprintf("cannot add %s after %s", e.Attempted, e.From)
}

// DimensionMismatchError indicates a similarity request whose vector length
// does not match the configured index dimensionality. It is raised before
// any query text is emitted.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: index expects %d, got %d", e.Expected, e.Actual)
}
