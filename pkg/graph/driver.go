// Package graph defines the execution boundary between compiled query
// plans and the property-graph database.
package graph

import "context"

// Record is one opaque result row: column name to value. Graph nodes are
// flattened to their property maps by the driver so callers never touch
// driver-internal types.
type Record map[string]any

// Driver executes finalized (text, params) query plans. Implementations
// bind params through the database's parameterized-execution call; the
// query engine guarantees the text contains no literal values.
type Driver interface {
	// Execute runs a read query and returns its rows.
	Execute(ctx context.Context, text string, params map[string]any) ([]Record, error)

	// ExecuteWrite runs a mutating query and returns any rows it yields.
	ExecuteWrite(ctx context.Context, text string, params map[string]any) ([]Record, error)

	// Close releases the underlying connection pool.
	Close(ctx context.Context) error
}

// IndexDimensions is an immutable snapshot of the known vector indexes and
// their dimensionality. It is fetched once and passed by value to whoever
// plans similarity queries, so there is no ambient index-metadata state.
type IndexDimensions map[string]uint

// DimensionsFor returns the dimensionality of the named index.
func (m IndexDimensions) DimensionsFor(index string) (uint, bool) {
	dims, ok := m[index]
	return dims, ok
}
