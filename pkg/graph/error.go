package graph

import "errors"

var (
	// ErrConnection is returned when the graph database cannot be reached.
	ErrConnection = errors.New("graph connection failed")

	// ErrQuery is returned when the database rejects or fails a query.
	ErrQuery = errors.New("graph query failed")

	// ErrNotFound is returned when a lookup matches no node.
	ErrNotFound = errors.New("node not found")
)
