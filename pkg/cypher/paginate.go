package cypher

import "fmt"

// PageRequest is an offset/limit window over an ordered result set.
type PageRequest struct {
	Skip  int
	Limit int
}

// Validate checks the pagination invariants: skip >= 0, limit > 0.
func (p PageRequest) Validate() error {
	if p.Skip < 0 {
		return fmt.Errorf("%w: skip %d", ErrInvalidPagination, p.Skip)
	}
	if p.Limit <= 0 {
		return fmt.Errorf("%w: limit %d", ErrInvalidPagination, p.Limit)
	}
	return nil
}

// PageRequestFor converts 1-based page numbering into an offset window.
func PageRequestFor(page, pageSize int) (PageRequest, error) {
	if page < 1 {
		return PageRequest{}, fmt.Errorf("%w: page %d", ErrInvalidPagination, page)
	}
	if pageSize < 1 {
		return PageRequest{}, fmt.Errorf("%w: page size %d", ErrInvalidPagination, pageSize)
	}
	return PageRequest{Skip: (page - 1) * pageSize, Limit: pageSize}, nil
}

// Paginate applies the window to a builder whose query already carries an
// ORDER BY. Paging an unordered query is treated as a correctness bug, not
// a convenience: Paginate rejects it even though the raw clause grammar
// would accept SKIP directly after RETURN. Both bounds are bound as
// parameters. A zero skip emits no SKIP clause.
func Paginate(b *Builder, page PageRequest) *Builder {
	if b.Err() != nil {
		return b
	}
	if err := page.Validate(); err != nil {
		return b.fail(err)
	}
	if b.state.last != ClauseOrderBy {
		return b.fail(fmt.Errorf("%w: pagination requires an ORDER BY clause", ErrInvalidPagination))
	}
	if page.Skip > 0 {
		b.Skip(page.Skip)
	}
	return b.Limit(page.Limit)
}
