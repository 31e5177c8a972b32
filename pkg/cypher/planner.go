package cypher

import "fmt"

// IndexMeta reports the dimensionality of a configured vector index. It is
// passed into the planner as a value; the planner never reads ambient
// index state.
type IndexMeta interface {
	// DimensionsFor returns the dimensionality of the named index, or
	// false when no such index exists.
	DimensionsFor(index string) (uint, bool)
}

// SimilarityRequest describes one semantic retrieval: the query vector,
// how many candidates to pull, the minimum similarity to keep, and whether
// the vector index may be used.
type SimilarityRequest struct {
	Vector            []float32
	K                 int
	Threshold         float32
	UseIndex          bool
	OrderBySimilarity bool
}

const (
	// beamFactor widens the index beam relative to the requested page
	// size so threshold and structural filtering do not starve results.
	beamFactor = 3

	// beamFloor is the minimum beam width regardless of page size.
	beamFloor = 50
)

// BeamWidth returns the candidate count requested from the index:
// at least k, at least beamFactor times the requested limit, and never
// below beamFloor.
func BeamWidth(k, limit int) int {
	width := k
	if w := beamFactor * limit; w > width {
		width = w
	}
	if width < beamFloor {
		width = beamFloor
	}
	return width
}

// Planner turns a similarity request plus a compiled structural predicate
// into retrieval, projection, and filtering clauses on a builder. It
// chooses between the vector index and an in-query exact-similarity
// fallback.
//
// The fallback computes the inner product of the query vector and each
// stored vector; both are stored pre-normalized, so the inner product is
// the cosine similarity.
type Planner struct {
	// IndexName is the vector index to query, e.g. "memory_embeddings".
	IndexName string

	// Label is the node label scanned by the fallback path.
	Label string

	// VectorProperty is the node property holding the stored vector.
	VectorProperty string

	// Meta supplies index dimensionality for the guard check.
	Meta IndexMeta
}

// Plan emits the retrieval strategy for req onto b: either an index lookup
// with a widened beam or a full-scan similarity projection, followed by
// threshold plus structural filtering, a RETURN of (alias, similarity),
// and a deterministic ORDER BY. limit is the caller's requested page size,
// used only for beam widening; Skip/Limit themselves are the caller's to
// apply.
//
// A request whose vector length differs from the index dimensionality
// fails with DimensionMismatchError before any clause is emitted.
func (p Planner) Plan(b *Builder, req SimilarityRequest, structural Predicate, alias string, limit int) *Builder {
	if b.Err() != nil {
		return b
	}
	if len(req.Vector) == 0 {
		return b.fail(fmt.Errorf("similarity request has no query vector"))
	}

	useIndex := false
	if req.UseIndex {
		dims, ok := p.Meta.DimensionsFor(p.IndexName)
		if ok && int(dims) != len(req.Vector) {
			return b.fail(&DimensionMismatchError{Expected: int(dims), Actual: len(req.Vector)})
		}
		// A missing index is not an error: degrade to the exact path.
		useIndex = ok
	}

	vecParam := b.BindParam(req.Vector)

	if useIndex {
		kParam := b.BindParam(BeamWidth(req.K, limit))
		b.CallYield(
			fmt.Sprintf("db.index.vector.queryNodes('%s', $%s, $%s)", p.IndexName, kParam, vecParam),
			"node", "score",
		)
		b.With(fmt.Sprintf("node AS %s", alias), "score AS similarity")
	} else {
		b.Match(fmt.Sprintf("(%s:%s)", alias, p.Label))
		b.Where(NullCheck{Field: p.VectorProperty, Negated: true}, alias)
		b.With(alias, fmt.Sprintf(
			"reduce(acc = 0.0, i IN range(0, size(%s.%s)-1) | acc + %s.%s[i] * $%s[i]) AS similarity",
			alias, p.VectorProperty, alias, p.VectorProperty, vecParam,
		))
	}

	threshold := And(
		VarComparison{Var: "similarity", Op: ">", Param: b.BindParam(req.Threshold)},
		structural,
	)
	b.Where(threshold, alias)
	b.Return(alias, "similarity")

	if req.OrderBySimilarity {
		// Recency tiebreak keeps pagination stable across identical calls.
		b.OrderBy("similarity DESC", alias+".timestamp DESC", alias+".id ASC")
	} else {
		b.OrderBy(alias+".timestamp DESC", alias+".id ASC")
	}
	return b
}
