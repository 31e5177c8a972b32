package cypher_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/RationallyPrime/found-family/pkg/cypher"
)

// staticIndexMeta is a fixed-value metadata provider for planner tests.
type staticIndexMeta map[string]uint

func (m staticIndexMeta) DimensionsFor(index string) (uint, bool) {
	dims, ok := m[index]
	return dims, ok
}

func testVector(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = 1.0 / float32(n)
	}
	return v
}

var _ = Describe("Planner", func() {
	var planner cypher.Planner

	BeforeEach(func() {
		planner = cypher.Planner{
			IndexName:      "memory_embeddings",
			Label:          "Memory",
			VectorProperty: "embedding",
			Meta:           staticIndexMeta{"memory_embeddings": 4},
		}
	})

	Describe("BeamWidth", func() {
		It("applies the floor when it dominates", func() {
			Expect(cypher.BeamWidth(5, 10)).To(Equal(50))
		})

		It("widens relative to the requested limit", func() {
			Expect(cypher.BeamWidth(5, 40)).To(Equal(120))
		})

		It("never narrows an explicit k", func() {
			Expect(cypher.BeamWidth(500, 10)).To(Equal(500))
		})

		It("is monotone in the requested limit", func() {
			for limit := 1; limit <= 200; limit++ {
				width := cypher.BeamWidth(0, limit)
				Expect(width).To(BeNumerically(">=", 3*limit))
				Expect(width).To(BeNumerically(">=", 50))
			}
		})
	})

	Describe("index strategy", func() {
		It("emits an index CALL with a widened beam and threshold filter", func() {
			b := cypher.NewBuilder()
			req := cypher.SimilarityRequest{
				Vector:            testVector(4),
				K:                 5,
				Threshold:         0.7,
				UseIndex:          true,
				OrderBySimilarity: true,
			}
			structural := cypher.Comparison{Field: "conversation_id", Op: "=", Param: b.BindParam("conv-1")}

			text, params, err := cypher.Paginate(
				planner.Plan(b, req, structural, "m", 10),
				cypher.PageRequest{Limit: 10},
			).Build()

			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(ContainSubstring("CALL db.index.vector.queryNodes('memory_embeddings', $p2, $p1)"))
			Expect(text).To(ContainSubstring("WITH node AS m, score AS similarity"))
			Expect(text).To(ContainSubstring("WHERE (similarity > $p3 AND m.conversation_id = $p0)"))
			Expect(text).To(ContainSubstring("ORDER BY similarity DESC, m.timestamp DESC, m.id ASC"))
			Expect(params).To(HaveKeyWithValue("p2", 50))
			Expect(params).To(HaveKeyWithValue("p3", float32(0.7)))
			Expect(params["p1"]).To(Equal(testVector(4)))
		})

		It("never inlines the vector into query text", func() {
			b := cypher.NewBuilder()
			req := cypher.SimilarityRequest{Vector: testVector(4), K: 5, Threshold: 0.7, UseIndex: true}

			text, _, err := cypher.Paginate(
				planner.Plan(b, req, cypher.True(), "m", 10),
				cypher.PageRequest{Limit: 10},
			).Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(text).NotTo(ContainSubstring("0.25"))
		})
	})

	Describe("dimension guard", func() {
		It("fails before emitting text when vector length differs from the index", func() {
			meta := staticIndexMeta{"memory_embeddings": 1024}
			planner.Meta = meta

			b := cypher.NewBuilder()
			req := cypher.SimilarityRequest{Vector: testVector(1536), K: 5, Threshold: 0.7, UseIndex: true}
			planner.Plan(b, req, cypher.True(), "m", 10)

			var dimErr *cypher.DimensionMismatchError
			Expect(errors.As(b.Err(), &dimErr)).To(BeTrue())
			Expect(dimErr.Expected).To(Equal(1024))
			Expect(dimErr.Actual).To(Equal(1536))

			_, _, err := b.Build()
			Expect(err).To(Equal(b.Err()))
		})

		It("rejects an empty query vector", func() {
			b := cypher.NewBuilder()
			planner.Plan(b, cypher.SimilarityRequest{K: 5}, cypher.True(), "m", 10)
			Expect(b.Err()).To(HaveOccurred())
		})
	})

	Describe("exact-similarity fallback", func() {
		It("computes the inner product in a projection when the index is absent", func() {
			planner.Meta = staticIndexMeta{}

			b := cypher.NewBuilder()
			req := cypher.SimilarityRequest{
				Vector:            testVector(4),
				K:                 5,
				Threshold:         0.7,
				UseIndex:          true,
				OrderBySimilarity: true,
			}

			text, _, err := cypher.Paginate(
				planner.Plan(b, req, cypher.True(), "m", 10),
				cypher.PageRequest{Limit: 10},
			).Build()

			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(ContainSubstring("MATCH (m:Memory)"))
			Expect(text).To(ContainSubstring("WHERE m.embedding IS NOT NULL"))
			Expect(text).To(ContainSubstring("reduce(acc = 0.0, i IN range(0, size(m.embedding)-1) | acc + m.embedding[i] * $p0[i]) AS similarity"))
			Expect(text).To(ContainSubstring("WHERE similarity > $p1"))
			Expect(text).NotTo(ContainSubstring("queryNodes"))
		})

		It("uses the fallback when the caller declines the index", func() {
			b := cypher.NewBuilder()
			req := cypher.SimilarityRequest{Vector: testVector(4), K: 5, Threshold: 0.7, UseIndex: false}

			text, _, err := cypher.Paginate(
				planner.Plan(b, req, cypher.True(), "m", 10),
				cypher.PageRequest{Limit: 10},
			).Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(text).NotTo(ContainSubstring("queryNodes"))
		})
	})

	Describe("determinism", func() {
		It("produces identical plans for identical requests", func() {
			build := func() (string, map[string]any) {
				b := cypher.NewBuilder()
				pred, err := cypher.CompileFilter(map[string]any{
					"salience__gte": 0.5,
					"$or": []any{
						map[string]any{"topic_id": 3},
						map[string]any{"topic_id": 7},
					},
				}, b.Params())
				Expect(err).NotTo(HaveOccurred())

				req := cypher.SimilarityRequest{
					Vector: testVector(4), K: 5, Threshold: 0.7,
					UseIndex: true, OrderBySimilarity: true,
				}
				text, params, err := cypher.Paginate(
					planner.Plan(b, req, pred, "m", 10),
					cypher.PageRequest{Skip: 20, Limit: 10},
				).Build()
				Expect(err).NotTo(HaveOccurred())
				return text, params
			}

			text1, params1 := build()
			text2, params2 := build()
			Expect(text1).To(Equal(text2))
			Expect(params1).To(Equal(params2))
		})
	})
})
