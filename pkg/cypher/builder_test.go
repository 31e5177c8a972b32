package cypher_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/RationallyPrime/found-family/pkg/cypher"
)

var _ = Describe("Builder", func() {
	It("renders a read query in clause order with parameterized paging", func() {
		b := cypher.NewBuilder()
		pred, err := cypher.CompileFilter(map[string]any{"conversation_id": "conv-1"}, b.Params())
		Expect(err).NotTo(HaveOccurred())

		text, params, err := b.
			Match("(m:Memory)").
			Where(pred, "m").
			Return("m").
			OrderBy("m.timestamp DESC").
			Skip(10).
			Limit(5).
			Build()

		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("MATCH (m:Memory)\nWHERE m.conversation_id = $p0\nRETURN m\nORDER BY m.timestamp DESC\nSKIP $p1\nLIMIT $p2"))
		Expect(params).To(Equal(map[string]any{"p0": "conv-1", "p1": 10, "p2": 5}))
	})

	It("round-trips a valid clause sequence without order errors", func() {
		b := cypher.NewBuilder()
		_, _, err := b.
			Match("(m:Memory)").
			Where(cypher.NullCheck{Field: "topic_id", Negated: true}, "m").
			With("m").
			Match("(m)-[:FOLLOWED_BY]->(next)").
			Return("m", "next").
			Build()
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects retrieval directly after filtering, naming both states", func() {
		b := cypher.NewBuilder().
			Match("(m:Memory)").
			Where(cypher.NullCheck{Field: "topic_id"}, "m").
			Match("(m)-[:FOLLOWED_BY]->(next)")

		var orderErr *cypher.InvalidClauseOrderError
		Expect(errors.As(b.Err(), &orderErr)).To(BeTrue())
		Expect(orderErr.From).To(Equal(cypher.ClauseWhere))
		Expect(orderErr.Attempted).To(Equal(cypher.ClauseMatch))

		_, _, err := b.Build()
		Expect(err).To(Equal(b.Err()))
	})

	It("rejects a query that starts with WHERE", func() {
		b := cypher.NewBuilder().Where(cypher.NullCheck{Field: "topic_id"}, "m")

		var orderErr *cypher.InvalidClauseOrderError
		Expect(errors.As(b.Err(), &orderErr)).To(BeTrue())
		Expect(orderErr.From).To(Equal(cypher.ClauseNone))
	})

	It("skips the WHERE clause for an always-true predicate", func() {
		text, _, err := cypher.NewBuilder().
			Match("(m:Memory)").
			Where(cypher.True(), "m").
			Return("m").
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).NotTo(ContainSubstring("WHERE"))
	})

	It("renders an always-false predicate so the query matches nothing", func() {
		text, _, err := cypher.NewBuilder().
			Match("(m:Memory)").
			Where(cypher.False(), "m").
			Return("m").
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(ContainSubstring("WHERE false"))
	})

	It("is terminal after Build", func() {
		b := cypher.NewBuilder().Match("(m:Memory)").Return("m")
		_, _, err := b.Build()
		Expect(err).NotTo(HaveOccurred())

		_, _, err = b.Build()
		Expect(err).To(MatchError(cypher.ErrAlreadyFinalized))

		b.Match("(n:Memory)")
		Expect(b.Err()).To(MatchError(cypher.ErrAlreadyFinalized))
	})

	It("fails an empty build", func() {
		_, _, err := cypher.NewBuilder().Build()
		Expect(err).To(MatchError(cypher.ErrEmptyQuery))
	})

	It("fails an incomplete build", func() {
		_, _, err := cypher.NewBuilder().Match("(m:Memory)").Build()
		Expect(err).To(MatchError(cypher.ErrIncompleteQuery))
	})

	It("allows at most one RETURN per segment", func() {
		b := cypher.NewBuilder().
			Match("(m:Memory)").
			Return("m").
			Return("m")
		Expect(b.Err()).To(HaveOccurred())
	})

	It("binds SET values through the bag in sorted property order", func() {
		b := cypher.NewBuilder()
		idParam := b.BindParam("mem-1")
		text, params, err := b.
			Match("(m:Memory {id: $" + idParam + "})").
			Set("m", map[string]any{"salience": 0.9, "content": "updated"}).
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(ContainSubstring("SET m.content = $p1, m.salience = $p2"))
		Expect(params).To(HaveKeyWithValue("p0", "mem-1"))
		Expect(params).To(HaveKeyWithValue("p1", "updated"))
		Expect(params).To(HaveKeyWithValue("p2", 0.9))
	})

	It("rejects negative skip and non-positive limit", func() {
		b := cypher.NewBuilder().Match("(m:Memory)").Return("m").OrderBy("m.id").Skip(-1)
		Expect(errors.Is(b.Err(), cypher.ErrInvalidPagination)).To(BeTrue())

		b = cypher.NewBuilder().Match("(m:Memory)").Return("m").OrderBy("m.id").Limit(0)
		Expect(errors.Is(b.Err(), cypher.ErrInvalidPagination)).To(BeTrue())
	})

	It("writes a delete query ending in a write clause", func() {
		b := cypher.NewBuilder()
		idParam := b.BindParam("mem-1")
		text, params, err := b.
			Match("(m:Memory {id: $" + idParam + "})").
			DetachDelete("m").
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(ContainSubstring("DETACH DELETE m"))
		Expect(params).To(HaveKeyWithValue("p0", "mem-1"))
	})
})
