package cypher_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/RationallyPrime/found-family/pkg/cypher"
)

var allKinds = []cypher.ClauseKind{
	cypher.ClauseMatch, cypher.ClauseOptionalMatch, cypher.ClauseCall, cypher.ClauseUnwind,
	cypher.ClauseWhere, cypher.ClauseWith,
	cypher.ClauseCreate, cypher.ClauseMerge, cypher.ClauseSet, cypher.ClauseRemove,
	cypher.ClauseDelete, cypher.ClauseDetachDelete,
	cypher.ClauseReturn, cypher.ClauseOrderBy, cypher.ClauseSkip, cypher.ClauseLimit,
}

var _ = Describe("Clause state machine", func() {
	Describe("CanFollow", func() {
		It("yields a deterministic verdict for every clause pair", func() {
			states := append([]cypher.ClauseKind{cypher.ClauseNone}, allKinds...)
			for _, prev := range states {
				for _, next := range allKinds {
					first := cypher.CanFollow(prev, next)
					second := cypher.CanFollow(prev, next)
					Expect(first).To(Equal(second),
						"verdict for %s -> %s must be stable", prev, next)
				}
			}
		})

		It("only admits retrieval and write clauses as start clauses", func() {
			starts := map[cypher.ClauseKind]bool{
				cypher.ClauseMatch:         true,
				cypher.ClauseOptionalMatch: true,
				cypher.ClauseCall:          true,
				cypher.ClauseUnwind:        true,
				cypher.ClauseCreate:        true,
				cypher.ClauseMerge:         true,
			}
			for _, kind := range allKinds {
				Expect(cypher.CanFollow(cypher.ClauseNone, kind)).To(Equal(starts[kind]),
					"start verdict for %s", kind)
			}
		})

		It("rejects every retrieval clause directly after WHERE", func() {
			for _, kind := range allKinds {
				if kind.IsRetrieval() {
					Expect(cypher.CanFollow(cypher.ClauseWhere, kind)).To(BeFalse(),
						"%s must not follow WHERE without a projection", kind)
				}
			}
		})

		It("re-opens retrieval after an intervening WITH", func() {
			Expect(cypher.CanFollow(cypher.ClauseWhere, cypher.ClauseWith)).To(BeTrue())
			Expect(cypher.CanFollow(cypher.ClauseWith, cypher.ClauseMatch)).To(BeTrue())
			Expect(cypher.CanFollow(cypher.ClauseWith, cypher.ClauseCall)).To(BeTrue())
		})

		It("only allows ordering and paging after RETURN", func() {
			allowed := map[cypher.ClauseKind]bool{
				cypher.ClauseOrderBy: true,
				cypher.ClauseSkip:    true,
				cypher.ClauseLimit:   true,
			}
			for _, kind := range allKinds {
				Expect(cypher.CanFollow(cypher.ClauseReturn, kind)).To(Equal(allowed[kind]),
					"verdict for RETURN -> %s", kind)
			}
		})

		It("terminates after LIMIT", func() {
			for _, kind := range allKinds {
				Expect(cypher.CanFollow(cypher.ClauseLimit, kind)).To(BeFalse())
			}
		})

		It("orders paging clauses as SKIP then LIMIT", func() {
			Expect(cypher.CanFollow(cypher.ClauseOrderBy, cypher.ClauseSkip)).To(BeTrue())
			Expect(cypher.CanFollow(cypher.ClauseOrderBy, cypher.ClauseLimit)).To(BeTrue())
			Expect(cypher.CanFollow(cypher.ClauseSkip, cypher.ClauseLimit)).To(BeTrue())
			Expect(cypher.CanFollow(cypher.ClauseLimit, cypher.ClauseSkip)).To(BeFalse())
		})
	})

	Describe("clause kind classification", func() {
		It("classifies retrieval kinds", func() {
			Expect(cypher.ClauseMatch.IsRetrieval()).To(BeTrue())
			Expect(cypher.ClauseCall.IsRetrieval()).To(BeTrue())
			Expect(cypher.ClauseUnwind.IsRetrieval()).To(BeTrue())
			Expect(cypher.ClauseWhere.IsRetrieval()).To(BeFalse())
		})

		It("classifies write kinds", func() {
			Expect(cypher.ClauseCreate.IsWrite()).To(BeTrue())
			Expect(cypher.ClauseDetachDelete.IsWrite()).To(BeTrue())
			Expect(cypher.ClauseReturn.IsWrite()).To(BeFalse())
		})

		It("names every kind", func() {
			for _, kind := range allKinds {
				Expect(kind.String()).NotTo(Equal("UNKNOWN"))
			}
		})
	})
})
