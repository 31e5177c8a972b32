package cypher_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/RationallyPrime/found-family/pkg/cypher"
)

var _ = Describe("Pagination", func() {
	Describe("PageRequest", func() {
		It("accepts a zero skip", func() {
			Expect(cypher.PageRequest{Skip: 0, Limit: 10}.Validate()).To(Succeed())
		})

		It("rejects negative skip", func() {
			err := cypher.PageRequest{Skip: -1, Limit: 10}.Validate()
			Expect(errors.Is(err, cypher.ErrInvalidPagination)).To(BeTrue())
		})

		It("rejects non-positive limit", func() {
			err := cypher.PageRequest{Skip: 0, Limit: 0}.Validate()
			Expect(errors.Is(err, cypher.ErrInvalidPagination)).To(BeTrue())
		})
	})

	Describe("PageRequestFor", func() {
		It("converts 1-based pages to offsets", func() {
			page, err := cypher.PageRequestFor(3, 25)
			Expect(err).NotTo(HaveOccurred())
			Expect(page).To(Equal(cypher.PageRequest{Skip: 50, Limit: 25}))
		})

		It("rejects page zero", func() {
			_, err := cypher.PageRequestFor(0, 25)
			Expect(errors.Is(err, cypher.ErrInvalidPagination)).To(BeTrue())
		})
	})

	Describe("Paginate", func() {
		newOrdered := func() *cypher.Builder {
			return cypher.NewBuilder().
				Match("(m:Memory)").
				Return("m").
				OrderBy("m.timestamp DESC", "m.id ASC")
		}

		It("binds skip and limit as parameters", func() {
			text, params, err := cypher.Paginate(newOrdered(), cypher.PageRequest{Skip: 20, Limit: 10}).Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(ContainSubstring("SKIP $p0"))
			Expect(text).To(ContainSubstring("LIMIT $p1"))
			Expect(params).To(Equal(map[string]any{"p0": 20, "p1": 10}))
		})

		It("omits SKIP for the first page", func() {
			text, _, err := cypher.Paginate(newOrdered(), cypher.PageRequest{Limit: 10}).Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(text).NotTo(ContainSubstring("SKIP"))
		})

		It("refuses to page an unordered query", func() {
			unordered := cypher.NewBuilder().Match("(m:Memory)").Return("m")
			b := cypher.Paginate(unordered, cypher.PageRequest{Limit: 10})
			Expect(errors.Is(b.Err(), cypher.ErrInvalidPagination)).To(BeTrue())
		})

		It("produces identical windows for identical inputs", func() {
			build := func() (string, map[string]any) {
				text, params, err := cypher.Paginate(newOrdered(), cypher.PageRequest{Skip: 40, Limit: 20}).Build()
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
