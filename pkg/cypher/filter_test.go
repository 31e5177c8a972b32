package cypher_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/RationallyPrime/found-family/pkg/cypher"
)

var _ = Describe("CompileFilter", func() {
	var bag *cypher.ParamBag

	BeforeEach(func() {
		bag = cypher.NewParamBag()
	})

	Describe("empty expressions", func() {
		It("compiles nil to the always-true predicate", func() {
			pred, err := cypher.CompileFilter(nil, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(cypher.IsAlwaysTrue(pred)).To(BeTrue())
			Expect(bag.Len()).To(BeZero())
		})

		It("compiles an empty map to the always-true predicate", func() {
			pred, err := cypher.CompileFilter(map[string]any{}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(cypher.IsAlwaysTrue(pred)).To(BeTrue())
		})
	})

	Describe("simple fields", func() {
		It("compiles bare fields to parameterized equality", func() {
			pred, err := cypher.CompileFilter(map[string]any{"conversation_id": "conv-1"}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Render("m")).To(Equal("m.conversation_id = $p0"))
			Expect(bag.Values()).To(HaveKeyWithValue("p0", "conv-1"))
		})

		It("compiles nil values to IS NULL", func() {
			pred, err := cypher.CompileFilter(map[string]any{"topic_id": nil}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Render("m")).To(Equal("m.topic_id IS NULL"))
			Expect(bag.Len()).To(BeZero())
		})

		It("compiles ne with nil to IS NOT NULL", func() {
			pred, err := cypher.CompileFilter(map[string]any{"topic_id__ne": nil}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Render("m")).To(Equal("m.topic_id IS NOT NULL"))
		})
	})

	Describe("comparison operators", func() {
		It("compiles the documented operator set", func() {
			pred, err := cypher.CompileFilter(map[string]any{"salience__gte": 0.8}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Render("m")).To(Equal("m.salience >= $p0"))

			pred, err = cypher.CompileFilter(map[string]any{"salience__lt": 0.2}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Render("m")).To(ContainSubstring("m.salience <"))

			pred, err = cypher.CompileFilter(map[string]any{"content__contains": "tea"}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Render("m")).To(ContainSubstring("m.content CONTAINS $"))
		})

		It("rejects unknown operators instead of degrading silently", func() {
			_, err := cypher.CompileFilter(map[string]any{"salience__between": []any{0.1, 0.9}}, bag)
			var opErr *cypher.UnsupportedOperatorError
			Expect(errors.As(err, &opErr)).To(BeTrue())
			Expect(opErr.Field).To(Equal("salience"))
			Expect(opErr.Operator).To(Equal("between"))
		})
	})

	Describe("membership and overlap", func() {
		It("compiles in to a single list parameter", func() {
			pred, err := cypher.CompileFilter(map[string]any{"topic_id__in": []any{1, 2, 3}}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Render("m")).To(Equal("m.topic_id IN $p0"))
			Expect(bag.Values()["p0"]).To(Equal([]any{1, 2, 3}))
		})

		It("compiles overlap to an any() scan over one bound list", func() {
			pred, err := cypher.CompileFilter(map[string]any{"tags__overlap": []string{"a", "b"}}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Render("m")).To(Equal("any(x IN $p0 WHERE x IN m.tags)"))
			Expect(bag.Values()["p0"]).To(Equal([]string{"a", "b"}))
		})

		It("rejects scalar values for list operators", func() {
			_, err := cypher.CompileFilter(map[string]any{"tags__overlap": "a"}, bag)
			var shapeErr *cypher.InvalidShapeError
			Expect(errors.As(err, &shapeErr)).To(BeTrue())

			_, err = cypher.CompileFilter(map[string]any{"topic_id__in": 3}, bag)
			Expect(errors.As(err, &shapeErr)).To(BeTrue())
		})
	})

	Describe("prefix matching", func() {
		It("binds prefix length and value as separate parameters", func() {
			pred, err := cypher.CompileFilter(map[string]any{"content__startswith": "remember"}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Render("m")).To(Equal("left(m.content, $p0) = $p1"))
			Expect(bag.Values()).To(HaveKeyWithValue("p0", 8))
			Expect(bag.Values()).To(HaveKeyWithValue("p1", "remember"))
		})

		It("rejects non-string prefixes", func() {
			_, err := cypher.CompileFilter(map[string]any{"content__startswith": 42}, bag)
			var shapeErr *cypher.InvalidShapeError
			Expect(errors.As(err, &shapeErr)).To(BeTrue())
		})
	})

	Describe("boolean groups", func() {
		It("compiles nested or groups with deterministic parameter order", func() {
			pred, err := cypher.CompileFilter(map[string]any{
				"salience__gte": 0.8,
				"$or": []any{
					map[string]any{"topic_id": 3},
					map[string]any{"topic_id": 7},
				},
			}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Render("m")).To(Equal("(m.salience >= $p0 AND (m.topic_id = $p1 OR m.topic_id = $p2))"))
			Expect(bag.Values()).To(Equal(map[string]any{"p0": 0.8, "p1": 3, "p2": 7}))
		})

		It("compiles an empty and group to the AND identity", func() {
			pred, err := cypher.CompileFilter(map[string]any{"$and": []any{}}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(cypher.IsAlwaysTrue(pred)).To(BeTrue())
		})

		It("compiles an empty or group to the OR identity", func() {
			pred, err := cypher.CompileFilter(map[string]any{"$or": []any{}}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(cypher.IsAlwaysFalse(pred)).To(BeTrue())
		})

		It("keeps the identities algebraically safe under combination", func() {
			empty, err := cypher.CompileFilter(map[string]any{"$and": []any{}}, bag)
			Expect(err).NotTo(HaveOccurred())
			known := cypher.Comparison{Field: "salience", Op: ">", Param: bag.Add(0.5)}

			combined := cypher.And(empty, known)
			Expect(combined.Render("m")).To(Equal(known.Render("m")))

			emptyOr, err := cypher.CompileFilter(map[string]any{"$or": []any{}}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(cypher.Or(emptyOr, known).Render("m")).To(Equal(known.Render("m")))
			Expect(cypher.IsAlwaysFalse(cypher.And(emptyOr, known))).To(BeTrue())
		})

		It("rejects group values that are not lists", func() {
			_, err := cypher.CompileFilter(map[string]any{"$or": map[string]any{"topic_id": 3}}, bag)
			var shapeErr *cypher.InvalidShapeError
			Expect(errors.As(err, &shapeErr)).To(BeTrue())
			Expect(shapeErr.Key).To(Equal("$or"))
		})

		It("rejects group elements that are not expressions", func() {
			_, err := cypher.CompileFilter(map[string]any{"$and": []any{"topic_id = 3"}}, bag)
			var shapeErr *cypher.InvalidShapeError
			Expect(errors.As(err, &shapeErr)).To(BeTrue())
		})

		It("rejects unknown group markers", func() {
			_, err := cypher.CompileFilter(map[string]any{"$not": []any{}}, bag)
			var shapeErr *cypher.InvalidShapeError
			Expect(errors.As(err, &shapeErr)).To(BeTrue())
		})
	})

	Describe("injection safety", func() {
		adversarial := []string{
			`' OR 1=1 --`,
			`"; MATCH (n) DETACH DELETE n; //`,
			"}) DETACH DELETE m //",
			"value'with\"quotes\nand\tcontrol",
		}

		It("never places a caller value into rendered text", func() {
			for _, hostile := range adversarial {
				localBag := cypher.NewParamBag()
				pred, err := cypher.CompileFilter(map[string]any{
					"content":             hostile,
					"content__contains":   hostile,
					"content__startswith": hostile,
				}, localBag)
				Expect(err).NotTo(HaveOccurred())

				rendered := pred.Render("m")
				Expect(rendered).NotTo(ContainSubstring(hostile))
				Expect(localBag.Values()).To(ContainElement(hostile))
			}
		})
	})

	Describe("parameter deduplication", func() {
		It("reuses one parameter for identical scalar literals", func() {
			pred, err := cypher.CompileFilter(map[string]any{
				"speaker":                "friend",
				"memory_type__ne":        "friend",
				"conversation_id__ne":    "conv-9",
				"source_conversation_id": "conv-9",
			}, bag)
			Expect(err).NotTo(HaveOccurred())
			Expect(bag.Len()).To(Equal(2))
			Expect(pred.Render("m")).NotTo(BeEmpty())
		})
	})
})
