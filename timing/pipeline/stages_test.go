package pipeline

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archsim/mips5sim/insts"
)

var _ = Describe("intALU", func() {
	DescribeTable("computes the integer result for each ALU opcode",
		func(op insts.Opcode, a, b, want uint32) {
			Expect(intALU(op, a, b)).To(Equal(want))
		},
		Entry("ADD", insts.ADD, uint32(2), uint32(3), uint32(5)),
		Entry("SUB", insts.SUB, uint32(5), uint32(3), uint32(2)),
		Entry("XOR", insts.XOR, uint32(0b110), uint32(0b011), uint32(0b101)),
		Entry("AND", insts.AND, uint32(0b110), uint32(0b011), uint32(0b010)),
		Entry("OR", insts.OR, uint32(0b110), uint32(0b011), uint32(0b111)),
		Entry("MULT", insts.MULT, uint32(4), uint32(5), uint32(20)),
		Entry("DIV", insts.DIV, uint32(10), uint32(3), uint32(3)),
	)
})

var _ = Describe("fpALU", func() {
	It("adds by default", func() {
		a := math.Float32bits(2)
		b := math.Float32bits(3)
		Expect(math.Float32frombits(fpALU(insts.ADDS, a, b))).To(Equal(float32(5)))
	})

	It("multiplies for MULTS", func() {
		a := math.Float32bits(2)
		b := math.Float32bits(3)
		Expect(math.Float32frombits(fpALU(insts.MULTS, a, b))).To(Equal(float32(6)))
	})
})

var _ = Describe("branchTaken", func() {
	DescribeTable("evaluates the branch predicate",
		func(op insts.Opcode, v uint32, want bool) {
			Expect(branchTaken(op, v)).To(Equal(want))
		},
		Entry("BEQZ true", insts.BEQZ, uint32(0), true),
		Entry("BEQZ false", insts.BEQZ, uint32(1), false),
		Entry("BNEZ true", insts.BNEZ, uint32(1), true),
		Entry("BLTZ true", insts.BLTZ, uint32(0xFFFFFFFF), true),
		Entry("BGTZ true", insts.BGTZ, uint32(1), true),
		Entry("non-branch opcode never taken", insts.ADD, uint32(0), false),
	)
})

var _ = Describe("addressGen", func() {
	It("adds a positive displacement", func() {
		Expect(addressGen(100, 4)).To(Equal(uint32(104)))
	})

	It("subtracts a negative displacement", func() {
		Expect(addressGen(100, -4)).To(Equal(uint32(96)))
	})
})
