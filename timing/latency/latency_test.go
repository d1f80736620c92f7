package latency_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archsim/mips5sim/insts"
	"github.com/archsim/mips5sim/timing/latency"
)

func TestLatency(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Latency Suite")
}

var _ = Describe("Config", func() {
	It("accumulates lanes across multiple Add calls", func() {
		cfg := latency.NewConfig()
		cfg.Add(latency.ADDER, 2, 1)
		cfg.Add(latency.ADDER, 4, 1)
		Expect(cfg.TotalLanes(latency.ADDER)).To(Equal(uint32(2)))
		Expect(cfg.Units[latency.ADDER]).To(HaveLen(2))
	})

	It("starts with no lanes in any unit class", func() {
		cfg := latency.NewConfig()
		Expect(cfg.TotalLanes(latency.INTEGER)).To(Equal(uint32(0)))
	})

	It("rejects a zero latency on Validate", func() {
		cfg := latency.NewConfig()
		cfg.Add(latency.MULTIPLIER, 0, 1)
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("uses the latest Add call's latency as the nominal latency", func() {
		cfg := latency.NewConfig()
		cfg.Add(latency.ADDER, 2, 1)
		cfg.Add(latency.ADDER, 4, 1)
		Expect(cfg.NominalLatency(latency.ADDER)).To(Equal(uint32(4)))
	})

	It("reports zero nominal latency for an unconfigured unit", func() {
		cfg := latency.NewConfig()
		Expect(cfg.NominalLatency(latency.DIVIDER)).To(Equal(uint32(0)))
	})
})

var _ = Describe("UnitForOpcode", func() {
	DescribeTable("maps opcodes to their functional-unit class",
		func(op insts.Opcode, want latency.Unit) {
			Expect(latency.UnitForOpcode(op)).To(Equal(want))
		},
		Entry("ADD", insts.ADD, latency.INTEGER),
		Entry("LW", insts.LW, latency.INTEGER),
		Entry("BEQZ", insts.BEQZ, latency.INTEGER),
		Entry("ADDS", insts.ADDS, latency.ADDER),
		Entry("SUBS", insts.SUBS, latency.ADDER),
		Entry("MULT", insts.MULT, latency.MULTIPLIER),
		Entry("MULTS", insts.MULTS, latency.MULTIPLIER),
		Entry("DIV", insts.DIV, latency.DIVIDER),
		Entry("DIVS", insts.DIVS, latency.DIVIDER),
	)
})
