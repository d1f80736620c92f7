package core_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archsim/mips5sim/timing/core"
	"github.com/archsim/mips5sim/timing/latency"
)

var _ = Describe("FPMachine", func() {
	It("stalls a WAW hazard in ID until the occupying lane completes", func() {
		m := core.NewFPMachine(1024, 0)
		m.InitExecUnit(latency.INTEGER, 1, 1)
		m.InitExecUnit(latency.ADDER, 4, 1)
		m.InitExecUnit(latency.MULTIPLIER, 2, 1)

		m.SetFPRegister(2, math.Float32bits(2))
		m.SetFPRegister(3, math.Float32bits(3))
		m.SetFPRegister(4, math.Float32bits(10))
		m.SetFPRegister(5, math.Float32bits(1))

		src := "MULTS F1 F2 F3\nADDS F1 F4 F5\nEOP\n"
		path := writeProgram(src)
		Expect(m.LoadProgram(path, 0x0)).To(Succeed())
		Expect(m.Run(0)).To(Succeed())

		Expect(math.Float32frombits(m.GetFPRegister(1))).To(Equal(float32(11)))
		Expect(m.GetStalls()).To(BeNumerically(">=", 1))
	})

	It("imposes a structural stall of exactly the lane latency between two MULTS", func() {
		m := core.NewFPMachine(1024, 0)
		m.InitExecUnit(latency.INTEGER, 1, 1)
		m.InitExecUnit(latency.MULTIPLIER, 3, 1)

		m.SetFPRegister(2, math.Float32bits(2))
		m.SetFPRegister(3, math.Float32bits(3))
		m.SetFPRegister(5, math.Float32bits(4))
		m.SetFPRegister(6, math.Float32bits(5))

		src := "MULTS F1 F2 F3\nMULTS F4 F5 F6\nEOP\n"
		path := writeProgram(src)
		Expect(m.LoadProgram(path, 0x0)).To(Succeed())
		Expect(m.Run(0)).To(Succeed())

		Expect(math.Float32frombits(m.GetFPRegister(1))).To(Equal(float32(6)))
		Expect(math.Float32frombits(m.GetFPRegister(4))).To(Equal(float32(20)))
		Expect(m.GetStalls()).To(Equal(uint64(3)))
	})

	It("runs an empty program in exactly 5 cycles with nothing retired", func() {
		m := core.NewFPMachine(1024, 0)
		m.InitExecUnit(latency.INTEGER, 1, 1)
		Expect(m.LoadProgram(writeProgram("EOP\n"), 0x0)).To(Succeed())
		Expect(m.Run(0)).To(Succeed())

		Expect(m.GetClockCycles()).To(Equal(uint64(5)))
		Expect(m.GetInstructionsExecuted()).To(Equal(uint64(0)))
	})

	It("executes a plain integer ALU program through the INTEGER pool", func() {
		m := core.NewFPMachine(1024, 0)
		m.InitExecUnit(latency.INTEGER, 1, 1)
		src := "ADDI R1 R0 5\nADDI R2 R1 3\nEOP\n"
		Expect(m.LoadProgram(writeProgram(src), 0x0)).To(Succeed())
		Expect(m.Run(0)).To(Succeed())

		Expect(m.GetIntRegister(1)).To(Equal(uint32(5)))
		Expect(m.GetIntRegister(2)).To(Equal(uint32(8)))
	})
})
