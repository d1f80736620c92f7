package pipeline_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archsim/mips5sim/asm"
	"github.com/archsim/mips5sim/emu"
	"github.com/archsim/mips5sim/insts"
	"github.com/archsim/mips5sim/timing/latency"
	"github.com/archsim/mips5sim/timing/pipeline"
)

func mustParse(src string) []*insts.Instruction {
	program, err := asm.Parse(strings.NewReader(src))
	Expect(err).NotTo(HaveOccurred())
	return program
}

var _ = Describe("IntegerEngine", func() {
	It("fetches sequentially and halts exactly 5 cycles after an EOP-only program", func() {
		engine := pipeline.NewIntegerEngine(emu.NewMemory(1024, 0))
		engine.LoadProgram(mustParse("EOP\n"), 0x0)

		var halted bool
		var err error
		for !halted {
			halted, err = engine.Tick()
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(engine.CycleCount).To(Equal(uint64(5)))
	})

	It("redirects IF.PC on a taken branch via MEM.COND", func() {
		src := "ADDI R1 R0 1\nBNEZ R1 L\nADDI R2 R0 99\nL: ADDI R3 R0 7\nEOP\n"
		engine := pipeline.NewIntegerEngine(emu.NewMemory(1024, 0))
		engine.LoadProgram(mustParse(src), 0x0)

		halted := false
		var err error
		for !halted {
			halted, err = engine.Tick()
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(engine.IntRegs.Read(2)).To(Equal(emu.Undefined))
		Expect(engine.IntRegs.Read(3)).To(Equal(uint32(7)))
	})

	It("resets every latch to undefined except COND", func() {
		engine := pipeline.NewIntegerEngine(emu.NewMemory(1024, 0))
		engine.LoadProgram(mustParse("ADDI R1 R0 1\nEOP\n"), 0x0)
		_, err := engine.Tick()
		Expect(err).NotTo(HaveOccurred())

		engine.Reset()
		Expect(engine.Latches[pipeline.MEM].Get(pipeline.COND)).To(Equal(uint32(0)))
		Expect(engine.Latches[pipeline.MEM].Get(pipeline.ALUOutput)).To(Equal(pipeline.Undefined))
		Expect(engine.CycleCount).To(Equal(uint64(0)))
	})
})

var _ = Describe("FPEngine", func() {
	It("issues an EOP with enough drain latency to let in-flight lanes finish first", func() {
		cfg := latency.NewConfig()
		cfg.Add(latency.INTEGER, 1, 1)
		cfg.Add(latency.MULTIPLIER, 3, 1)
		engine := pipeline.NewFPEngine(emu.NewMemory(1024, 0), cfg)
		engine.LoadProgram(mustParse("MULTS F1 F2 F3\nEOP\n"), 0x0)

		halted := false
		var err error
		for !halted {
			halted, err = engine.Tick()
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(engine.InstructionsExecuted).To(Equal(uint64(1)))
	})
})
