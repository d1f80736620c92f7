package emu_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archsim/mips5sim/emu"
	"github.com/archsim/mips5sim/insts"
)

var _ = Describe("Interpreter", func() {
	var (
		ints *emu.IntRegFile
		fps  *emu.FPRegFile
		mem  *emu.Memory
		in   *emu.Interpreter
	)

	BeforeEach(func() {
		ints = emu.NewIntRegFile()
		fps = emu.NewFPRegFile()
		mem = emu.NewMemory(256, 1)
		in = emu.NewInterpreter(ints, fps, mem)
	})

	It("executes a straight-line ADDI chain", func() {
		program := []*insts.Instruction{
			{Opcode: insts.ADDI, Dest: 1, Src1: 0, Imm: 5},
			{Opcode: insts.ADDI, Dest: 2, Src1: 1, Imm: 10},
			{Opcode: insts.EOP},
		}
		in.LoadProgram(program, 0)

		retired, err := in.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(retired).To(Equal(uint64(2)))
		Expect(ints.Read(1)).To(Equal(uint32(5)))
		Expect(ints.Read(2)).To(Equal(uint32(15)))
	})

	It("takes a backward branch", func() {
		ints.Set(1, 3)
		program := []*insts.Instruction{
			{Opcode: insts.ADDI, Dest: 1, Src1: 1, Imm: -1},    // 0
			{Opcode: insts.BNEZ, Src1: 1, Imm: -8},             // 1: back to 0
			{Opcode: insts.EOP},                                // 2
		}
		in.LoadProgram(program, 0)

		_, err := in.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(ints.Read(1)).To(Equal(uint32(0)))
	})

	It("executes a load/store round trip", func() {
		ints.Set(1, 100)
		program := []*insts.Instruction{
			{Opcode: insts.SW, Src1: 0, Src2: 1, Imm: 8},
			{Opcode: insts.LW, Dest: 2, Src1: 0, Imm: 8},
			{Opcode: insts.EOP},
		}
		in.LoadProgram(program, 0)

		_, err := in.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(ints.Read(2)).To(Equal(uint32(100)))
	})

	It("executes FP arithmetic on IEEE-754 bit patterns", func() {
		fps.Set(1, math.Float32bits(1.5))
		fps.Set(2, math.Float32bits(2.5))
		program := []*insts.Instruction{
			{Opcode: insts.ADDS, Dest: 3, Src1: 1, Src2: 2},
			{Opcode: insts.EOP},
		}
		in.LoadProgram(program, 0)

		_, err := in.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(math.Float32frombits(fps.Read(3))).To(Equal(float32(4)))
	})
})
