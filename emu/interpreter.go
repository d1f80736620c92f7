package emu

import (
	"fmt"
	"math"

	"github.com/archsim/mips5sim/insts"
	"github.com/archsim/mips5sim/simerr"
)

// Interpreter is a straight-line, one-instruction-per-step evaluator of the
// same instruction set the timed pipelines execute. It has no latches, no
// stalls, and no functional-unit pool: every instruction completes before
// the next one starts. It exists as a golden oracle — a pipelined machine's
// final architectural state after a run must match the Interpreter's state
// after interpreting the same program from the same starting registers and
// memory.
type Interpreter struct {
	Int *IntRegFile
	FP  *FPRegFile
	Mem *Memory

	program []*insts.Instruction
	base    uint32

	// Retired counts the non-EOP instructions executed by the last Run.
	Retired uint64
}

// NewInterpreter returns an Interpreter over the given register files and
// memory. The caller owns their lifetime; the Interpreter does not reset
// them.
func NewInterpreter(ints *IntRegFile, fps *FPRegFile, mem *Memory) *Interpreter {
	return &Interpreter{Int: ints, FP: fps, Mem: mem}
}

// LoadProgram installs the instruction sequence, addressed starting at
// baseAddress (a byte address, 4-byte aligned).
func (in *Interpreter) LoadProgram(program []*insts.Instruction, baseAddress uint32) {
	in.program = program
	in.base = baseAddress
}

// Run interprets the program from baseAddress until it retires an EOP,
// updating Int, FP, and Mem in place. It returns the number of
// non-EOP instructions retired.
func (in *Interpreter) Run() (uint64, error) {
	in.Retired = 0
	pc := in.base

	for {
		idx := (pc - in.base) / 4
		if int(idx) < 0 || int(idx) >= len(in.program) {
			return in.Retired, fmt.Errorf("pc 0x%x: %w", pc, simerr.ErrInstructionOutOfRange)
		}
		instr := in.program[idx]
		if instr.Opcode == insts.EOP {
			return in.Retired, nil
		}

		npc := pc + 4
		next, err := in.step(instr, pc, npc)
		if err != nil {
			return in.Retired, err
		}
		in.Retired++
		pc = next
	}
}

func (in *Interpreter) step(instr *insts.Instruction, pc, npc uint32) (uint32, error) {
	switch {
	case instr.Opcode.IsRegRegALU():
		a := in.Int.Read(instr.Src1)
		b := in.Int.Read(instr.Src2)
		in.Int.Set(instr.Dest, intALU(instr.Opcode, a, b))
		return npc, nil

	case instr.Opcode.IsImmediateALU():
		a := in.Int.Read(instr.Src1)
		in.Int.Set(instr.Dest, intALU(aluOpForImmediate(instr.Opcode), a, uint32(instr.Imm)))
		return npc, nil

	case instr.Opcode.IsFPALU():
		a := math.Float32frombits(in.FP.Read(instr.Src1))
		b := math.Float32frombits(in.FP.Read(instr.Src2))
		in.FP.Set(instr.Dest, math.Float32bits(fpALU(instr.Opcode, a, b)))
		return npc, nil

	case instr.Opcode == insts.LW:
		addr := in.Int.Read(instr.Src1) + uint32(instr.Imm)
		v, err := in.Mem.ReadWord(addr)
		if err != nil {
			return 0, err
		}
		in.Int.Set(instr.Dest, v)
		return npc, nil

	case instr.Opcode == insts.SW:
		addr := in.Int.Read(instr.Src1) + uint32(instr.Imm)
		if err := in.Mem.WriteWord(addr, in.Int.Read(instr.Src2)); err != nil {
			return 0, err
		}
		return npc, nil

	case instr.Opcode == insts.LWS:
		addr := in.Int.Read(instr.Src1) + uint32(instr.Imm)
		v, err := in.Mem.ReadWord(addr)
		if err != nil {
			return 0, err
		}
		in.FP.Set(instr.Dest, v)
		return npc, nil

	case instr.Opcode == insts.SWS:
		addr := in.Int.Read(instr.Src1) + uint32(instr.Imm)
		if err := in.Mem.WriteWord(addr, in.FP.Read(instr.Src2)); err != nil {
			return 0, err
		}
		return npc, nil

	case instr.Opcode.IsConditionalBranch():
		if branchTaken(instr.Opcode, in.Int.Read(instr.Src1)) {
			return npc + uint32(instr.Imm), nil
		}
		return npc, nil

	case instr.Opcode == insts.JUMP:
		return npc + uint32(instr.Imm), nil

	case instr.Opcode == insts.NOP:
		return npc, nil

	default:
		return 0, fmt.Errorf("pc 0x%x opcode %s: %w", pc, instr.Opcode, simerr.ErrUnknownMnemonic)
	}
}

// aluOpForImmediate maps an immediate-form opcode onto the register-register
// opcode that shares its ALU operation, so intALU has a single
// implementation for both forms.
func aluOpForImmediate(op insts.Opcode) insts.Opcode {
	switch op {
	case insts.ADDI:
		return insts.ADD
	case insts.SUBI:
		return insts.SUB
	case insts.XORI:
		return insts.XOR
	case insts.ORI:
		return insts.OR
	case insts.ANDI:
		return insts.AND
	default:
		return op
	}
}

func intALU(op insts.Opcode, a, b uint32) uint32 {
	switch op {
	case insts.ADD:
		return a + b
	case insts.SUB:
		return a - b
	case insts.XOR:
		return a ^ b
	case insts.OR:
		return a | b
	case insts.AND:
		return a & b
	case insts.MULT:
		return a * b
	case insts.DIV:
		if b == 0 {
			return 0
		}
		return uint32(int32(a) / int32(b))
	default:
		return 0
	}
}

func fpALU(op insts.Opcode, a, b float32) float32 {
	switch op {
	case insts.ADDS:
		return a + b
	case insts.SUBS:
		return a - b
	case insts.MULTS:
		return a * b
	case insts.DIVS:
		return a / b
	default:
		return 0
	}
}

func branchTaken(op insts.Opcode, v uint32) bool {
	signed := int32(v)
	switch op {
	case insts.BEQZ:
		return signed == 0
	case insts.BNEZ:
		return signed != 0
	case insts.BLTZ:
		return signed < 0
	case insts.BGTZ:
		return signed > 0
	case insts.BLEZ:
		return signed <= 0
	case insts.BGEZ:
		return signed >= 0
	default:
		return false
	}
}
