// Package pipeline implements the five-stage pipeline engine shared by the
// integer and floating-point machine variants: the per-stage latches, the
// hazard detector, the stage procedures, and the reverse-order driver.
package pipeline

import (
	"github.com/archsim/mips5sim/emu"
	"github.com/archsim/mips5sim/insts"
)

// IntegerEngine runs the integer-only variant of the pipeline: a
// single-cycle EX stage with no functional-unit pool. It has no
// out-of-order completion, no latency collision, and no WAW hazard class —
// every instruction that issues past RAW and control hazards completes EX
// on the very next cycle.
type IntegerEngine struct {
	*Datapath
}

// NewIntegerEngine builds an integer-variant engine over the given data
// memory.
func NewIntegerEngine(mem *emu.Memory) *IntegerEngine {
	return &IntegerEngine{Datapath: newDatapath(mem)}
}

// LoadProgram installs program starting at base and resets IF.PC to it.
func (e *IntegerEngine) LoadProgram(program []*insts.Instruction, base uint32) {
	e.loadProgram(program, base)
}

// Reset clears memory, register files, and every latch, per the driver
// contract.
func (e *IntegerEngine) Reset() {
	e.reset()
}

// Tick advances the engine by exactly one cycle, evaluating stages from WB
// back to IF so each stage reads the latch contents its upstream neighbor
// produced last cycle. Returns true if WB retired an EOP — that cycle is
// counted but no other stage runs in it, and the caller should stop
// running.
func (e *IntegerEngine) Tick() (bool, error) {
	if e.wb() {
		e.Halted = true
		e.CycleCount++
		return true, nil
	}

	busy, err := e.mem()
	if err != nil {
		return false, err
	}
	if !busy {
		e.ex()
		stall := e.id()
		if err := e.fetch(stall); err != nil {
			return false, err
		}
	}

	e.CycleCount++
	return false, nil
}

// id runs ID for the integer variant: RAW check, then control-pending
// check, with no functional-unit classes to consult.
func (e *IntegerEngine) id() bool {
	instr := e.Latches[ID].Instr
	e.Latches[EX].Set(NPC, e.Latches[ID].Get(NPC))

	if e.srcBusy(instr) {
		e.StallCount++
		e.Latches[EX].Bubble()
		return true
	}

	if controlPending(instr, e.Latches[EX].Instr, nil) {
		e.Latches[ID].Bubble()
		if instr.Opcode != insts.EOP {
			e.StallCount++
		}
		e.Latches[EX].Instr = instr
		e.issueOperands(instr)
		return true
	}

	e.issueOperands(instr)
	e.Latches[EX].Instr = instr
	return instr.Opcode == insts.EOP
}

// ex runs EX for the integer variant: one cycle of ALU/address/branch
// computation, writing MEM directly.
func (e *IntegerEngine) ex() {
	instr := e.Latches[EX].Instr

	e.Latches[MEM].Clear()
	e.Latches[MEM].Set(B, e.Latches[EX].Get(B))

	a := e.Latches[EX].Get(A)
	b := e.Latches[EX].Get(B)
	imm := e.Latches[EX].Get(IMM)
	npc := e.Latches[EX].Get(NPC)

	switch {
	case instr.Opcode.IsRegRegALU():
		e.Latches[MEM].Set(ALUOutput, intALU(instr.Opcode, a, b))

	case instr.Opcode.IsImmediateALU():
		e.Latches[MEM].Set(ALUOutput, intALU(instr.Opcode, a, imm))

	case instr.Opcode.IsLoad(), instr.Opcode.IsStore():
		e.Latches[MEM].Set(ALUOutput, addressGen(a, int32(imm)))

	case instr.Opcode.IsConditionalBranch():
		e.Latches[MEM].Set(ALUOutput, intALU(instr.Opcode, npc, imm))
		if branchTaken(instr.Opcode, a) {
			e.Latches[MEM].Set(COND, 1)
		}

	case instr.Opcode == insts.JUMP:
		e.Latches[MEM].Set(ALUOutput, intALU(instr.Opcode, npc, imm))
		e.Latches[MEM].Set(COND, 1)
	}

	e.Latches[MEM].Instr = instr
	e.memCountdown = e.Mem.Latency()
}
