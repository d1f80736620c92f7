package pipeline

import (
	"fmt"

	"github.com/archsim/mips5sim/emu"
	"github.com/archsim/mips5sim/insts"
	"github.com/archsim/mips5sim/simerr"
	"github.com/archsim/mips5sim/timing/latency"
)

// FPEngine runs the floating-point-extended variant of the pipeline. Its EX
// stage does not complete in one cycle: it issues into a functional-unit
// lane pool and collects whichever lane completes this cycle, so
// instructions can finish out of issue order across different unit
// classes.
type FPEngine struct {
	*Datapath
	Bank *FUBank
}

// NewFPEngine builds an FP-variant engine over the given data memory and
// functional-unit configuration.
func NewFPEngine(mem *emu.Memory, cfg *latency.Config) *FPEngine {
	return &FPEngine{
		Datapath: newDatapath(mem),
		Bank:     NewFUBank(cfg),
	}
}

// LoadProgram installs program starting at base and resets IF.PC to it.
func (e *FPEngine) LoadProgram(program []*insts.Instruction, base uint32) {
	e.loadProgram(program, base)
}

// Reset clears memory, register files, every latch, and every FU lane.
func (e *FPEngine) Reset() {
	e.reset()
	for _, unit := range []latency.Unit{latency.INTEGER, latency.ADDER, latency.MULTIPLIER, latency.DIVIDER} {
		if p := e.Bank.pool(unit); p != nil {
			for _, l := range p.Lanes {
				l.Instr = insts.NewBubble()
				l.RemainingLatency = 0
			}
		}
	}
}

// Tick advances the engine by exactly one cycle. See IntegerEngine.Tick for
// the reverse-stage-order rationale; the only difference here is that id()
// and ex() can fail: id() with ErrNoFunctionalUnit when an instruction's
// unit class has no pool, ex() with that same error from Issue or with
// ErrMultipleCompletions, a functional-unit pool invariant violation.
func (e *FPEngine) Tick() (bool, error) {
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
		if err := e.ex(); err != nil {
			return false, err
		}
		stall, err := e.id()
		if err != nil {
			return false, err
		}
		if err := e.fetch(stall); err != nil {
			return false, err
		}
	}

	e.CycleCount++
	return false, nil
}

// nominalLatency returns the number of cycles an instruction occupies a
// lane of its target unit class: the configured latency plus one, so that
// a second instruction for a busy single-lane unit of latency L stalls L
// cycles in ID. A bubble always has latency 0 regardless of its opcode.
func (e *FPEngine) nominalLatency(instr *insts.Instruction) uint32 {
	if instr.Stall {
		return 0
	}
	return e.Bank.Config.NominalLatency(latency.UnitForOpcode(instr.Opcode)) + 1
}

// id runs ID for the FP variant: RAW, then latency-collision, then WAW,
// then structural, then control — in that order, matching the hazard
// detector's tie-break rule that the first matching condition stalls.
func (e *FPEngine) id() (bool, error) {
	instr := e.Latches[ID].Instr
	e.Latches[EX].Set(NPC, e.Latches[ID].Get(NPC))

	lat := e.nominalLatency(instr)

	unit := latency.UnitForOpcode(instr.Opcode)
	if !instr.Stall && e.Bank.pool(unit) == nil {
		return false, fmt.Errorf("unit %s: %w", unit, simerr.ErrNoFunctionalUnit)
	}

	stallExecute := e.srcBusy(instr)
	if !stallExecute {
		stallExecute = e.Bank.LatencyCollision(lat)
	}
	if !stallExecute {
		stallExecute = e.Bank.WAWHazard(instr, lat)
	}
	if !stallExecute {
		stallExecute = !e.Bank.HasFreeLane(latency.UnitForOpcode(instr.Opcode))
	}

	branchPending := controlPending(instr, e.Latches[EX].Instr, e.Bank)

	if branchPending && !stallExecute {
		e.Latches[ID].Bubble()
		if instr.Opcode != insts.EOP {
			e.StallCount++
		}
	}

	if stallExecute {
		e.Latches[EX].Bubble()
		if instr.Opcode != insts.EOP {
			e.StallCount++
		} else {
			e.Latches[EX].Set(NPC, e.Latches[ID].Get(NPC))
		}
		return true, nil
	}

	e.issueOperands(instr)
	e.Latches[EX].Instr = instr
	return instr.Opcode == insts.EOP || branchPending, nil
}

// ex runs EX for the FP variant: issue the incoming instruction into a free
// lane of its target pool, tick every occupied lane, and — if exactly one
// lane completed — compute the MEM state from it. No completion this cycle
// means MEM receives a bubble.
func (e *FPEngine) ex() error {
	instr := e.Latches[EX].Instr
	unit := latency.UnitForOpcode(instr.Opcode)

	lat := e.nominalLatency(instr)
	if instr.Opcode == insts.EOP {
		lat = e.Bank.MaxRemainingLatency() + 1
	}

	if !instr.Stall {
		if err := e.Bank.Issue(instr, unit, lat, e.Latches[EX].Get(B), e.Latches[EX].Get(NPC)); err != nil {
			return err
		}
	}

	completed, capturedB, capturedNPC, err := e.Bank.Tick()
	if err != nil {
		return err
	}

	e.Latches[MEM].Clear()

	if completed == nil {
		e.Latches[MEM].Instr = insts.NewBubble()
		e.memCountdown = e.Mem.Latency()
		return nil
	}

	e.Latches[MEM].Set(B, capturedB)
	a := e.readSrc(completed.Src1, completed.Src1Float)

	switch {
	case completed.Opcode.IsLoad(), completed.Opcode.IsStore():
		e.Latches[MEM].Set(ALUOutput, addressGen(a, completed.Imm))

	case completed.Opcode.IsRegRegALU():
		b := e.readSrc(completed.Src2, completed.Src2Float)
		e.Latches[MEM].Set(ALUOutput, intALU(completed.Opcode, a, b))

	case completed.Opcode.IsFPALU():
		b := e.readSrc(completed.Src2, completed.Src2Float)
		e.Latches[MEM].Set(ALUOutput, fpALU(completed.Opcode, a, b))

	case completed.Opcode.IsImmediateALU():
		e.Latches[MEM].Set(ALUOutput, intALU(completed.Opcode, a, uint32(completed.Imm)))

	case completed.Opcode.IsConditionalBranch():
		e.Latches[MEM].Set(ALUOutput, intALU(completed.Opcode, capturedNPC, uint32(completed.Imm)))
		if branchTaken(completed.Opcode, a) {
			e.Latches[MEM].Set(COND, 1)
		}

	case completed.Opcode == insts.JUMP:
		e.Latches[MEM].Set(ALUOutput, intALU(completed.Opcode, capturedNPC, uint32(completed.Imm)))
		e.Latches[MEM].Set(COND, 1)
	}

	e.Latches[MEM].Instr = completed
	e.memCountdown = e.Mem.Latency()
	return nil
}
