package pipeline

import (
	"fmt"
	"math"

	"github.com/archsim/mips5sim/emu"
	"github.com/archsim/mips5sim/insts"
	"github.com/archsim/mips5sim/simerr"
)

// Stage indexes the five pipeline latches in program order.
type Stage int

const (
	IF Stage = iota
	ID
	EX
	MEM
	WB

	numStages
)

var stageNames = [...]string{"IF", "ID", "EX", "MEM", "WB"}

// String returns the stage's name.
func (s Stage) String() string {
	if int(s) < 0 || int(s) >= len(stageNames) {
		return "UNKNOWN"
	}
	return stageNames[s]
}

// Datapath holds the state shared by both pipeline variants: the register
// files, data memory, the program being executed, the five stage latches,
// and the running counters. IntegerEngine and FPEngine each embed a
// Datapath and supply their own id() and ex(); wb(), mem() and fetch() are
// identical across variants and live here.
type Datapath struct {
	IntRegs *emu.IntRegFile
	FPRegs  *emu.FPRegFile
	Mem     *emu.Memory

	Program []*insts.Instruction
	Base    uint32

	Latches [numStages]*Latch

	memCountdown uint32

	CycleCount           uint64
	InstructionsExecuted uint64
	StallCount           uint64
	Halted               bool
	Err                  error
}

// newDatapath builds a Datapath over the given memory, with fresh register
// files and latches seeded with bubbles.
func newDatapath(mem *emu.Memory) *Datapath {
	d := &Datapath{
		IntRegs: emu.NewIntRegFile(),
		FPRegs:  emu.NewFPRegFile(),
		Mem:     mem,
	}
	for s := range d.Latches {
		d.Latches[s] = NewLatch()
	}
	d.reset()
	return d
}

// reset clears memory, register files, and every latch back to bubbles, and
// zeroes the running counters.
func (d *Datapath) reset() {
	d.Mem.Reset()
	d.IntRegs.Reset()
	d.FPRegs.Reset()
	for s := range d.Latches {
		d.Latches[s].Bubble()
	}
	d.Latches[IF].Set(PC, d.Base)
	d.memCountdown = 0
	d.CycleCount = 0
	d.InstructionsExecuted = 0
	d.StallCount = 0
	d.Halted = false
	d.Err = nil
}

// loadProgram installs program starting at base and points IF.PC at it.
func (d *Datapath) loadProgram(program []*insts.Instruction, base uint32) {
	d.Program = program
	d.Base = base
	d.Latches[IF].Set(PC, base)
}

// fetchAt translates pc into a program index and returns the instruction
// there, or simerr.ErrInstructionOutOfRange if pc falls outside the loaded
// program.
func (d *Datapath) fetchAt(pc uint32) (*insts.Instruction, error) {
	if pc < d.Base {
		return nil, fmt.Errorf("pc 0x%x below base 0x%x: %w", pc, d.Base, simerr.ErrInstructionOutOfRange)
	}
	idx := (pc - d.Base) / 4
	if idx >= uint32(len(d.Program)) {
		return nil, fmt.Errorf("pc 0x%x: %w", pc, simerr.ErrInstructionOutOfRange)
	}
	return d.Program[idx], nil
}

// fetch runs the shared IF behavior: branch-redirect, then (unless
// stalling) fetch the next instruction into the ID latch.
func (d *Datapath) fetch(stall bool) error {
	if d.Latches[MEM].Get(COND) == 1 {
		d.Latches[IF].Set(PC, d.Latches[MEM].Get(ALUOutput))
	}
	pc := d.Latches[IF].Get(PC)

	if stall {
		return nil
	}

	instr, err := d.fetchAt(pc)
	if err != nil {
		return err
	}
	if instr.Opcode != insts.EOP {
		d.Latches[IF].Set(PC, pc+4)
	}
	d.Latches[ID].Set(NPC, d.Latches[IF].Get(PC))
	d.Latches[ID].Instr = instr
	return nil
}

// mem runs the shared MEM behavior. It returns true if the stage is busy
// (blocking IF/ID/EX this cycle).
func (d *Datapath) mem() (bool, error) {
	instr := d.Latches[MEM].Instr

	d.Latches[WB].Set(LMD, Undefined)

	switch instr.Opcode {
	case insts.LW, insts.LWS, insts.SW, insts.SWS:
		if d.memCountdown > 0 {
			d.memCountdown--
			d.StallCount++
			d.Latches[WB].Bubble()
			return true, nil
		}

		addr := d.Latches[MEM].Get(ALUOutput)
		switch instr.Opcode {
		case insts.LW, insts.LWS:
			word, err := d.Mem.ReadWord(addr)
			if err != nil {
				return false, err
			}
			d.Latches[WB].Set(LMD, word)
		case insts.SW, insts.SWS:
			var value uint32
			if instr.Src2Float {
				value = d.FPRegs.Read(instr.Src2)
			} else {
				value = d.IntRegs.Read(instr.Src2)
			}
			if err := d.Mem.WriteWord(addr, value); err != nil {
				return false, err
			}
		}
	}

	d.Latches[WB].Instr = instr
	d.Latches[WB].Set(ALUOutput, d.Latches[MEM].Get(ALUOutput))
	return false, nil
}

// wb runs the shared WB behavior. It returns true if the stage retired an
// EOP (the run must stop; no other stage runs in that cycle).
func (d *Datapath) wb() bool {
	instr := d.Latches[WB].Instr

	if instr.Opcode == insts.EOP {
		return true
	}

	if instr.DestOp {
		var source uint32
		if instr.Opcode == insts.LW || instr.Opcode == insts.LWS {
			source = d.Latches[WB].Get(LMD)
		} else {
			source = d.Latches[WB].Get(ALUOutput)
		}
		if instr.DestFloat {
			d.FPRegs.Writeback(instr.Dest, source)
		} else {
			d.IntRegs.Writeback(instr.Dest, source)
		}
	}

	if !instr.Stall && instr.Opcode != insts.EOP {
		d.InstructionsExecuted++
	}
	return false
}

// readSrc reads a source operand from the correct bank.
func (d *Datapath) readSrc(reg uint32, float bool) uint32 {
	if float {
		return d.FPRegs.Read(reg)
	}
	return d.IntRegs.Read(reg)
}

// issueOperands marks the destination register busy and populates the EX
// latch's A/B/IMM slots from the issuing instruction's declared operands.
func (d *Datapath) issueOperands(instr *insts.Instruction) {
	d.markBusy(instr)
	if instr.Src1Op {
		d.Latches[EX].Set(A, d.readSrc(instr.Src1, instr.Src1Float))
	} else {
		d.Latches[EX].Set(A, Undefined)
	}
	if instr.Src2Op {
		d.Latches[EX].Set(B, d.readSrc(instr.Src2, instr.Src2Float))
	} else {
		d.Latches[EX].Set(B, Undefined)
	}
	d.Latches[EX].Set(IMM, uint32(instr.Imm))
}

// markBusy marks an instruction's destination register busy, if it has one.
func (d *Datapath) markBusy(instr *insts.Instruction) {
	if !instr.DestOp {
		return
	}
	if instr.DestFloat {
		d.FPRegs.MarkBusy(instr.Dest)
	} else {
		d.IntRegs.MarkBusy(instr.Dest)
	}
}

// srcBusy reports whether either declared source register of instr is busy.
func (d *Datapath) srcBusy(instr *insts.Instruction) bool {
	if instr.Src1Op && d.regBusy(instr.Src1, instr.Src1Float) {
		return true
	}
	if instr.Src2Op && d.regBusy(instr.Src2, instr.Src2Float) {
		return true
	}
	return false
}

func (d *Datapath) regBusy(reg uint32, float bool) bool {
	if float {
		return d.FPRegs.IsBusy(reg)
	}
	return d.IntRegs.IsBusy(reg)
}

// addressGen computes the effective address for a load or store: the base
// register's integer value plus the sign-extended immediate offset.
func addressGen(base uint32, imm int32) uint32 {
	return uint32(int32(base) + imm)
}

// intALU evaluates an integer opcode over two raw 32-bit operands, matching
// 2's-complement wraparound semantics. Branch and jump target computation
// also routes through here (npc + imm); the taken/not-taken predicate
// itself is evaluated separately by branchTaken.
func intALU(op insts.Opcode, v1, v2 uint32) uint32 {
	switch op {
	case insts.SUB, insts.SUBI:
		return v1 - v2
	case insts.XOR, insts.XORI:
		return v1 ^ v2
	case insts.AND, insts.ANDI:
		return v1 & v2
	case insts.OR, insts.ORI:
		return v1 | v2
	case insts.MULT:
		return uint32(int32(v1) * int32(v2))
	case insts.DIV:
		return uint32(int32(v1) / int32(v2))
	default:
		// ADD, ADDI, and every branch/jump target computation: v1 + v2.
		return v1 + v2
	}
}

// fpALU evaluates a floating-point opcode over two IEEE-754 bit patterns,
// returning the IEEE-754 bit pattern of the result.
func fpALU(op insts.Opcode, v1, v2 uint32) uint32 {
	a := math.Float32frombits(v1)
	b := math.Float32frombits(v2)

	var out float32
	switch op {
	case insts.SUBS:
		out = a - b
	case insts.MULTS:
		out = a * b
	case insts.DIVS:
		out = a / b
	default:
		out = a + b
	}
	return math.Float32bits(out)
}

// branchTaken evaluates the taken/not-taken predicate for a conditional
// branch against the signed value of its source register.
func branchTaken(op insts.Opcode, v uint32) bool {
	s := int32(v)
	switch op {
	case insts.BEQZ:
		return s == 0
	case insts.BNEZ:
		return s != 0
	case insts.BLTZ:
		return s < 0
	case insts.BGTZ:
		return s > 0
	case insts.BLEZ:
		return s <= 0
	case insts.BGEZ:
		return s >= 0
	default:
		return false
	}
}
