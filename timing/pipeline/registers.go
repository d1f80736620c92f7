// Package pipeline implements the five-stage pipeline engine shared by the
// integer and floating-point machine variants: the per-stage latches, the
// hazard detector, the stage procedures, and the reverse-order driver.
package pipeline

import (
	"github.com/archsim/mips5sim/insts"
)

// SPRegister names one slot of a stage latch's special-purpose register
// table.
type SPRegister int

const (
	PC SPRegister = iota
	NPC
	IR
	A
	B
	IMM
	COND
	ALUOutput
	LMD

	numSPRegisters
)

var spRegisterNames = [...]string{"PC", "NPC", "IR", "A", "B", "IMM", "COND", "ALU_OUTPUT", "LMD"}

// String returns the special-purpose register's name.
func (r SPRegister) String() string {
	if int(r) < 0 || int(r) >= len(spRegisterNames) {
		return "UNKNOWN"
	}
	return spRegisterNames[r]
}

// Undefined is the sentinel value a latch slot holds before any instruction
// has set it. COND is the one slot that defaults to 0 instead: it is read
// as a boolean, and an undefined condition must never look taken.
const Undefined uint32 = 0xFFFFFFFF

// Latch is one pipeline stage's register file: the instruction currently
// occupying the stage, plus its special-purpose register table. Latches
// are not double-buffered; the reverse stage order in IntegerEngine.Tick and
// FPEngine.Tick (WB, MEM,
// EX, ID, IF) gives each stage's read of the latch ahead of it the value
// that latch held at the start of the cycle, which is what a real
// edge-triggered latch pair would deliver.
type Latch struct {
	Instr *insts.Instruction
	sp    [numSPRegisters]uint32
}

// NewLatch returns an empty latch: no instruction, every register
// undefined except COND, which starts at 0.
func NewLatch() *Latch {
	l := &Latch{}
	l.Clear()
	return l
}

// Get returns the value in register r.
func (l *Latch) Get(r SPRegister) uint32 {
	return l.sp[r]
}

// Set stores value into register r.
func (l *Latch) Set(r SPRegister, value uint32) {
	l.sp[r] = value
}

// Clear empties the latch: no instruction, every register undefined except
// COND (0).
func (l *Latch) Clear() {
	l.Instr = nil
	for i := range l.sp {
		l.sp[i] = Undefined
	}
	l.sp[COND] = 0
}

// Bubble replaces the latch's contents with a synthesized NOP bubble,
// preserving no operands. Used by the hazard detector to squash a stage
// that must not retire the instruction it holds this cycle.
func (l *Latch) Bubble() {
	l.Clear()
	l.Instr = insts.NewBubble()
}
