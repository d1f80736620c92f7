// Package emu provides the functional pieces shared by both pipeline
// variants: the architectural register files, the data memory, and a
// golden sequential interpreter used to cross-check the timed pipelines.
package emu

// NumRegisters is the size of each architectural register bank (integer and
// floating point alike).
const NumRegisters = 32

// Undefined is the sentinel value a register holds before anything has
// ever written it (integer R0 excepted: it resets to 0).
const Undefined uint32 = 0xFFFFFFFF

// regEntry holds one register's value alongside a busy counter. A register
// is busy while an in-flight instruction has been issued to produce its
// value and has not yet written it back; the hazard detector stalls on a
// busy source, never on a busy destination (WAW is checked against the
// functional-unit pool, not the register file).
type regEntry struct {
	value uint32
	busy  uint32
}

// IntRegFile is the 32-entry integer register bank (R0-R31). Unlike a
// classic MIPS file, R0 is an ordinary writable register here: the
// simulated ISA has no hardwired zero register. R0 does start at 0 after
// a reset.
type IntRegFile struct {
	regs [NumRegisters]regEntry
}

// NewIntRegFile returns a register file with R0 at 0, every other register
// at Undefined, and nothing busy.
func NewIntRegFile() *IntRegFile {
	f := &IntRegFile{}
	f.Reset()
	return f
}

// Read returns the current value of register r.
func (f *IntRegFile) Read(r uint32) uint32 {
	return f.regs[r].value
}

// IsBusy reports whether register r has an outstanding write pending.
func (f *IntRegFile) IsBusy(r uint32) bool {
	return f.regs[r].busy > 0
}

// MarkBusy increments r's busy counter. Called by the ID stage when an
// instruction with r as a destination issues.
func (f *IntRegFile) MarkBusy(r uint32) {
	f.regs[r].busy++
}

// Writeback stores value into r and decrements its busy counter. Called by
// the WB stage.
func (f *IntRegFile) Writeback(r uint32, value uint32) {
	f.regs[r].value = value
	if f.regs[r].busy > 0 {
		f.regs[r].busy--
	}
}

// Set writes value into r directly, without touching the busy counter. Used
// by the Runtime API's set_int_register mutator and by test fixtures to
// establish initial state before a run.
func (f *IntRegFile) Set(r uint32, value uint32) {
	f.regs[r].value = value
}

// Reset clears R0 to 0, every other register to Undefined, and every busy
// counter to 0.
func (f *IntRegFile) Reset() {
	for i := range f.regs {
		f.regs[i] = regEntry{value: Undefined}
	}
	f.regs[0].value = 0
}

// FPRegFile is the 32-entry floating-point register bank (F0-F31). Values
// are stored as the raw IEEE-754 bit pattern; ALU helpers in package
// pipeline reinterpret them as float32 where arithmetic is required.
type FPRegFile struct {
	regs [NumRegisters]regEntry
}

// NewFPRegFile returns a register file with every register at Undefined and
// not busy.
func NewFPRegFile() *FPRegFile {
	f := &FPRegFile{}
	f.Reset()
	return f
}

// Read returns the current raw bit pattern of register r.
func (f *FPRegFile) Read(r uint32) uint32 {
	return f.regs[r].value
}

// IsBusy reports whether register r has an outstanding write pending.
func (f *FPRegFile) IsBusy(r uint32) bool {
	return f.regs[r].busy > 0
}

// MarkBusy increments r's busy counter.
func (f *FPRegFile) MarkBusy(r uint32) {
	f.regs[r].busy++
}

// Writeback stores value into r and decrements its busy counter.
func (f *FPRegFile) Writeback(r uint32, value uint32) {
	f.regs[r].value = value
	if f.regs[r].busy > 0 {
		f.regs[r].busy--
	}
}

// Set writes value into r directly, without touching the busy counter.
func (f *FPRegFile) Set(r uint32, value uint32) {
	f.regs[r].value = value
}

// Reset clears every register to Undefined and not busy.
func (f *FPRegFile) Reset() {
	for i := range f.regs {
		f.regs[i] = regEntry{value: Undefined}
	}
}
