// Package core provides the public machine API: the integer-only and
// floating-point-extended simulators that wrap the pipeline engine with
// program loading, run control, and the accessor/mutator surface used by
// test fixtures and front ends.
package core

import (
	"fmt"
	"os"

	"github.com/archsim/mips5sim/asm"
	"github.com/archsim/mips5sim/emu"
	"github.com/archsim/mips5sim/timing/pipeline"
)

// IntegerMachine is the integer-only five-stage pipeline simulator.
type IntegerMachine struct {
	engine *pipeline.IntegerEngine
}

// NewIntegerMachine constructs a machine with the given data memory size
// and fixed read/write latency.
func NewIntegerMachine(memSize, memLatency uint32) *IntegerMachine {
	return &IntegerMachine{engine: pipeline.NewIntegerEngine(emu.NewMemory(memSize, memLatency))}
}

// LoadProgram parses the assembly source at filename and installs it
// starting at baseAddress, pointing IF.PC there.
func (m *IntegerMachine) LoadProgram(filename string, baseAddress uint32) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open program %q: %w", filename, err)
	}
	defer f.Close()

	program, err := asm.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse program %q: %w", filename, err)
	}
	m.engine.LoadProgram(program, baseAddress)
	return nil
}

// Run advances the machine by cycles cycles, or to EOP retirement if
// cycles is 0.
func (m *IntegerMachine) Run(cycles uint64) error {
	toCompletion := cycles == 0
	for i := uint64(0); toCompletion || i < cycles; i++ {
		halted, err := m.engine.Tick()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
	return nil
}

// Reset clears memory, register files, and every latch.
func (m *IntegerMachine) Reset() {
	m.engine.Reset()
}

// GetSPRegister returns the value of special-purpose register reg in the
// named stage's latch.
func (m *IntegerMachine) GetSPRegister(reg pipeline.SPRegister, stage pipeline.Stage) uint32 {
	return m.engine.Latches[stage].Get(reg)
}

// GetIntRegister returns the current value of integer register r.
func (m *IntegerMachine) GetIntRegister(r uint32) uint32 {
	return m.engine.IntRegs.Read(r)
}

// SetIntRegister sets integer register r, bypassing busy tracking. Used by
// test fixtures to seed initial machine state.
func (m *IntegerMachine) SetIntRegister(r uint32, value uint32) {
	m.engine.IntRegs.Set(r, value)
}

// WriteMemory writes a little-endian 32-bit word to data memory, bypassing
// the simulated memory latency. Used by test fixtures to seed initial
// machine state.
func (m *IntegerMachine) WriteMemory(addr uint32, value uint32) error {
	return m.engine.Mem.WriteWord(addr, value)
}

// GetClockCycles returns the number of cycles executed so far.
func (m *IntegerMachine) GetClockCycles() uint64 {
	return m.engine.CycleCount
}

// GetInstructionsExecuted returns the number of non-bubble, non-EOP
// instructions retired so far.
func (m *IntegerMachine) GetInstructionsExecuted() uint64 {
	return m.engine.InstructionsExecuted
}

// GetStalls returns the number of stall cycles recorded so far.
func (m *IntegerMachine) GetStalls() uint64 {
	return m.engine.StallCount
}

// GetIPC returns retired instructions per cycle, or 0 before any cycle has
// run.
func (m *IntegerMachine) GetIPC() float64 {
	if m.engine.CycleCount == 0 {
		return 0
	}
	return float64(m.engine.InstructionsExecuted) / float64(m.engine.CycleCount)
}
