// Package main provides the entry point for pipesim.
// pipesim is a cycle-accurate simulator of a classic five-stage in-order
// pipeline, with an integer-only variant and a floating-point-extended
// variant backed by configurable-latency functional-unit pools.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/archsim/mips5sim/timing/core"
	"github.com/archsim/mips5sim/timing/latency"
)

var (
	fp         = flag.Bool("fp", false, "Run the floating-point-extended variant instead of the integer-only one")
	unitsPath  = flag.String("units", "", "Path to a functional-unit configuration JSON file (FP variant only)")
	cycles     = flag.Uint64("cycles", 0, "Number of cycles to run, or 0 to run to completion (EOP retirement)")
	base       = flag.Uint("base", 0, "Base address to load the program at")
	memSize    = flag.Uint("mem-size", 4096, "Data memory size in bytes")
	memLatency = flag.Uint("mem-latency", 0, "Fixed data memory access latency in cycles")
	verbose    = flag.Bool("v", false, "Print final register state and run statistics")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: pipesim [options] <program.asm>\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	var err error
	if *fp {
		err = runFP(programPath)
	} else {
		err = runInteger(programPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipesim: %v\n", err)
		os.Exit(1)
	}
}

func runInteger(programPath string) error {
	m := core.NewIntegerMachine(uint32(*memSize), uint32(*memLatency))
	if err := m.LoadProgram(programPath, uint32(*base)); err != nil {
		return fmt.Errorf("loading program: %w", err)
	}
	if err := m.Run(*cycles); err != nil {
		return fmt.Errorf("running: %w", err)
	}

	if *verbose {
		printStats(m.GetClockCycles(), m.GetInstructionsExecuted(), m.GetStalls(), m.GetIPC())
		for r := uint32(0); r < 32; r++ {
			fmt.Printf("R%-2d = 0x%08X\n", r, m.GetIntRegister(r))
		}
	}
	return nil
}

func runFP(programPath string) error {
	m := core.NewFPMachine(uint32(*memSize), uint32(*memLatency))

	cfg := latency.NewConfig()
	if *unitsPath != "" {
		loaded, err := latency.LoadConfig(*unitsPath)
		if err != nil {
			return fmt.Errorf("loading functional unit config: %w", err)
		}
		cfg = loaded
	} else {
		cfg.Add(latency.INTEGER, 1, 1)
		cfg.Add(latency.ADDER, 2, 1)
		cfg.Add(latency.MULTIPLIER, 4, 1)
		cfg.Add(latency.DIVIDER, 8, 1)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("functional unit config: %w", err)
	}
	for _, unit := range []latency.Unit{latency.INTEGER, latency.ADDER, latency.MULTIPLIER, latency.DIVIDER} {
		for _, group := range cfg.Units[unit] {
			m.InitExecUnit(unit, group.Latency, group.Instances)
		}
	}

	if err := m.LoadProgram(programPath, uint32(*base)); err != nil {
		return fmt.Errorf("loading program: %w", err)
	}
	if err := m.Run(*cycles); err != nil {
		return fmt.Errorf("running: %w", err)
	}

	if *verbose {
		printStats(m.GetClockCycles(), m.GetInstructionsExecuted(), m.GetStalls(), m.GetIPC())
		for r := uint32(0); r < 32; r++ {
			fmt.Printf("R%-2d = 0x%08X\n", r, m.GetIntRegister(r))
		}
		for r := uint32(0); r < 32; r++ {
			fmt.Printf("F%-2d = 0x%08X\n", r, m.GetFPRegister(r))
		}
	}
	return nil
}

func printStats(cyclesRun, retired, stalls uint64, ipc float64) {
	fmt.Printf("cycles     = %d\n", cyclesRun)
	fmt.Printf("retired    = %d\n", retired)
	fmt.Printf("stalls     = %d\n", stalls)
	fmt.Printf("IPC        = %.3f\n", ipc)
}
