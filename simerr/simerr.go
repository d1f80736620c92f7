// Package simerr defines the fatal error taxonomy of the pipeline
// simulator. Each fatal condition of the taxonomy is one of these
// sentinels, wrapped with fmt.Errorf to carry the offending file, line, or
// value; callers use errors.Is to classify a failure. Other failures (file
// I/O, a wrong operand count or malformed offset(Rbase) in the assembly
// source, an invalid functional-unit config) are plain errors that wrap
// none of these sentinels. There is no partial
// failure recovery and no retry: any one of these aborts the run.
package simerr

import "errors"

// Sentinel errors. Wrap with fmt.Errorf("...: %w", Err...) to attach the
// diagnostic detail (file, line, offending value) required by the error
// taxonomy.
var (
	// ErrUnknownMnemonic is returned when the parser encounters a token
	// that is neither a known opcode nor a label.
	ErrUnknownMnemonic = errors.New("unknown mnemonic")

	// ErrUnknownRegisterPrefix is returned when a register token does not
	// start with R/r (integer) or F/f (floating point).
	ErrUnknownRegisterPrefix = errors.New("unknown register prefix")

	// ErrInstructionOutOfRange is returned when a PC translates to an
	// instruction index outside the parsed instruction array.
	ErrInstructionOutOfRange = errors.New("instruction out of range")

	// ErrMisalignedAccess is returned when a memory address is not 4-byte
	// aligned.
	ErrMisalignedAccess = errors.New("misaligned memory access")

	// ErrOutOfBoundsMemory is returned when a memory address is at or
	// beyond the configured memory size.
	ErrOutOfBoundsMemory = errors.New("out of bounds memory access")

	// ErrNoFunctionalUnit is returned when an opcode maps to a functional
	// unit class that has no lanes configured.
	ErrNoFunctionalUnit = errors.New("no functional unit configured")

	// ErrMultipleCompletions is returned when more than one functional
	// unit lane completes on the same cycle, violating invariant I5. This
	// indicates a bug in the hazard-detection logic, not a user error.
	ErrMultipleCompletions = errors.New("multiple functional unit completions in one cycle")
)
