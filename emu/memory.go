package emu

import (
	"encoding/binary"
	"fmt"

	"github.com/archsim/mips5sim/simerr"
)

// Memory is a flat, byte-addressable, little-endian data memory with a
// fixed per-access latency. There is no cache hierarchy and no virtual
// address translation: an address is a byte offset into the byte array, checked only
// for 4-byte alignment and bounds.
type Memory struct {
	bytes   []byte
	latency uint32
}

// NewMemory returns a memory of the given size (in bytes), every byte reset
// to 0xFF, with the given fixed access latency (in cycles).
func NewMemory(size uint32, latency uint32) *Memory {
	m := &Memory{
		bytes:   make([]byte, size),
		latency: latency,
	}
	m.Reset()
	return m
}

// Size returns the memory's size in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.bytes))
}

// Latency returns the fixed access latency, in cycles, configured for this
// memory.
func (m *Memory) Latency() uint32 {
	return m.latency
}

// Reset fills every byte with 0xFF, the original simulator's uninitialized
// value.
func (m *Memory) Reset() {
	for i := range m.bytes {
		m.bytes[i] = 0xFF
	}
}

func (m *Memory) check(addr uint32) error {
	if addr%4 != 0 {
		return fmt.Errorf("address 0x%x: %w", addr, simerr.ErrMisalignedAccess)
	}
	if uint64(addr)+4 > uint64(len(m.bytes)) {
		return fmt.Errorf("address 0x%x: %w", addr, simerr.ErrOutOfBoundsMemory)
	}
	return nil
}

// ReadWord reads the little-endian 32-bit word at addr. addr must be 4-byte
// aligned and within bounds.
func (m *Memory) ReadWord(addr uint32) (uint32, error) {
	if err := m.check(addr); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.bytes[addr : addr+4]), nil
}

// WriteWord writes value as a little-endian 32-bit word at addr. addr must
// be 4-byte aligned and within bounds.
func (m *Memory) WriteWord(addr uint32, value uint32) error {
	if err := m.check(addr); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.bytes[addr:addr+4], value)
	return nil
}

// ReadByte reads the raw byte at addr, bounds-checked but not alignment
// checked. Not used by the pipeline itself (every architectural access is
// a 4-byte word).
func (m *Memory) ReadByte(addr uint32) (byte, error) {
	if uint64(addr) >= uint64(len(m.bytes)) {
		return 0, fmt.Errorf("address 0x%x: %w", addr, simerr.ErrOutOfBoundsMemory)
	}
	return m.bytes[addr], nil
}
