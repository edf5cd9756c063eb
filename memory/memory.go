// Package memory implements the banked 64K address space of the i8085 system.
//
// Addresses below the bank window base always reach the common store. When bank
// switching is enabled, addresses from the base up to 0xFFFF reach the image of
// the currently selected bank instead; each bank image is a separate buffer, so
// no bank can observe another bank's contents.
//
// The stack is memory like any other. A stack inside the window follows the
// bank selection, so a program that switches banks between CALL and RET must
// keep its stack below the window base.
package memory

import (
	"fmt"
	"iter"
	"log"
	"maps"
)

const (
	MEMORY_SIZE = 0x10000 // Size of the address space.
	BANK_BASE   = 0x8000  // Default base of the bank window.
	BANK_COUNT  = 4       // Default number of bank images.
)

// Memory is the banked memory simulation.
type Memory struct {
	Verbose bool // Set to enable verbose logging.

	common  []byte   // Common store, always visible outside the window.
	banks   [][]byte // Bank images, one per bank, each covering the window.
	base    uint16   // First address of the bank window.
	bank    int      // Currently selected bank.
	enabled bool     // Bank switching enabled.
}

// NewMemory creates a memory with the given number of banks,
// with the bank window starting at base.
func NewMemory(banks int, base uint16) (mem *Memory) {
	if banks < 1 {
		banks = 1
	}

	mem = &Memory{
		common: make([]byte, MEMORY_SIZE),
		banks:  make([][]byte, banks),
		base:   base,
	}

	size := mem.WindowSize()
	for n := range mem.banks {
		mem.banks[n] = make([]byte, size)
	}

	return
}

// Defines returns the assembler equates describing the memory layout.
func (mem *Memory) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"BANK_BASE":  fmt.Sprintf("%#x", mem.base),
		"BANK_COUNT": fmt.Sprintf("%v", len(mem.banks)),
	})
}

// Reset clears the common store and every bank image, disables bank
// switching and selects bank 0.
func (mem *Memory) Reset() {
	if mem.Verbose {
		log.Printf("memory: reset")
	}

	clear(mem.common)
	for _, bank := range mem.banks {
		clear(bank)
	}
	mem.bank = 0
	mem.enabled = false
}

// Base returns the first address of the bank window.
func (mem *Memory) Base() uint16 {
	return mem.base
}

// WindowSize returns the number of addresses covered by the bank window.
func (mem *Memory) WindowSize() int {
	return MEMORY_SIZE - int(mem.base)
}

// EnableBankSwitching toggles routing of the window to the bank images.
// Contents of the common store and the bank images are kept.
func (mem *Memory) EnableBankSwitching(enable bool) {
	if mem.Verbose {
		log.Printf("memory: bank switching %v", enable)
	}
	mem.enabled = enable
}

// BankSwitching returns true if bank switching is enabled.
func (mem *Memory) BankSwitching() bool {
	return mem.enabled
}

// SetBank selects the current bank, clamping index into [0, BankCount()).
// Returns the bank actually selected.
func (mem *Memory) SetBank(index int) (bank int) {
	bank = min(max(index, 0), len(mem.banks)-1)
	if mem.Verbose && bank != index {
		log.Printf("memory: bank %v clamped to %v", index, bank)
	}
	mem.bank = bank
	return
}

// Bank returns the current bank index.
func (mem *Memory) Bank() int {
	return mem.bank
}

// BankCount returns the number of bank images.
func (mem *Memory) BankCount() int {
	return len(mem.banks)
}

// route returns the buffer and offset an address resolves to.
func (mem *Memory) route(address uint16) (buf []byte, offset int) {
	if mem.enabled && address >= mem.base {
		return mem.banks[mem.bank], int(address - mem.base)
	}
	return mem.common, int(address)
}

// Read a byte.
func (mem *Memory) Read(address uint16) uint8 {
	buf, offset := mem.route(address)
	return buf[offset]
}

// Write a byte.
func (mem *Memory) Write(address uint16, value uint8) {
	buf, offset := mem.route(address)
	buf[offset] = value
}

// Load writes data starting at start, through the same routing as Write.
// Nothing is written if the data would run past the end of the address space.
func (mem *Memory) Load(data []byte, start uint16) (err error) {
	if int(start)+len(data) > MEMORY_SIZE {
		err = fmt.Errorf("%w: 0x%04x+0x%x", ErrMemoryOverflow, start, len(data))
		return
	}

	for n, value := range data {
		mem.Write(start+uint16(n), value)
	}

	if mem.Verbose {
		log.Printf("memory: loaded 0x%x bytes at 0x%04x (bank %v)", len(data), start, mem.bank)
	}

	return
}

// Dump returns a copy of count bytes starting at start, as seen through the
// current routing. Addresses wrap at the end of the address space.
func (mem *Memory) Dump(start uint16, count int) (data []byte) {
	data = make([]byte, count)
	for n := range data {
		data[n] = mem.Read(start + uint16(n))
	}
	return
}
