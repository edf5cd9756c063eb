// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"io"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/i8085/cpu"
	"github.com/ezrec/i8085/internal"
	"github.com/ezrec/i8085/memory"
)

var _emulator_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%#x", memory.MEMORY_SIZE),
}

// Emulator state. CPU + banked memory + the running program.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Banked      bool              // If set, Reset enables bank switching.
	Breakpoints map[uint16]bool   // Addresses that stop Run.
	Predefine   map[string]string // Extra equates for Assemble.
}

// NewEmulator creates a new emulator with a number of memory banks.
func NewEmulator(banks int) (emu *Emulator) {
	emu = &Emulator{
		Cpu:         cpu.NewCpu(memory.NewMemory(banks, memory.BANK_BASE)),
		Program:     &cpu.Program{},
		Breakpoints: map[uint16]bool{},
		Predefine:   map[string]string{},
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Assemble parses assembly text into the emulator's program, with the
// emulator defines and Predefine equates predefined.
func (emu *Emulator) Assemble(input io.Reader) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range internal.IterSeq2Concat(emu.Defines(), maps.All(emu.Predefine)) {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// Reset the CPU, and load the program.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = false

	emu.Cpu.Reset()
	emu.Cpu.EnableBankSwitching(emu.Banked)

	for start, data := range emu.Program.Segments() {
		err = emu.Cpu.LoadProgram(data, start)
		if err != nil {
			return
		}
	}

	emu.Cpu.SetPC(emu.Program.Entry())

	emu.Cpu.Verbose = emu.Verbose

	if emu.Verbose {
		log.Printf("emulator: entry 0x%04x, banks %v, switching %v",
			emu.Cpu.PC(), emu.Cpu.BankCount(), emu.Cpu.BankSwitching())
	}

	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.PC())
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// runtimeError locates an error at the current instruction.
func (emu *Emulator) runtimeError(address uint16, lineno int, err error) error {
	return &ErrRuntime{Address: address, LineNo: lineno, Err: err}
}

// Tick performs a single instruction of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	if emu.Cpu.Halted() {
		done = true
		return
	}

	address := emu.Cpu.PC()
	lineno := emu.LineNo()

	err = emu.Cpu.Step()
	if err != nil {
		err = emu.runtimeError(address, lineno, err)
		return
	}

	done = emu.Cpu.Halted()

	return
}

// Run ticks the emulator until it halts, stops at a breakpoint, or runs
// limit instructions. A limit of 0 is unlimited. A breakpoint at the
// starting address does not stop Run, so a stopped run can be resumed.
func (emu *Emulator) Run(limit int) (steps int, err error) {
	for !emu.Cpu.Halted() {
		address := emu.Cpu.PC()
		if steps > 0 && emu.Breakpoints[address] {
			err = emu.runtimeError(address, emu.LineNo(), ErrBreakpoint)
			return
		}
		if limit > 0 && steps >= limit {
			err = emu.runtimeError(address, emu.LineNo(), ErrStepLimit)
			return
		}

		var done bool
		done, err = emu.Tick()
		steps++
		if err != nil || done {
			return
		}
	}

	return
}
