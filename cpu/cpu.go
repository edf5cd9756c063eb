package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/i8085/internal"
	"github.com/ezrec/i8085/io"
	"github.com/ezrec/i8085/memory"
)

// BANK_PORT is the port that selects the memory bank.
const BANK_PORT = io.BANK_SELECT_PORT

var _cpu_defines = map[string]string{
	"BANK_PORT": fmt.Sprintf("%#x", BANK_PORT),
	"STACK_TOP": fmt.Sprintf("%#x", STACK_TOP),
}

// Cpu is the simulation context for the 8085 interpreter.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	reg        Registers
	flags      Flags
	halted     bool
	interrupts bool // Interrupt enable, set by EI. No interrupts are delivered.
	ticks      int  // Instructions executed since reset.

	mem   *memory.Memory
	ports io.Ports
}

// NewCpu creates a new CPU attached to a banked memory, with the bank select
// port installed at BANK_PORT. The CPU is reset.
func NewCpu(mem *memory.Memory) (cpu *Cpu) {
	cpu = &Cpu{
		mem: mem,
	}

	cpu.ports.Attach(BANK_PORT, &io.BankSelect{Banker: mem})

	cpu.Reset()

	return
}

// Defines for the cpu and its memory.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_cpu_defines), cpu.mem.Defines())
}

// Reset the CPU state.
// - Clears the registers and flags; SP is set to STACK_TOP and PC to 0.
// - Clears the halted and interrupt enable states.
// - Clears memory, including every bank, and disables bank switching.
// - Resets all I/O ports.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.reg = Registers{SP: STACK_TOP}
	cpu.flags = Flags{}
	cpu.halted = false
	cpu.interrupts = false
	cpu.ticks = 0

	cpu.mem.Verbose = cpu.Verbose
	cpu.mem.Reset()
	cpu.ports.Reset()
}

// SetPort attaches a port at an address.
func (cpu *Cpu) SetPort(address uint8, port io.Port) {
	if port != nil {
		cpu.ports.Attach(address, port)
	} else {
		cpu.ports.Detach(address)
	}
}

// GetPort gets the port attached at an address.
func (cpu *Cpu) GetPort(address uint8) (port io.Port, err error) {
	return cpu.ports.Get(address)
}

// fetch reads the byte at PC, and advances PC.
func (cpu *Cpu) fetch() (value uint8) {
	value = cpu.mem.Read(cpu.reg.PC)
	cpu.reg.PC++
	return
}

// fetchWord reads the little-endian word at PC, and advances PC past it.
func (cpu *Cpu) fetchWord() uint16 {
	lo := cpu.fetch()
	hi := cpu.fetch()
	return uint16(hi)<<8 | uint16(lo)
}

// load reads an 8-bit operand. REG_M reads the memory byte addressed by HL.
func (cpu *Cpu) load(r Register) uint8 {
	if r == REG_M {
		return cpu.mem.Read(cpu.reg.Pair(PAIR_HL))
	}
	return cpu.reg.Get(r)
}

// store writes an 8-bit operand. REG_M writes the memory byte addressed by HL.
func (cpu *Cpu) store(r Register, value uint8) {
	if r == REG_M {
		cpu.mem.Write(cpu.reg.Pair(PAIR_HL), value)
		return
	}
	cpu.reg.Set(r, value)
}

// call pushes the return address and jumps.
func (cpu *Cpu) call(address uint16) {
	cpu.Push(cpu.reg.PC)
	cpu.reg.PC = address
}

// Step executes a single instruction. When halted, Step does nothing.
//
// An opcode the CPU does not implement is a decode fault: PC moves past the
// opcode byte, nothing else changes, and the error matches ErrOpcodeUnknown.
func (cpu *Cpu) Step() (err error) {
	if cpu.halted {
		return
	}

	cpu.mem.Verbose = cpu.Verbose

	pc := cpu.reg.PC
	opcode := cpu.fetch()

	in, ok := Decode(opcode)
	if !ok {
		err = errors.Join(ErrOpcodeUnknown, ErrOpcode{Address: pc, Opcode: opcode})
		return
	}

	if cpu.Verbose {
		text, _ := cpu.Disassemble(pc)
		log.Printf("%04x: %v", pc, text)
	}

	in.exec(cpu)
	cpu.ticks++

	return
}

// Disassemble returns the assembly text of the instruction at an address,
// and its length in bytes. Unknown opcodes disassemble as a .db directive.
func (cpu *Cpu) Disassemble(address uint16) (text string, length int) {
	opcode := cpu.mem.Read(address)
	in, ok := Decode(opcode)
	if !ok {
		return fmt.Sprintf(".db 0x%02x", opcode), 1
	}

	var immediate uint16
	for n := range in.Immediate {
		immediate |= uint16(cpu.mem.Read(address+1+uint16(n))) << (8 * n)
	}

	return in.Format(immediate), in.Length()
}

// LoadProgram writes a program at start through the banked memory routing,
// and sets PC to start. Nothing is written if the program would run past the
// end of the address space.
func (cpu *Cpu) LoadProgram(program []byte, start uint16) (err error) {
	err = cpu.mem.Load(program, start)
	if err != nil {
		return
	}

	cpu.reg.PC = start

	return
}

// Memory reads a byte through the banked memory routing.
func (cpu *Cpu) Memory(address uint16) uint8 {
	return cpu.mem.Read(address)
}

// SetMemory writes a byte through the banked memory routing.
func (cpu *Cpu) SetMemory(address uint16, value uint8) {
	cpu.mem.Write(address, value)
}

// DumpMemory returns count bytes starting at start.
func (cpu *Cpu) DumpMemory(start uint16, count int) []byte {
	return cpu.mem.Dump(start, count)
}

// EnableBankSwitching toggles routing of the bank window.
func (cpu *Cpu) EnableBankSwitching(enable bool) {
	cpu.mem.EnableBankSwitching(enable)
}

// BankSwitching returns true if bank switching is enabled.
func (cpu *Cpu) BankSwitching() bool {
	return cpu.mem.BankSwitching()
}

// SetBank selects the current bank, clamped into range.
func (cpu *Cpu) SetBank(index int) int {
	return cpu.mem.SetBank(index)
}

// Bank returns the current bank.
func (cpu *Cpu) Bank() int {
	return cpu.mem.Bank()
}

// BankCount returns the number of banks.
func (cpu *Cpu) BankCount() int {
	return cpu.mem.BankCount()
}

func (cpu *Cpu) A() uint8   { return cpu.reg.A }
func (cpu *Cpu) B() uint8   { return cpu.reg.B }
func (cpu *Cpu) C() uint8   { return cpu.reg.C }
func (cpu *Cpu) D() uint8   { return cpu.reg.D }
func (cpu *Cpu) E() uint8   { return cpu.reg.E }
func (cpu *Cpu) H() uint8   { return cpu.reg.H }
func (cpu *Cpu) L() uint8   { return cpu.reg.L }
func (cpu *Cpu) SP() uint16 { return cpu.reg.SP }
func (cpu *Cpu) PC() uint16 { return cpu.reg.PC }

// SetPC sets the program counter.
func (cpu *Cpu) SetPC(value uint16) { cpu.reg.PC = value }

// SetSP sets the stack pointer.
func (cpu *Cpu) SetSP(value uint16) { cpu.reg.SP = value }

// Register returns an 8-bit register.
func (cpu *Cpu) Register(r Register) uint8 {
	return cpu.reg.Get(r)
}

// SetRegister sets an 8-bit register. Flags are not affected.
func (cpu *Cpu) SetRegister(r Register, value uint8) {
	cpu.reg.Set(r, value)
}

// Registers returns a copy of the register file.
func (cpu *Cpu) Registers() Registers {
	return cpu.reg
}

// Flags returns a copy of the condition flags.
func (cpu *Cpu) Flags() Flags {
	return cpu.flags
}

// SetFlags sets the condition flags.
func (cpu *Cpu) SetFlags(flags Flags) {
	cpu.flags = flags
}

// Halted returns true once HLT has executed, until the next reset.
func (cpu *Cpu) Halted() bool {
	return cpu.halted
}

// InterruptsEnabled returns the interrupt enable state.
func (cpu *Cpu) InterruptsEnabled() bool {
	return cpu.interrupts
}

// Ticks returns the number of instructions executed since reset.
func (cpu *Cpu) Ticks() int {
	return cpu.ticks
}

// RegisterState renders the registers as text.
func (cpu *Cpu) RegisterState() string {
	r := &cpu.reg
	return fmt.Sprintf("A:%02X B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X\nSP:%04X PC:%04X",
		r.A, r.B, r.C, r.D, r.E, r.H, r.L, r.SP, r.PC)
}

// FlagsState renders the flags as text.
func (cpu *Cpu) FlagsState() string {
	bit := func(set bool) int {
		if set {
			return 1
		}
		return 0
	}
	fl := &cpu.flags
	return fmt.Sprintf("S:%d Z:%d AC:%d P:%d CY:%d", bit(fl.S), bit(fl.Z), bit(fl.AC), bit(fl.P), bit(fl.CY))
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"a", "b", "c", "d", "e", "h", "l",
		"sp", "pc", "flags", "bank", "halt",
	}
	for n, reg := range regs {
		var strval string
		switch reg {
		case "a":
			strval = fmt.Sprintf("%02X", cpu.reg.A)
		case "b", "c", "d", "e", "h", "l":
			strval = fmt.Sprintf("%02X", cpu.reg.Get(Register(n-1)))
		case "sp":
			strval = fmt.Sprintf("%04X", cpu.reg.SP)
		case "pc":
			strval = fmt.Sprintf("%04X", cpu.reg.PC)
		case "flags":
			strval = cpu.FlagsState()
		case "bank":
			strval = fmt.Sprintf("%v/%v", cpu.mem.Bank(), cpu.mem.BankCount())
			if !cpu.mem.BankSwitching() {
				strval += " (off)"
			}
		case "halt":
			strval = fmt.Sprintf("%v", cpu.halted)
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}
