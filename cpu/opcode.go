package cpu

import (
	"fmt"
	"strings"
)

// Condition is a branch condition, in instruction encoding order.
type Condition int

const (
	COND_NZ = Condition(0) // NZ
	COND_Z  = Condition(1) // Z
	COND_NC = Condition(2) // NC
	COND_C  = Condition(3) // C
	COND_PO = Condition(4) // PO
	COND_PE = Condition(5) // PE
	COND_P  = Condition(6) // P
	COND_M  = Condition(7) // M
)

var conditionName = [8]string{"NZ", "Z", "NC", "C", "PO", "PE", "P", "M"}

func (cc Condition) String() string {
	return conditionName[cc&7]
}

// Test returns true if the condition holds for the flags.
func (cc Condition) Test(fl Flags) (ok bool) {
	switch cc {
	case COND_NZ:
		ok = !fl.Z
	case COND_Z:
		ok = fl.Z
	case COND_NC:
		ok = !fl.CY
	case COND_C:
		ok = fl.CY
	case COND_PO:
		ok = !fl.P
	case COND_PE:
		ok = fl.P
	case COND_P:
		ok = !fl.S
	case COND_M:
		ok = fl.S
	}
	return
}

var aluName = [8]string{"ADD", "ADC", "SUB", "SBB", "ANA", "XRA", "ORA", "CMP"}
var aluImmName = [8]string{"ADI", "ACI", "SUI", "SBI", "ANI", "XRI", "ORI", "CPI"}

// Instruction describes one opcode of the instruction set.
type Instruction struct {
	Opcode    uint8
	Mnemonic  string   // Mnemonic, e.g. "MOV".
	Operands  []string // Fixed operands, e.g. ["B", "A"].
	Immediate int      // Operand bytes following the opcode: 0, 1 or 2.

	exec func(cpu *Cpu)
}

// Length returns the encoded length in bytes.
func (in *Instruction) Length() int {
	return 1 + in.Immediate
}

// Key returns the mnemonic and fixed operands, e.g. "MVI B".
func (in *Instruction) Key() string {
	return instructionKey(in.Mnemonic, in.Operands)
}

// Format returns the assembly text of the instruction, with the given
// immediate value when the instruction takes one.
func (in *Instruction) Format(immediate uint16) string {
	operands := in.Operands
	switch in.Immediate {
	case 1:
		operands = append(operands[:len(operands):len(operands)], fmt.Sprintf("0x%02x", uint8(immediate)))
	case 2:
		operands = append(operands[:len(operands):len(operands)], fmt.Sprintf("0x%04x", immediate))
	}
	return instructionKey(in.Mnemonic, operands)
}

func instructionKey(mnemonic string, operands []string) string {
	if len(operands) == 0 {
		return mnemonic
	}
	return mnemonic + " " + strings.Join(operands, ",")
}

var (
	instructionTable [256]*Instruction
	instructionByKey = map[string]*Instruction{}
	mnemonics        = map[string]bool{}
)

// define adds an instruction to the decode table.
func define(opcode uint8, mnemonic string, operands []string, immediate int, exec func(cpu *Cpu)) {
	if instructionTable[opcode] != nil {
		panic(fmt.Sprintf("opcode 0x%02x defined twice", opcode))
	}
	in := &Instruction{
		Opcode:    opcode,
		Mnemonic:  mnemonic,
		Operands:  operands,
		Immediate: immediate,
		exec:      exec,
	}
	instructionTable[opcode] = in
	instructionByKey[in.Key()] = in
	mnemonics[mnemonic] = true
}

// Decode returns the instruction for an opcode.
// ok is false for opcodes the CPU does not implement.
func Decode(opcode uint8) (in *Instruction, ok bool) {
	in = instructionTable[opcode]
	ok = in != nil
	return
}

// Lookup returns the instruction for a mnemonic and its fixed operands.
func Lookup(mnemonic string, operands ...string) (in *Instruction, ok bool) {
	in, ok = instructionByKey[instructionKey(mnemonic, operands)]
	return
}

// regs are the 8-bit operands in encoding order.
var regs = [8]Register{REG_B, REG_C, REG_D, REG_E, REG_H, REG_L, REG_M, REG_A}

// pairs are the pair operands of LXI, INX, DCX and DAD.
var pairs = [4]Pair{PAIR_BC, PAIR_DE, PAIR_HL, PAIR_SP}

// stackPairs are the pair operands of PUSH and POP.
var stackPairs = [4]Pair{PAIR_BC, PAIR_DE, PAIR_HL, PAIR_PSW}

func init() {
	define(0x00, "NOP", nil, 0, func(cpu *Cpu) {})
	define(0x76, "HLT", nil, 0, func(cpu *Cpu) { cpu.halted = true })

	for _, dst := range regs {
		for _, src := range regs {
			if dst == REG_M && src == REG_M {
				// HLT occupies MOV M,M
				continue
			}
			define(0x40|uint8(dst)<<3|uint8(src), "MOV", []string{dst.String(), src.String()}, 0, func(cpu *Cpu) {
				cpu.store(dst, cpu.load(src))
			})
		}

		define(0x06|uint8(dst)<<3, "MVI", []string{dst.String()}, 1, func(cpu *Cpu) {
			cpu.store(dst, cpu.fetch())
		})
		define(0x04|uint8(dst)<<3, "INR", []string{dst.String()}, 0, func(cpu *Cpu) {
			cpu.store(dst, cpu.inr(cpu.load(dst)))
		})
		define(0x05|uint8(dst)<<3, "DCR", []string{dst.String()}, 0, func(cpu *Cpu) {
			cpu.store(dst, cpu.dcr(cpu.load(dst)))
		})
	}

	for n := range 8 {
		op := AluOp(n)
		for _, src := range regs {
			define(0x80|uint8(op)<<3|uint8(src), aluName[op], []string{src.String()}, 0, func(cpu *Cpu) {
				cpu.alu(op, cpu.load(src))
			})
		}
		define(0xc6|uint8(op)<<3, aluImmName[op], nil, 1, func(cpu *Cpu) {
			cpu.alu(op, cpu.fetch())
		})
	}

	for n, rp := range pairs {
		code := uint8(n) << 4
		define(0x01|code, "LXI", []string{rp.String()}, 2, func(cpu *Cpu) {
			cpu.reg.SetPair(rp, cpu.fetchWord())
		})
		define(0x03|code, "INX", []string{rp.String()}, 0, func(cpu *Cpu) {
			cpu.reg.SetPair(rp, cpu.reg.Pair(rp)+1)
		})
		define(0x0b|code, "DCX", []string{rp.String()}, 0, func(cpu *Cpu) {
			cpu.reg.SetPair(rp, cpu.reg.Pair(rp)-1)
		})
		define(0x09|code, "DAD", []string{rp.String()}, 0, func(cpu *Cpu) {
			cpu.dad(cpu.reg.Pair(rp))
		})
	}

	for n, rp := range stackPairs {
		code := uint8(n) << 4
		define(0xc5|code, "PUSH", []string{rp.String()}, 0, func(cpu *Cpu) {
			if rp == PAIR_PSW {
				cpu.Push(uint16(cpu.reg.A)<<8 | uint16(cpu.flags.Byte()))
			} else {
				cpu.Push(cpu.reg.Pair(rp))
			}
		})
		define(0xc1|code, "POP", []string{rp.String()}, 0, func(cpu *Cpu) {
			value := cpu.Pop()
			if rp == PAIR_PSW {
				cpu.reg.A = uint8(value >> 8)
				cpu.flags.SetByte(uint8(value))
			} else {
				cpu.reg.SetPair(rp, value)
			}
		})
	}

	// Indirect and direct accumulator transfers.
	define(0x02, "STAX", []string{"B"}, 0, func(cpu *Cpu) { cpu.mem.Write(cpu.reg.Pair(PAIR_BC), cpu.reg.A) })
	define(0x12, "STAX", []string{"D"}, 0, func(cpu *Cpu) { cpu.mem.Write(cpu.reg.Pair(PAIR_DE), cpu.reg.A) })
	define(0x0a, "LDAX", []string{"B"}, 0, func(cpu *Cpu) { cpu.reg.A = cpu.mem.Read(cpu.reg.Pair(PAIR_BC)) })
	define(0x1a, "LDAX", []string{"D"}, 0, func(cpu *Cpu) { cpu.reg.A = cpu.mem.Read(cpu.reg.Pair(PAIR_DE)) })
	define(0x32, "STA", nil, 2, func(cpu *Cpu) { cpu.mem.Write(cpu.fetchWord(), cpu.reg.A) })
	define(0x3a, "LDA", nil, 2, func(cpu *Cpu) { cpu.reg.A = cpu.mem.Read(cpu.fetchWord()) })
	define(0x22, "SHLD", nil, 2, func(cpu *Cpu) {
		addr := cpu.fetchWord()
		cpu.mem.Write(addr, cpu.reg.L)
		cpu.mem.Write(addr+1, cpu.reg.H)
	})
	define(0x2a, "LHLD", nil, 2, func(cpu *Cpu) {
		addr := cpu.fetchWord()
		cpu.reg.L = cpu.mem.Read(addr)
		cpu.reg.H = cpu.mem.Read(addr + 1)
	})
	define(0xeb, "XCHG", nil, 0, func(cpu *Cpu) {
		hl := cpu.reg.Pair(PAIR_HL)
		cpu.reg.SetPair(PAIR_HL, cpu.reg.Pair(PAIR_DE))
		cpu.reg.SetPair(PAIR_DE, hl)
	})
	define(0xe3, "XTHL", nil, 0, func(cpu *Cpu) {
		top := cpu.Peek()
		hl := cpu.reg.Pair(PAIR_HL)
		cpu.mem.Write(cpu.reg.SP, uint8(hl))
		cpu.mem.Write(cpu.reg.SP+1, uint8(hl>>8))
		cpu.reg.SetPair(PAIR_HL, top)
	})
	define(0xf9, "SPHL", nil, 0, func(cpu *Cpu) { cpu.reg.SP = cpu.reg.Pair(PAIR_HL) })

	// Accumulator and carry.
	define(0x07, "RLC", nil, 0, func(cpu *Cpu) { cpu.rlc() })
	define(0x0f, "RRC", nil, 0, func(cpu *Cpu) { cpu.rrc() })
	define(0x17, "RAL", nil, 0, func(cpu *Cpu) { cpu.ral() })
	define(0x1f, "RAR", nil, 0, func(cpu *Cpu) { cpu.rar() })
	define(0x2f, "CMA", nil, 0, func(cpu *Cpu) { cpu.reg.A = ^cpu.reg.A })
	define(0x37, "STC", nil, 0, func(cpu *Cpu) { cpu.flags.CY = true })
	define(0x3f, "CMC", nil, 0, func(cpu *Cpu) { cpu.flags.CY = !cpu.flags.CY })

	// Branches.
	define(0xc3, "JMP", nil, 2, func(cpu *Cpu) { cpu.reg.PC = cpu.fetchWord() })
	define(0xcd, "CALL", nil, 2, func(cpu *Cpu) { cpu.call(cpu.fetchWord()) })
	define(0xc9, "RET", nil, 0, func(cpu *Cpu) { cpu.reg.PC = cpu.Pop() })
	define(0xe9, "PCHL", nil, 0, func(cpu *Cpu) { cpu.reg.PC = cpu.reg.Pair(PAIR_HL) })

	for n := range 8 {
		cc := Condition(n)
		code := uint8(cc) << 3
		define(0xc2|code, "J"+cc.String(), nil, 2, func(cpu *Cpu) {
			// The address is fetched even when the branch is not taken.
			addr := cpu.fetchWord()
			if cc.Test(cpu.flags) {
				cpu.reg.PC = addr
			}
		})
		define(0xc4|code, "C"+cc.String(), nil, 2, func(cpu *Cpu) {
			addr := cpu.fetchWord()
			if cc.Test(cpu.flags) {
				cpu.call(addr)
			}
		})
		define(0xc0|code, "R"+cc.String(), nil, 0, func(cpu *Cpu) {
			if cc.Test(cpu.flags) {
				cpu.reg.PC = cpu.Pop()
			}
		})
		define(0xc7|code, "RST", []string{fmt.Sprintf("%d", n)}, 0, func(cpu *Cpu) {
			cpu.call(uint16(n) * 8)
		})
	}

	// I/O and control.
	define(0xd3, "OUT", nil, 1, func(cpu *Cpu) { cpu.ports.Out(cpu.fetch(), cpu.reg.A) })
	define(0xdb, "IN", nil, 1, func(cpu *Cpu) { cpu.reg.A = cpu.ports.In(cpu.fetch()) })
	define(0xfb, "EI", nil, 0, func(cpu *Cpu) { cpu.interrupts = true })
	define(0xf3, "DI", nil, 0, func(cpu *Cpu) { cpu.interrupts = false })
}
