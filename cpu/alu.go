package cpu

import (
	"math/bits"
)

// AluOp is an accumulator operation, in instruction encoding order.
type AluOp int

const (
	ALU_OP_ADD = AluOp(0) // ADD
	ALU_OP_ADC = AluOp(1) // ADC
	ALU_OP_SUB = AluOp(2) // SUB
	ALU_OP_SBB = AluOp(3) // SBB
	ALU_OP_ANA = AluOp(4) // ANA
	ALU_OP_XRA = AluOp(5) // XRA
	ALU_OP_ORA = AluOp(6) // ORA
	ALU_OP_CMP = AluOp(7) // CMP
)

// updateFlags sets Z, S and P from a result.
func (cpu *Cpu) updateFlags(result uint8) {
	cpu.flags.Z = result == 0
	cpu.flags.S = (result & 0x80) != 0
	cpu.flags.P = bits.OnesCount8(result)%2 == 0
}

// add returns A + value (+ CY), setting all flags.
func (cpu *Cpu) add(value uint8, withCarry bool) uint8 {
	var cin uint8
	if withCarry && cpu.flags.CY {
		cin = 1
	}

	a := cpu.reg.A
	result := uint16(a) + uint16(value) + uint16(cin)
	cpu.flags.CY = result > 0xff
	cpu.flags.AC = (a&0x0f)+(value&0x0f)+cin > 0x0f
	cpu.updateFlags(uint8(result))

	return uint8(result)
}

// sub returns A - value (- CY), setting all flags. CY is the borrow out of
// bit 7 and AC the borrow out of bit 3.
func (cpu *Cpu) sub(value uint8, withBorrow bool) uint8 {
	var bin int
	if withBorrow && cpu.flags.CY {
		bin = 1
	}

	a := cpu.reg.A
	result := int(a) - int(value) - bin
	cpu.flags.CY = result < 0
	cpu.flags.AC = int(a&0x0f) < int(value&0x0f)+bin
	cpu.updateFlags(uint8(result))

	return uint8(result)
}

// alu performs the accumulator operation with value.
func (cpu *Cpu) alu(op AluOp, value uint8) {
	a := cpu.reg.A
	switch op {
	case ALU_OP_ADD:
		cpu.reg.A = cpu.add(value, false)
	case ALU_OP_ADC:
		cpu.reg.A = cpu.add(value, true)
	case ALU_OP_SUB:
		cpu.reg.A = cpu.sub(value, false)
	case ALU_OP_SBB:
		cpu.reg.A = cpu.sub(value, true)
	case ALU_OP_ANA:
		cpu.reg.A = a & value
		cpu.flags.CY = false
		cpu.flags.AC = ((a | value) & 0x08) != 0
		cpu.updateFlags(cpu.reg.A)
	case ALU_OP_XRA:
		cpu.reg.A = a ^ value
		cpu.flags.CY = false
		cpu.flags.AC = false
		cpu.updateFlags(cpu.reg.A)
	case ALU_OP_ORA:
		cpu.reg.A = a | value
		cpu.flags.CY = false
		cpu.flags.AC = false
		cpu.updateFlags(cpu.reg.A)
	case ALU_OP_CMP:
		// Flags only, A is kept.
		cpu.sub(value, false)
	}
}

// inr returns value + 1. CY is not affected.
func (cpu *Cpu) inr(value uint8) (result uint8) {
	result = value + 1
	cpu.flags.AC = (result & 0x0f) == 0
	cpu.updateFlags(result)
	return
}

// dcr returns value - 1. CY is not affected.
func (cpu *Cpu) dcr(value uint8) (result uint8) {
	result = value - 1
	cpu.flags.AC = (result & 0x0f) == 0x0f
	cpu.updateFlags(result)
	return
}

// dad adds a register pair to HL. Only CY is affected.
func (cpu *Cpu) dad(value uint16) {
	result := uint32(cpu.reg.Pair(PAIR_HL)) + uint32(value)
	cpu.flags.CY = result > 0xffff
	cpu.reg.SetPair(PAIR_HL, uint16(result))
}

// Accumulator rotates. Only CY is affected.

func (cpu *Cpu) rlc() {
	a := cpu.reg.A
	cpu.flags.CY = (a & 0x80) != 0
	cpu.reg.A = bits.RotateLeft8(a, 1)
}

func (cpu *Cpu) rrc() {
	a := cpu.reg.A
	cpu.flags.CY = (a & 0x01) != 0
	cpu.reg.A = bits.RotateLeft8(a, -1)
}

func (cpu *Cpu) ral() {
	a := cpu.reg.A
	var cin uint8
	if cpu.flags.CY {
		cin = 1
	}
	cpu.flags.CY = (a & 0x80) != 0
	cpu.reg.A = (a << 1) | cin
}

func (cpu *Cpu) rar() {
	a := cpu.reg.A
	var cin uint8
	if cpu.flags.CY {
		cin = 0x80
	}
	cpu.flags.CY = (a & 0x01) != 0
	cpu.reg.A = (a >> 1) | cin
}
