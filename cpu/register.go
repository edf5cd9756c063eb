package cpu

// Register is an 8-bit register operand, in instruction encoding order.
type Register int

const (
	REG_B = Register(0) // B
	REG_C = Register(1) // C
	REG_D = Register(2) // D
	REG_E = Register(3) // E
	REG_H = Register(4) // H
	REG_L = Register(5) // L
	REG_M = Register(6) // M, the memory byte addressed by HL
	REG_A = Register(7) // A
)

var registerName = [8]string{"B", "C", "D", "E", "H", "L", "M", "A"}

func (r Register) String() string {
	return registerName[r&7]
}

// Pair is a 16-bit register pair operand, in instruction encoding order.
type Pair int

const (
	PAIR_BC  = Pair(0) // B
	PAIR_DE  = Pair(1) // D
	PAIR_HL  = Pair(2) // H
	PAIR_SP  = Pair(3) // SP
	PAIR_PSW = Pair(4) // PSW, replaces SP for PUSH and POP
)

var pairName = [5]string{"B", "D", "H", "SP", "PSW"}

func (p Pair) String() string {
	return pairName[p]
}

// Registers is the register file. Pairs are views over the 8-bit registers.
type Registers struct {
	A, B, C, D, E, H, L uint8

	SP uint16 // Stack pointer.
	PC uint16 // Program counter.
}

// Get returns an 8-bit register. REG_M is not a register and reads as 0.
func (reg *Registers) Get(r Register) (value uint8) {
	switch r {
	case REG_A:
		value = reg.A
	case REG_B:
		value = reg.B
	case REG_C:
		value = reg.C
	case REG_D:
		value = reg.D
	case REG_E:
		value = reg.E
	case REG_H:
		value = reg.H
	case REG_L:
		value = reg.L
	}
	return
}

// Set an 8-bit register. Setting REG_M does nothing.
func (reg *Registers) Set(r Register, value uint8) {
	switch r {
	case REG_A:
		reg.A = value
	case REG_B:
		reg.B = value
	case REG_C:
		reg.C = value
	case REG_D:
		reg.D = value
	case REG_E:
		reg.E = value
	case REG_H:
		reg.H = value
	case REG_L:
		reg.L = value
	}
}

// Pair returns a register pair, high register first. PAIR_PSW reads as 0
// as the flags are not part of the register file.
func (reg Registers) Pair(p Pair) (value uint16) {
	switch p {
	case PAIR_BC:
		value = uint16(reg.B)<<8 | uint16(reg.C)
	case PAIR_DE:
		value = uint16(reg.D)<<8 | uint16(reg.E)
	case PAIR_HL:
		value = uint16(reg.H)<<8 | uint16(reg.L)
	case PAIR_SP:
		value = reg.SP
	}
	return
}

// SetPair sets a register pair, high byte into the first register.
func (reg *Registers) SetPair(p Pair, value uint16) {
	hi := uint8(value >> 8)
	lo := uint8(value)
	switch p {
	case PAIR_BC:
		reg.B, reg.C = hi, lo
	case PAIR_DE:
		reg.D, reg.E = hi, lo
	case PAIR_HL:
		reg.H, reg.L = hi, lo
	case PAIR_SP:
		reg.SP = value
	}
}

// PSW flag bit positions.
const (
	FLAG_CY = uint8(1 << 0)
	FLAG_P  = uint8(1 << 2)
	FLAG_AC = uint8(1 << 4)
	FLAG_Z  = uint8(1 << 6)
	FLAG_S  = uint8(1 << 7)

	flagAlwaysSet = uint8(1 << 1)
)

// Flags are the condition flags.
type Flags struct {
	S  bool // Sign
	Z  bool // Zero
	AC bool // Auxiliary carry
	P  bool // Parity (even)
	CY bool // Carry
}

// Byte packs the flags into the PSW low byte: S Z 0 AC 0 P 1 CY.
func (fl Flags) Byte() (value uint8) {
	value = flagAlwaysSet
	for _, bit := range []struct {
		set  bool
		mask uint8
	}{
		{fl.S, FLAG_S},
		{fl.Z, FLAG_Z},
		{fl.AC, FLAG_AC},
		{fl.P, FLAG_P},
		{fl.CY, FLAG_CY},
	} {
		if bit.set {
			value |= bit.mask
		}
	}
	return
}

// SetByte unpacks the flags from a PSW low byte.
func (fl *Flags) SetByte(value uint8) {
	fl.S = value&FLAG_S != 0
	fl.Z = value&FLAG_Z != 0
	fl.AC = value&FLAG_AC != 0
	fl.P = value&FLAG_P != 0
	fl.CY = value&FLAG_CY != 0
}
