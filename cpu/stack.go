package cpu

const (
	STACK_TOP = 0xffff // Stack pointer after reset, inside the default bank window.
)

// Push a word. The high byte is stored at SP-1 and the low byte at SP-2,
// leaving SP at the low byte.
func (cpu *Cpu) Push(value uint16) {
	cpu.reg.SP--
	cpu.mem.Write(cpu.reg.SP, uint8(value>>8))
	cpu.reg.SP--
	cpu.mem.Write(cpu.reg.SP, uint8(value))
}

// Pop a word, low byte first.
func (cpu *Cpu) Pop() (value uint16) {
	value = cpu.Peek()
	cpu.reg.SP += 2
	return
}

// Peek returns the word at the top of the stack, without moving SP.
func (cpu *Cpu) Peek() uint16 {
	lo := cpu.mem.Read(cpu.reg.SP)
	hi := cpu.mem.Read(cpu.reg.SP + 1)
	return uint16(hi)<<8 | uint16(lo)
}
