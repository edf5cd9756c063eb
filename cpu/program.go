package cpu

import (
	"iter"
)

// Opcode is the output of a single line of assembly text.
type Opcode struct {
	LineNo    int      // Source line number.
	Address   uint16   // Load address of the first byte.
	Words     []string // Words of the source line, after substitutions.
	Bytes     []uint8  // Encoded bytes.
	LinkLabel string   // Label whose address is patched into the last two bytes.
}

// Program is an assembled list of opcodes.
type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int
}

// Debug finds the opcode that covers an address.
func (prog *Program) Debug(address uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(address) >= int(op.Address) && int(address) < int(op.Address)+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(address - op.Address),
			}
			break
		}
	}

	return
}

// Bytes iterates over every assembled byte with its address.
func (prog *Program) Bytes() iter.Seq2[uint16, uint8] {
	return func(yield func(address uint16, value uint8) bool) {
		for _, op := range prog.Opcodes {
			for n, value := range op.Bytes {
				if !yield(op.Address+uint16(n), value) {
					return
				}
			}
		}
	}
}

// Segments iterates over runs of contiguous bytes, in source order.
func (prog *Program) Segments() iter.Seq2[uint16, []byte] {
	return func(yield func(start uint16, data []byte) bool) {
		var start uint16
		var data []byte
		for _, op := range prog.Opcodes {
			if len(op.Bytes) == 0 {
				continue
			}
			if len(data) > 0 && int(start)+len(data) == int(op.Address) {
				data = append(data, op.Bytes...)
				continue
			}
			if len(data) > 0 && !yield(start, data) {
				return
			}
			start = op.Address
			data = append([]byte{}, op.Bytes...)
		}
		if len(data) > 0 {
			yield(start, data)
		}
	}
}

// Entry returns the lowest address of the program.
func (prog *Program) Entry() (entry uint16) {
	first := true
	for start := range prog.Segments() {
		if first || start < entry {
			entry = start
			first = false
		}
	}

	return
}

// Binary flattens the program into a single image starting at origin.
// Gaps between segments are zero filled.
func (prog *Program) Binary() (origin uint16, image []byte) {
	origin = prog.Entry()
	for start, data := range prog.Segments() {
		end := int(start-origin) + len(data)
		if end > len(image) {
			image = append(image, make([]byte, end-len(image))...)
		}
		copy(image[start-origin:], data)
	}

	return
}
