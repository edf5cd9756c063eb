package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Address: 0, Words: []string{"MVI", "A", "0x10"}, Bytes: []uint8{0x3e, 0x10}},
			{LineNo: 2, Address: 2, Words: []string{"JMP", "0x1234"}, Bytes: []uint8{0xc3, 0x34, 0x12}},
			{LineNo: 3, Address: 5, Words: []string{"HLT"}, Bytes: []uint8{0x76}},
		},
	}

	dbg := prog.Debug(0)
	assert.NotNil(dbg.Opcode)
	assert.Equal(1, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(4)
	assert.NotNil(dbg.Opcode)
	assert.Equal(2, dbg.Opcode.LineNo)
	assert.Equal(2, dbg.Index)

	dbg = prog.Debug(5)
	assert.NotNil(dbg.Opcode)
	assert.Equal(3, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(6)
	assert.Nil(dbg.Opcode)
	assert.Equal(0, dbg.Index)
}

func TestProgram_Debug_End(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Address: 0xfffe, Bytes: []uint8{0x3e, 0x10}},
		},
	}

	dbg := prog.Debug(0xffff)
	assert.NotNil(dbg.Opcode)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(0)
	assert.Nil(dbg.Opcode)
}

func TestProgram_Segments(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		".org 0x10",
		"MVI A, 1",
		".org 0x0",
		"JMP 0x10",
		".org 0x20",
		".ds 2",
		".db 7",
		"NOP",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	type segment struct {
		start uint16
		data  []byte
	}
	var segments []segment
	for start, data := range prog.Segments() {
		segments = append(segments, segment{start, data})
	}

	assert.Equal([]segment{
		{0x10, []byte{0x3e, 0x01}},
		{0x00, []byte{0xc3, 0x10, 0x00}},
		{0x22, []byte{0x07, 0x00}},
	}, segments)

	assert.Equal(uint16(0), prog.Entry())

	origin, image := prog.Binary()
	assert.Equal(uint16(0), origin)
	assert.Equal(0x24, len(image))
	assert.Equal([]byte{0xc3, 0x10, 0x00}, image[0:3])
	assert.Equal([]byte{0x3e, 0x01}, image[0x10:0x12])
	assert.Equal([]byte{0x00, 0x00, 0x07, 0x00}, image[0x20:0x24])

	dbg := prog.Debug(0x11)
	if assert.NotNil(dbg.Opcode) {
		assert.Equal(2, dbg.LineNo)
		assert.Equal(1, dbg.Index)
	}
	assert.Nil(prog.Debug(0x05).Opcode)
	assert.Nil(prog.Debug(0x20).Opcode)
}

func TestProgram_Segments_EarlyReturn(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{Address: 0x00, Bytes: []uint8{0x00}},
			{Address: 0x10, Bytes: []uint8{0x00}},
			{Address: 0x20, Bytes: []uint8{0x00}},
		},
	}

	count := 0
	for range prog.Segments() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(2, count)

	count = 0
	for range prog.Bytes() {
		count++
		break
	}
	assert.Equal(1, count)
}

func TestProgram_Empty(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{}

	for range prog.Segments() {
		t.Fatal("unexpected segment")
	}

	origin, image := prog.Binary()
	assert.Equal(uint16(0), origin)
	assert.Nil(image)
	assert.Equal(uint16(0), prog.Entry())
	assert.Nil(prog.Debug(0).Opcode)
}

func TestProgram_Bytes(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(".org 0x8000\nLXI B, 0x1234\n.dw 0xabcd\n"))
	assert.NoError(err)

	memory := map[uint16]uint8{}
	for address, value := range prog.Bytes() {
		memory[address] = value
	}

	assert.Equal(map[uint16]uint8{
		0x8000: 0x01,
		0x8001: 0x34,
		0x8002: 0x12,
		0x8003: 0xcd,
		0x8004: 0xab,
	}, memory)
}
