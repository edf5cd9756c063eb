package cpu

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/i8085/memory"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal(fmt.Sprintf("%#x", BANK_PORT), asm.Equate["BANK_PORT"])
	assert.Equal(fmt.Sprintf("%#x", STACK_TOP), asm.Equate["STACK_TOP"])
	assert.Equal(fmt.Sprintf("%#x", memory.BANK_BASE), asm.Equate["BANK_BASE"])
	assert.Equal(fmt.Sprintf("%v", memory.BANK_COUNT), asm.Equate["BANK_COUNT"])
}

func opEqual(t *testing.T, expected, opcodes []Opcode) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(opcodes))
	if len(expected) == len(opcodes) {
		for n := range len(expected) {
			assert.Equal(expected[n], opcodes[n])
		}
	}
}

func TestAssemblerBasic(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"; add two numbers",
		"        MVI A, 5      ; A = 5",
		"        mvi b,3",
		"        ADD B",
		"        HLT",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	expected := []Opcode{
		{2, 0, []string{"MVI", "A", "5"}, []uint8{0x3e, 0x05}, ""},
		{3, 2, []string{"mvi", "b", "3"}, []uint8{0x06, 0x03}, ""},
		{4, 4, []string{"ADD", "B"}, []uint8{0x80}, ""},
		{5, 5, []string{"HLT"}, []uint8{0x76}, ""},
	}

	opEqual(t, expected, prog.Opcodes)

	origin, image := prog.Binary()
	assert.Equal(uint16(0), origin)
	assert.Equal([]byte{0x3e, 0x05, 0x06, 0x03, 0x80, 0x76}, image)
}

func TestAssemblerRegisters(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"mov a,m",
		"MOV M, B",
		"lxi sp, 0x2000",
		"push psw",
		"pop h",
		"stax d",
		"dad sp",
		"rst 7",
		"RST $(3 + 2)",
		"out BANK_PORT",
		"in 0ffh",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	var codes []uint8
	for _, op := range prog.Opcodes {
		codes = append(codes, op.Bytes...)
	}

	assert.Equal([]uint8{
		0x7e,
		0x70,
		0x31, 0x00, 0x20,
		0xf5,
		0xe1,
		0x12,
		0x39,
		0xff,
		0xef,
		0xd3, 0xff,
		0xdb, 0xff,
	}, codes)
}

func TestAssemblerLabel(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"        .org 0x100",
		"START:  LXI H, DATA",
		"        MOV A, M",
		"        JNZ START",
		"        JMP DONE",
		"DATA:   .db 1, 2, 'A', \"hi\"",
		"        .dw START, 1234H",
		"DONE:   HLT",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	expected := []Opcode{
		{2, 0x100, []string{"LXI", "H", "DATA"}, []uint8{0x21, 0x0a, 0x01}, "DATA"},
		{3, 0x103, []string{"MOV", "A", "M"}, []uint8{0x7e}, ""},
		{4, 0x104, []string{"JNZ", "START"}, []uint8{0xc2, 0x00, 0x01}, "START"},
		{5, 0x107, []string{"JMP", "DONE"}, []uint8{0xc3, 0x13, 0x01}, "DONE"},
		{6, 0x10a, []string{".db", "1", "2", "65", "104", "105"}, []uint8{1, 2, 'A', 'h', 'i'}, ""},
		{7, 0x10f, []string{".dw", "START", "1234H"}, []uint8{0x00, 0x01}, "START"},
		{7, 0x111, []string{".dw", "START", "1234H"}, []uint8{0x34, 0x12}, ""},
		{8, 0x113, []string{"HLT"}, []uint8{0x76}, ""},
	}

	opEqual(t, expected, prog.Opcodes)

	assert.Equal(map[string]int{"START": 0x100, "DATA": 0x10a, "DONE": 0x113}, asm.Label)
	assert.Equal(uint16(0x100), prog.Entry())

	origin, image := prog.Binary()
	assert.Equal(uint16(0x100), origin)
	assert.Equal(0x14, len(image))
	assert.Equal(uint8(0x76), image[0x13])
}

func TestAssemblerEqu(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("SEED", "0x40")

	program := []string{
		".equ COUNT 3",
		"LIMIT EQU $(COUNT * 2)",
		"MVI C, COUNT",
		"MVI D, LIMIT",
		"MVI E, $(LINENO + 1)",
		"LXI H, $(BANK_BASE + 0x10)",
		"MVI A, -1",
		"MVI B, 0FFH",
		"MVI L, SEED",
		"MVI H, '\\n'",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(errors.Unwrap(err))
	}

	expected := []Opcode{
		{3, 0, []string{"MVI", "C", "3"}, []uint8{0x0e, 3}, ""},
		{4, 2, []string{"MVI", "D", "6"}, []uint8{0x16, 6}, ""},
		{5, 4, []string{"MVI", "E", "6"}, []uint8{0x1e, 6}, ""},
		{6, 6, []string{"LXI", "H", "32784"}, []uint8{0x21, 0x10, 0x80}, ""},
		{7, 9, []string{"MVI", "A", "-1"}, []uint8{0x3e, 0xff}, ""},
		{8, 11, []string{"MVI", "B", "0FFH"}, []uint8{0x06, 0xff}, ""},
		{9, 13, []string{"MVI", "L", "0x40"}, []uint8{0x2e, 0x40}, ""},
		{10, 15, []string{"MVI", "H", "10"}, []uint8{0x26, 0x0a}, ""},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerDirectiveCase(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		".EQU X 5",
		".Macro LOADX",
		"MVI A, X",
		".ENDM",
		".ORG 0x10",
		"LOADX",
		".DB 1, 2",
		".Dw 0x1234",
		".DS 1",
		"HLT",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	origin, image := prog.Binary()
	assert.Equal(uint16(0x10), origin)
	assert.Equal([]byte{0x3e, 0x05, 0x01, 0x02, 0x34, 0x12, 0x00, 0x76}, image)
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		".macro LOADADD reg, first, second",
		"MVI reg, first",
		"ADI second",
		".endm",
		".macro WAIT count",
		"MVI C, count",
		"@loop: DCR C",
		"JNZ @loop",
		".endm",
		"LOADADD A, 1, 2",
		"WAIT 5",
		"WAIT 6",
		"HLT",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	expected := []Opcode{
		{2, 0, []string{"MVI", "A", "1"}, []uint8{0x3e, 1}, ""},
		{3, 2, []string{"ADI", "2"}, []uint8{0xc6, 2}, ""},
		{6, 4, []string{"MVI", "C", "5"}, []uint8{0x0e, 5}, ""},
		{7, 6, []string{"DCR", "C"}, []uint8{0x0d}, ""},
		{8, 7, []string{"JNZ", "WAIT_2_loop"}, []uint8{0xc2, 0x06, 0x00}, "WAIT_2_loop"},
		{6, 10, []string{"MVI", "C", "6"}, []uint8{0x0e, 6}, ""},
		{7, 12, []string{"DCR", "C"}, []uint8{0x0d}, ""},
		{8, 13, []string{"JNZ", "WAIT_3_loop"}, []uint8{0xc2, 0x0c, 0x00}, "WAIT_3_loop"},
		{13, 16, []string{"HLT"}, []uint8{0x76}, ""},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerComment(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(`.db ';', "a;b" ; comment`))
	assert.NoError(err)
	if assert.Equal(1, len(prog.Opcodes)) {
		assert.Equal([]uint8{';', 'a', ';', 'b'}, prog.Opcodes[0].Bytes)
	}
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	// Various syntax errors
	table := [](struct {
		prog string
		line int
		err  error
	}){
		{"DUP:\nDUP:\n", 2, ErrLabelDuplicate},
		{"1LABEL: NOP", 1, ErrLabelInvalid},
		{"MVI A", 1, ErrOpcodeValueMissing},
		{"JMP", 1, ErrOpcodeValueMissing},
		{"MVI A, 256", 1, ErrOperandRange},
		{"MVI A, -129", 1, ErrOperandRange},
		{"LXI H, 0x10000", 1, ErrOperandRange},
		{"MOV A", 1, ErrRegisterInvalid},
		{"MOV Q, A", 1, ErrRegisterInvalid},
		{"ADD B, C", 1, ErrOpcodeExtraArgs},
		{"NOP 1", 1, ErrOpcodeExtraArgs},
		{"ADI 1, 2", 1, ErrOpcodeExtraArgs},
		{"FOO", 1, ErrOpcodeInvalid},
		{"RST 8", 1, ErrOperandRange},
		{".equ", 1, ErrEquateSyntax},
		{".equ A", 1, ErrEquateSyntax},
		{".equ A 1\n.equ A 2\n", 2, ErrEquateDuplicate},
		{".macro A B C\n.endm\nA 1\n", 3, ErrMacroSyntax},
		{".macro\n", 1, ErrMacroSyntax},
		{".macro A B\n.macro C\n.endm\n.endm", 2, ErrMacroNesting},
		{".macro A B\n.endm\n.macro A\n.endm\n", 3, ErrMacroDuplicate},
		{".macro A B\n.endm\n.endm\n", 3, ErrMacroLonelyEndm},
		{".macro A\nNOP\n", 2, ErrMacroLonely},
		{".macro A B\nMVI B, 1\n.endm\nNOP\nA Q\n", 5, ErrRegisterInvalid},
		{".org", 1, ErrOrgSyntax},
		{".org 0x10000", 1, ErrOperandRange},
		{".org 0xffff\nLXI H, 0", 2, ErrAddressOverflow},
		{".ds 0x10001", 1, ErrAddressOverflow},
		{".bogus", 1, ErrDirectiveInvalid},
		{".db", 1, ErrOpcodeValueMissing},
		{".dw", 1, ErrOpcodeValueMissing},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		assert.Error(err, entry.prog)
		assert.ErrorIs(err, entry.err, entry.prog)

		var es *ErrSyntax
		if assert.True(errors.As(err, &es), entry.prog) {
			assert.Equal(entry.line, es.LineNo, entry.prog)
		}
	}

	// Errors without a sentinel.
	table2 := [](struct {
		prog string
		line int
	}){
		{"MVI A, nothing", 1},
		{"JMP 1+", 1},
		{"MVI A, $(\"aaa\")", 1},
		{"MVI A, $(more(\"aaa\"))", 1},
		{"MVI A, $(0x10000000000000000)", 1},
		{"NOP\nJMP NOWHERE\n", 2},
	}

	for _, entry := range table2 {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		assert.Error(err, entry.prog)

		var es *ErrSyntax
		if assert.True(errors.As(err, &es), entry.prog) {
			assert.Equal(entry.line, es.LineNo, entry.prog)
		}
	}

	_, err := asm.Parse(strings.NewReader("JMP NOWHERE"))
	var missing ErrLabelMissing
	assert.True(errors.As(err, &missing))
	assert.Equal(ErrLabelMissing("NOWHERE"), missing)
}
