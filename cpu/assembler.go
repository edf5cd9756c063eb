// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/i8085/memory"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":     "0",
	"BANK_PORT":  fmt.Sprintf("%#x", BANK_PORT),
	"STACK_TOP":  fmt.Sprintf("%#x", STACK_TOP),
	"BANK_BASE":  fmt.Sprintf("%#x", memory.BANK_BASE),
	"BANK_COUNT": fmt.Sprintf("%v", memory.BANK_COUNT),
}

// Assembler is a single pass macro assembler for the 8085.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine  map[string]string   // Predefines
	address    int                 // Location counter.
	expansions int                 // Macro expansions, for @ local labels.
	Label      map[string]int      // Map of labels to addresses.
	Equate     map[string]string   // Map of equates.
	Macro      map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var (
	reHexSuffix = regexp.MustCompile(`^-?[0-9][0-9a-fA-F]*[hH]$`)
	reLabel     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	reCharacter = regexp.MustCompile(`'\\?[^']'`)
	reString    = regexp.MustCompile(`"(\\.|[^"\\])*"`)
	reParen     = regexp.MustCompile(`\$\([^\$]*\)`)
)

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}

	var v64 int64
	if reHexSuffix.MatchString(word) {
		v64, err = strconv.ParseInt(word[:len(word)-1], 16, 32)
	} else {
		v64, err = strconv.ParseInt(word, 0, 32)
	}
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)

	return
}

// valueRange returns the value of a word that must fit in a number of bytes.
// Negative values down to the signed minimum are accepted.
func (asm *Assembler) valueRange(word string, size int) (value int, err error) {
	value, err = asm.valueOf(word)
	if err != nil {
		return
	}

	limit := 1 << (8 * size)
	if value >= limit || value < -(limit>>1) {
		err = ErrOperandRange
		return
	}

	value &= limit - 1

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	for key, address := range asm.Label {
		pred[key] = starlark.MakeInt(address)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 > 0xffffffff || st_int64 < -0x80000000 {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

// stripComment removes a trailing ';' comment, ignoring quoted text.
func stripComment(text string) string {
	var quote rune
	escaped := false
	for n, c := range text {
		switch {
		case escaped:
			escaped = false
		case quote != 0 && c == '\\':
			escaped = true
		case quote != 0 && c == quote:
			quote = 0
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
		case quote == 0 && c == ';':
			return text[:n]
		}
	}
	return text
}

// splitWords splits a line into words, on white space and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(c rune) bool {
		return c == ' ' || c == '\t' || c == ','
	})
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do "string" evaluations, into comma separated bytes.
	line = reString.ReplaceAllStringFunc(line, func(word string) string {
		str, _err := strconv.Unquote(word)
		if _err != nil {
			err = ErrParseCharacter(word)
			return word
		}
		values := make([]string, len(str))
		for n := range len(str) {
			values[n] = fmt.Sprintf("%v", str[n])
		}
		return "," + strings.Join(values, ",") + ","
	})
	if err != nil {
		return
	}

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\000"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// NAME EQU VALUE => .equ NAME VALUE
	if len(words) == 3 && strings.EqualFold(words[1], "EQU") {
		words = []string{".equ", words[0], words[2]}
	}

	if strings.HasPrefix(words[0], ".") {
		words[0] = strings.ToLower(words[0])
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		value := words[2]
		equate, ok := asm.Equate[value]
		if ok {
			value = equate
		}
		asm.Equate[words[1]] = value
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !reLabel.MatchString(label) {
			err = ErrLabelInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.address
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansions++
		local := fmt.Sprintf("%v_%v_", name, asm.expansions)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}
		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.address = 0
	asm.expansions = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))
		words := splitWords(line)
		if len(words) > 0 && strings.HasPrefix(words[0], ".") {
			words[0] = strings.ToLower(words[0])
		}

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		address, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		if len(op.Bytes) < 2 {
			log.Fatalf("Unable to link label '%s' to line %d: %v", label, op.LineNo, op.Words)
		}
		linked := op.Bytes[len(op.Bytes)-2:]
		linked[0] = uint8(address)
		linked[1] = uint8(address >> 8)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// emit appends an opcode at the location counter.
func (asm *Assembler) emit(lineno int, words []string, bytes []uint8, label string) (err error) {
	if asm.address+len(bytes) > memory.MEMORY_SIZE {
		err = ErrAddressOverflow
		return
	}

	opcode := Opcode{
		LineNo:    lineno,
		Address:   uint16(asm.address),
		Words:     words,
		Bytes:     bytes,
		LinkLabel: label,
	}
	asm.Opcode = append(asm.Opcode, opcode)
	asm.address += len(bytes)

	return
}

// wordOrLabel returns the bytes of a 16-bit value, or a label to link.
func (asm *Assembler) wordOrLabel(word string) (bytes []uint8, label string, err error) {
	value, err := asm.valueRange(word, 2)
	if err != nil {
		if !reLabel.MatchString(word) {
			return
		}
		err = nil
		label = word
	}

	bytes = []uint8{uint8(value), uint8(value >> 8)}

	return
}

// parseDirective evaluates an assembler directive.
func (asm *Assembler) parseDirective(words []string, lineno int) (err error) {
	args := words[1:]

	switch strings.ToLower(words[0]) {
	case ".org":
		if len(args) != 1 {
			err = ErrOrgSyntax
			return
		}
		var value int
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		if value < 0 || value >= memory.MEMORY_SIZE {
			err = ErrOperandRange
			return
		}
		asm.address = value
	case ".db":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		bytes := make([]uint8, len(args))
		for n, arg := range args {
			var value int
			value, err = asm.valueRange(arg, 1)
			if err != nil {
				return
			}
			bytes[n] = uint8(value)
		}
		err = asm.emit(lineno, words, bytes, "")
	case ".dw":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		// One opcode per word, so each may link a label.
		for _, arg := range args {
			var bytes []uint8
			var label string
			bytes, label, err = asm.wordOrLabel(arg)
			if err != nil {
				return
			}
			err = asm.emit(lineno, words, bytes, label)
			if err != nil {
				return
			}
		}
	case ".ds":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		var value int
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		if value < 0 || asm.address+value > memory.MEMORY_SIZE {
			err = ErrAddressOverflow
			return
		}
		asm.address += value
	default:
		err = ErrDirectiveInvalid
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	if strings.HasPrefix(words[0], ".") {
		return asm.parseDirective(words, lineno)
	}

	mnemonic := strings.ToUpper(words[0])
	if !mnemonics[mnemonic] {
		err = ErrOpcodeInvalid
		return
	}

	operands := slices.Clone(words[1:])
	fixed := make([]string, len(operands))
	for n, operand := range operands {
		fixed[n] = strings.ToUpper(operand)
	}

	// RST vectors may be written as any number.
	if mnemonic == "RST" && len(fixed) == 1 {
		var vector int
		vector, err = asm.valueOf(fixed[0])
		if err != nil {
			return
		}
		if vector < 0 || vector > 7 {
			err = ErrOperandRange
			return
		}
		fixed[0] = fmt.Sprintf("%d", vector)
	}

	// Longest match of fixed operands, leaving at most one immediate.
	for k := len(fixed); k >= 0; k-- {
		in, ok := Lookup(mnemonic, fixed[:k]...)
		if !ok {
			continue
		}

		imms := len(fixed) - k
		switch {
		case imms == 0 && in.Immediate > 0:
			err = ErrOpcodeValueMissing
			return
		case imms > 1, imms == 1 && in.Immediate == 0:
			err = ErrOpcodeExtraArgs
			return
		}

		bytes := []uint8{in.Opcode}
		var label string
		switch in.Immediate {
		case 1:
			var value int
			value, err = asm.valueRange(operands[k], 1)
			if err != nil {
				return
			}
			bytes = append(bytes, uint8(value))
		case 2:
			var imm []uint8
			imm, label, err = asm.wordOrLabel(operands[k])
			if err != nil {
				return
			}
			bytes = append(bytes, imm...)
		}

		return asm.emit(lineno, words, bytes, label)
	}

	err = ErrRegisterInvalid

	return
}
