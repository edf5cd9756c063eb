package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pkg/term"

	"github.com/ezrec/i8085/emulator"
)

// stepTerminal single steps the emulator from key presses on the
// controlling terminal.
func stepTerminal(emu *emulator.Emulator, limit int) (err error) {
	tty, err := term.Open("/dev/tty", term.CBreakMode)
	if err != nil {
		return
	}
	defer func() {
		_ = tty.Restore()
		_ = tty.Close()
	}()

	fmt.Println(f("space: step, c: continue, r: registers, q: quit"))

	return stepper(emu, tty, os.Stdout, limit)
}

// stepper runs one command per key read from keys, until the emulator halts,
// the keys run out, or 'q' is read.
func stepper(emu *emulator.Emulator, keys io.Reader, out io.Writer, limit int) (err error) {
	key := make([]byte, 1)
	for !emu.Cpu.Halted() {
		pc := emu.Cpu.PC()
		text, _ := emu.Cpu.Disassemble(pc)
		fmt.Fprintf(out, "%04X [%4d] %-16v %v\n", pc, emu.LineNo(), text, emu.Cpu.FlagsState())

		_, err = keys.Read(key)
		if errors.Is(err, io.EOF) {
			err = nil
			return
		}
		if err != nil {
			return
		}

		switch key[0] {
		case ' ', '\n', '\r', 's':
			_, err = emu.Tick()
		case 'c':
			_, err = emu.Run(limit)
			if errors.Is(err, emulator.ErrBreakpoint) {
				err = nil
			}
		case 'r':
			fmt.Fprint(out, emu.Cpu.String())
		case 'q':
			return
		}
		if err != nil {
			return
		}
	}

	return
}
