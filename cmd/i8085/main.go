// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ezrec/i8085/cpu"
	"github.com/ezrec/i8085/emulator"
	"github.com/ezrec/i8085/io"
	"github.com/ezrec/i8085/memory"
	"github.com/ezrec/i8085/translate"
)

func main() {
	var compile string
	var banked bool
	var banks int
	var limit int
	var step bool
	var verbose bool
	var tape int
	var lang string
	var image string
	defines := defineFlags{}
	breaks := breakFlags{}

	flag.StringVar(&compile, "c", "", ".asm file to assemble and run")
	flag.BoolVar(&banked, "b", false, "Enable bank switching")
	flag.IntVar(&banks, "n", memory.BANK_COUNT, "Number of memory banks")
	flag.IntVar(&limit, "l", 0, "Step limit, 0 for no limit")
	flag.Var(defines, "D", "Predefine an equate, as NAME=VALUE (repeatable)")
	flag.Var(breaks, "break", "Breakpoint address (repeatable)")
	flag.BoolVar(&step, "s", false, "Single step from the terminal")
	flag.IntVar(&tape, "tape", -1, "Attach stdin and stdout as a tape at this port")
	flag.StringVar(&image, "o", "", "Write the assembled image to a file")
	flag.StringVar(&lang, "lang", "", "Language of assembly and runtime error details, as a BCP 47 tag")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if len(lang) != 0 {
		translate.Use(lang)
	}

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(compile) == 0 {
		log.Fatalf("%v: -c file.asm is required", os.Args[0])
	}

	emu := emulator.NewEmulator(banks)
	emu.Verbose = verbose
	emu.Banked = banked
	emu.Predefine = defines
	emu.Breakpoints = breaks

	if tape >= 0 {
		if tape > 0xff || tape == int(cpu.BANK_PORT) {
			log.Fatalf("%v: -tape %v: %v", os.Args[0], tape, io.ErrPortInvalid)
		}
		emu.Cpu.SetPort(uint8(tape), &io.Tape{Input: os.Stdin, Output: os.Stdout})
		emu.Predefine["TAPE_PORT"] = fmt.Sprintf("%#x", tape)
	}

	inf, err := os.Open(compile)
	if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}
	defer inf.Close()

	err = emu.Assemble(inf)
	if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}

	if len(image) != 0 {
		origin, data := emu.Program.Binary()
		err = os.WriteFile(image, data, 0o644)
		if err != nil {
			log.Fatalf("%v: %v", image, err)
		}
		if verbose {
			log.Printf("%v: 0x%x bytes at 0x%04x", image, len(data), origin)
		}
	}

	err = emu.Reset()
	if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}

	if step {
		err = stepTerminal(emu, limit)
	} else {
		_, err = emu.Run(limit)
	}

	fmt.Println(emu.Cpu.RegisterState())
	fmt.Println(emu.Cpu.FlagsState())

	if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}
}
