// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/ezrec/pdp8/cpu"
	"github.com/ezrec/pdp8/emulator"
	"github.com/ezrec/pdp8/translate"
)

func octal(name string, text string) (value uint16) {
	v64, err := strconv.ParseUint(text, 8, 12)
	if err != nil {
		log.Fatalf("-%v: %v", name, err)
	}

	return uint16(v64)
}

func main() {
	var compile string
	var punch string
	var sr string
	var start string
	var sstep bool
	var sinstr bool
	var run bool
	var lang string
	var verbose bool

	flag.StringVar(&compile, "c", "", ".pal file to assemble")
	flag.StringVar(&punch, "p", "", ".bin file to punch the assembled program to")
	flag.StringVar(&sr, "sr", "", "Switch register (octal)")
	flag.StringVar(&start, "start", "", "Start address (octal)")
	flag.BoolVar(&sstep, "sstep", false, "Single step switch")
	flag.BoolVar(&sinstr, "sinstr", false, "Single instruction switch")
	flag.BoolVar(&run, "run", false, "Start and run until halt, without the front panel")
	flag.StringVar(&lang, "lang", "", "Message language (BCP 47)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if len(lang) != 0 {
		translate.SetLanguage(lang)
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.SingleStep = sstep
	emu.SingleInstruction = sinstr

	// Load BIN tapes in order.
	for _, name := range flag.Args() {
		err := emu.LoadFile(name)
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}
	}

	// Assemble a program over the tapes.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for equ, value := range emu.Defines() {
			asm.Predefine(equ, value)
		}
		prog, err := asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		emu.LoadProgram(prog)

		if len(punch) != 0 {
			ouf, err := os.Create(punch)
			if err != nil {
				log.Fatalf("%v: %v", punch, err)
			}
			defer ouf.Close()

			emu.Tape.Output = ouf
			err = emu.Tape.Punch(prog)
			if err != nil {
				log.Fatalf("%v: %v", punch, err)
			}
		}
	}

	if len(sr) != 0 {
		emu.SetSwitchRegister(octal("sr", sr))
	}

	if len(start) != 0 {
		emu.Cpu.Pc = octal("start", start)
	}

	if run {
		emu.Start()
		for emu.Cpu.Run {
			err := emu.Run()
			if err != nil {
				log.Fatal(err)
			}
		}
		emu.Dump(os.Stdout)
		return
	}

	err := emu.Panel(os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println()
}
