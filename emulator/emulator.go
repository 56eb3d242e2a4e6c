// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/pdp8/cpu"
	"github.com/ezrec/pdp8/internal"
	"github.com/ezrec/pdp8/tape"
)

const (
	CYCLE_TIME_NS = 1500 // Duration of a major state.
	PAGE_SIZE     = 0200 // Words per memory page.
)

var _emulator_defines = map[string]string{
	"MEMORY_SIZE":      fmt.Sprintf("%#o", cpu.MEMORY_SIZE),
	"PAGE_SIZE":        fmt.Sprintf("%#o", PAGE_SIZE),
	"AUTO_INDEX_FIRST": fmt.Sprintf("%#o", cpu.AUTO_INDEX_FIRST),
	"AUTO_INDEX_LAST":  fmt.Sprintf("%#o", cpu.AUTO_INDEX_LAST),
}

// Emulator state. CPU + paper tape + front panel switches.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Listing of the loaded program, if assembled.

	Tape tape.Tape // Paper tape reader and punch.

	SingleStep        bool // Stop after every major state.
	SingleInstruction bool // Stop after every instruction.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.SymbolsConcat(maps.All(_emulator_defines),
		internal.SymbolsOctal(emu.Tape.Defines()),
	)
}

// Load reads a BIN tape into memory. The program counter is set to the
// last origin on the tape.
func (emu *Emulator) Load(input io.Reader) (err error) {
	emu.Tape.Verbose = emu.Verbose
	emu.Tape.Input = input
	defer func() { emu.Tape.Input = nil }()

	origin, err := emu.Tape.Load(&emu.Cpu.Memory)
	if err != nil {
		return
	}

	emu.Cpu.Pc = origin

	return
}

// LoadFile reads the named BIN tape into memory.
func (emu *Emulator) LoadFile(name string) (err error) {
	emu.Tape.Verbose = emu.Verbose

	origin, err := emu.Tape.LoadFile(name, &emu.Cpu.Memory)
	if err != nil {
		return
	}

	emu.Cpu.Pc = origin

	if emu.Verbose {
		log.Printf("emulator: loaded %v, origin %04o", name, origin)
	}

	return
}

// LoadProgram stores an assembled program into memory, and sets the
// program counter to its start.
func (emu *Emulator) LoadProgram(prog *cpu.Program) {
	emu.Program = prog
	prog.Binary(&emu.Cpu.Memory)
	emu.Cpu.Pc = prog.Start
}

// Reset clears the accumulator, link and memory data latch.
func (emu *Emulator) Reset() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
}

// Start resets the processor and runs from the program counter.
func (emu *Emulator) Start() {
	emu.Reset()
	emu.Cpu.State = cpu.STATE_FETCH
	emu.Cpu.Run = true
}

// Stop clears the run flag. The current step always completes.
func (emu *Emulator) Stop() {
	emu.Cpu.Run = false
}

// SetSwitchRegister sets the front panel switches.
func (emu *Emulator) SetSwitchRegister(word uint16) {
	emu.Cpu.Sr = word & cpu.WORD_MASK
}

// LoadAddress copies the switch register to the program counter.
func (emu *Emulator) LoadAddress() {
	emu.Cpu.Pc = emu.Cpu.Sr
}

// Snapshot returns the operator visible processor state.
func (emu *Emulator) Snapshot() cpu.Snapshot {
	return emu.Cpu.Snapshot()
}

// LineNo returns the source line of the next instruction, or 0.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	return emu.Program.LineNo(emu.Cpu.Pc)
}

// Step performs a single major state. Any error halts the processor.
func (emu *Emulator) Step() (state cpu.State, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	state, err = emu.Cpu.Step()
	if err != nil {
		emu.Cpu.Run = false

		rt := &ErrRuntime{Err: err}
		var ei *cpu.ErrInstruction
		if errors.As(err, &ei) {
			rt.Address = ei.Address
			if emu.Program != nil {
				rt.LineNo = emu.Program.LineNo(ei.Address)
			}
		}
		err = rt
	}

	return
}

// Tick performs a single instruction, up to the next Fetch. done is set
// when the processor has halted.
func (emu *Emulator) Tick() (done bool, err error) {
	for {
		var state cpu.State
		state, err = emu.Step()
		if err != nil {
			return
		}
		if state == cpu.STATE_FETCH {
			break
		}
	}

	done = !emu.Cpu.Run

	return
}

// RunCycles steps until the processor halts, or count major states
// have been performed.
func (emu *Emulator) RunCycles(count int) (err error) {
	for n := 0; n < count && emu.Cpu.Run; n++ {
		_, err = emu.Step()
		if err != nil {
			return
		}
	}

	return
}

// Run steps while the run flag is set. The single step switch stops
// after one major state, and the single instruction switch after one
// instruction; either leaves the processor stopped.
func (emu *Emulator) Run() (err error) {
	for emu.Cpu.Run {
		var state cpu.State
		state, err = emu.Step()
		if err != nil {
			return
		}
		if emu.SingleStep {
			break
		}
		if emu.SingleInstruction && state == cpu.STATE_FETCH {
			break
		}
	}

	if emu.SingleStep || emu.SingleInstruction {
		emu.Cpu.Run = false
	}

	return
}

// Dump writes the register display, and the next instruction when the
// processor is between instructions.
func (emu *Emulator) Dump(out io.Writer) (err error) {
	_, err = fmt.Fprint(out, emu.Snapshot().String())
	if err != nil {
		return
	}

	if emu.Cpu.State == cpu.STATE_FETCH {
		pc := emu.Cpu.Pc
		word := emu.Cpu.Memory.Read(pc)
		_, err = fmt.Fprintf(out, "%04o %04o %v\n", pc, word, cpu.Disassemble(pc, word))
	}

	return
}
