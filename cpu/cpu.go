package cpu

import (
	"errors"
	"fmt"
	"log"
)

// State is a major state of the instruction cycle.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_FETCH   = State(0) // Fetch
	STATE_DEFER   = State(1) // Defer
	STATE_EXECUTE = State(2) // Execute
	STATE_BREAK   = State(3) // Break
)

// Memory is the core memory array. Every cell holds a 12-bit word.
type Memory [MEMORY_SIZE]uint16

// Read returns the word at addr.
func (mem *Memory) Read(addr uint16) uint16 {
	return mem[addr&WORD_MASK]
}

// Write stores value, truncated to 12 bits, at addr.
func (mem *Memory) Write(addr uint16, value uint16) {
	mem[addr&WORD_MASK] = value & WORD_MASK
}

// Registers is the processor register set.
type Registers struct {
	Pc uint16 // Program counter.
	Ac uint16 // Accumulator.
	L  uint16 // Link, a single bit.
	Ma uint16 // Memory address latch.
	Md uint16 // Memory data latch.
	Sr uint16 // Front panel switch register.
	Ir OpCode // Class of the current instruction.
}

// Snapshot is the operator visible state of the processor.
type Snapshot struct {
	Registers
	State        State // Next major state.
	Run          bool  // Set while the processor may keep stepping.
	Cycles       int   // Major state cycles since construction.
	Instructions int   // Completed instructions since construction.
}

// String formats the snapshot the way the front panel shows it.
func (snap Snapshot) String() string {
	us := float64(snap.Cycles) * 1.5

	return fmt.Sprintf("PC %04o L %o AC %04o\nMA %04o     MD %04o SR %04o\nIR %v %v %4d instrs %4d cycles (%v us)\n",
		snap.Pc, snap.L, snap.Ac,
		snap.Ma, snap.Md, snap.Sr,
		snap.Ir, snap.State, snap.Instructions, snap.Cycles, us)
}

// Cpu is the simulation context of the processor and its core memory.
// A copy of a Cpu is a complete, independent machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Registers
	Memory Memory // Core memory.

	State        State // Next major state.
	Run          bool  // Run flag, cleared by HLT or the operator.
	Cycles       int   // Major state cycles.
	Instructions int   // Completed instructions.

	ip   uint16 // Address of the current instruction.
	word uint16 // Current instruction word.
}

// NewCpu creates a processor with zeroed registers and memory.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	return
}

// Reset clears the accumulator, link and memory data latch.
// The program counter and memory are preserved.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Ac = 0
	cpu.L = 0
	cpu.Md = 0
}

// Snapshot returns a copy of the processor registers and status.
func (cpu *Cpu) Snapshot() Snapshot {
	return Snapshot{
		Registers:    cpu.Registers,
		State:        cpu.State,
		Run:          cpu.Run,
		Cycles:       cpu.Cycles,
		Instructions: cpu.Instructions,
	}
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() string {
	return cpu.Snapshot().String()
}

// Step performs exactly one major state transition, and returns the
// state the processor will perform next.
func (cpu *Cpu) Step() (state State, err error) {
	prior := cpu.State

	defer func() {
		cpu.Cycles++
		if prior != STATE_FETCH && cpu.State == STATE_FETCH {
			cpu.Instructions++
		}
		state = cpu.State
		if err != nil {
			err = errors.Join(&ErrInstruction{Address: cpu.ip, Word: cpu.word, State: prior}, err)
		}
	}()

	switch cpu.State {
	case STATE_FETCH:
		err = cpu.fetch()
	case STATE_DEFER:
		err = cpu.deferred()
	case STATE_EXECUTE:
		err = cpu.execute()
	case STATE_BREAK:
		err = cpu.brk()
	default:
		err = ErrInvariant
	}

	return
}

// fetch reads the next instruction, and completes OPR and direct JMP.
func (cpu *Cpu) fetch() (err error) {
	cpu.ip = cpu.Pc
	cpu.Md = cpu.Memory.Read(cpu.Pc)
	cpu.word = cpu.Md
	cpu.Pc = (cpu.Pc + 1) & WORD_MASK

	d := Decode(cpu.Md, cpu.Pc)
	cpu.Ir = d.Op
	cpu.Ma = d.Address

	if cpu.Verbose {
		log.Printf("%04o: %04o %v", cpu.ip, cpu.word, Disassemble(cpu.ip, cpu.word))
	}

	switch {
	case cpu.Ir == OP_IOT:
		cpu.State = STATE_FETCH
		err = errors.Join(ErrOpcodeIot, ErrNotImplemented)
	case cpu.Ir == OP_OPR:
		cpu.State = STATE_FETCH
		err = cpu.operate(d.Bits)
	case d.Indirect:
		cpu.State = STATE_DEFER
	case cpu.Ir == OP_JMP:
		cpu.Pc = cpu.Ma
		cpu.State = STATE_FETCH
	default:
		cpu.State = STATE_EXECUTE
	}

	return
}

// deferred follows the indirect pointer at the address latch.
func (cpu *Cpu) deferred() (err error) {
	cpu.Md = cpu.Memory.Read(cpu.Ma)
	if cpu.Ma >= AUTO_INDEX_FIRST && cpu.Ma <= AUTO_INDEX_LAST {
		cpu.Md = (cpu.Md + 1) & WORD_MASK
		cpu.Memory.Write(cpu.Ma, cpu.Md)
	}

	if cpu.Ir == OP_JMP {
		cpu.Pc = cpu.Md
		cpu.State = STATE_FETCH
	} else {
		// Execute operates on the word the pointer addresses.
		cpu.Ma = cpu.Md
		cpu.State = STATE_EXECUTE
	}

	return
}

// execute applies the memory reference instruction to its operand.
func (cpu *Cpu) execute() (err error) {
	cpu.Md = cpu.Memory.Read(cpu.Ma)

	switch cpu.Ir {
	case OP_AND:
		cpu.Ac &= cpu.Md
	case OP_TAD:
		sum := uint32(cpu.Ac) + uint32(cpu.Md)
		if sum > uint32(WORD_MASK) {
			cpu.L ^= 1
		}
		cpu.Ac = uint16(sum) & WORD_MASK
	case OP_ISZ:
		cpu.Md = (cpu.Md + 1) & WORD_MASK
		cpu.Memory.Write(cpu.Ma, cpu.Md)
		if cpu.Md == 0 {
			cpu.Pc = (cpu.Pc + 1) & WORD_MASK
		}
	case OP_DCA:
		cpu.Memory.Write(cpu.Ma, cpu.Ac)
		cpu.Ac = 0
	case OP_JMS:
		cpu.Memory.Write(cpu.Ma, cpu.Pc)
		cpu.Pc = (cpu.Ma + 1) & WORD_MASK
	default:
		// JMP, IOT and OPR complete before Execute.
		err = errors.Join(ErrInvariant, ErrOpcodeState(cpu.Ir))
		return
	}

	cpu.State = STATE_FETCH

	return
}

// brk is the data break state. Nothing requests it yet.
func (cpu *Cpu) brk() (err error) {
	cpu.State = STATE_FETCH

	return
}
