package cpu

import (
	"errors"
	"log"
)

// operate evaluates the OPR micro-operations in the control field.
func (cpu *Cpu) operate(bits uint16) (err error) {
	switch {
	case bits&GROUP_BIT == 0:
		cpu.group1(bits)
	case bits&GROUP3_BIT == 0:
		cpu.group2(bits)
	default:
		err = errors.Join(ErrOpcodeGroup3, ErrNotImplemented)
	}

	return
}

// ral rotates link and accumulator left one place.
func (cpu *Cpu) ral() {
	prev_l := cpu.L
	cpu.L = (cpu.Ac >> 11) & 1
	cpu.Ac = ((cpu.Ac << 1) | prev_l) & WORD_MASK
}

// rar rotates link and accumulator right one place.
func (cpu *Cpu) rar() {
	prev_l := cpu.L
	cpu.L = cpu.Ac & 1
	cpu.Ac = (cpu.Ac >> 1) | (prev_l << 11)
}

// group1 performs the group 1 micro-operations in sequence order.
// The two place rotate masks include the one place masks, so a two
// place rotate is two one place rotates.
func (cpu *Cpu) group1(bits uint16) {
	if bits == GRP1_NOP {
		return
	}

	// Sequence 1
	if bits&GRP1_CLA == GRP1_CLA {
		cpu.Ac = 0
	}
	if bits&GRP1_CLL == GRP1_CLL {
		cpu.L = 0
	}

	// Sequence 2
	if bits&GRP1_CMA == GRP1_CMA {
		cpu.Ac = ^cpu.Ac & WORD_MASK
	}
	if bits&GRP1_CML == GRP1_CML {
		cpu.L ^= 1
	}

	// Sequence 3. No carry into the link.
	if bits&GRP1_IAC == GRP1_IAC {
		cpu.Ac = (cpu.Ac + 1) & WORD_MASK
	}

	// Sequence 4. Right before left when both are coded.
	if bits&GRP1_RAR == GRP1_RAR {
		cpu.rar()
	}
	if bits&GRP1_RTR == GRP1_RTR {
		cpu.rar()
	}
	if bits&GRP1_RAL == GRP1_RAL {
		cpu.ral()
	}
	if bits&GRP1_RTL == GRP1_RTL {
		cpu.ral()
	}
}

// group2 performs the skip tests, then CLA, then OSR and HLT.
func (cpu *Cpu) group2(bits uint16) {
	skip := false

	// Sequence 1
	if bits&GRP2_SKP_BIT == GRP2_SKP_BIT {
		tested := false

		if bits&GRP2_SPA == GRP2_SPA {
			tested = true
			skip = skip || (cpu.Ac&SIGN_MASK) == 0
		}
		if bits&GRP2_SNA == GRP2_SNA {
			tested = true
			skip = skip || cpu.Ac != 0
		}
		if bits&GRP2_SZL == GRP2_SZL {
			tested = true
			skip = skip || cpu.L == 0
		}
		if bits&GRP2_SKP == GRP2_SKP && !tested {
			skip = true
		}
	} else {
		if bits&GRP2_SMA == GRP2_SMA {
			skip = skip || (cpu.Ac&SIGN_MASK) != 0
		}
		if bits&GRP2_SZA == GRP2_SZA {
			skip = skip || cpu.Ac == 0
		}
		if bits&GRP2_SNL == GRP2_SNL {
			skip = skip || cpu.L != 0
		}
	}

	if skip {
		cpu.Pc = (cpu.Pc + 1) & WORD_MASK
	}

	// Sequence 2
	if bits&GRP2_CLA == GRP2_CLA {
		cpu.Ac = 0
	}

	// Sequence 3. Halt last, after the rest of the instruction.
	if bits&GRP2_OSR == GRP2_OSR {
		cpu.Ac |= cpu.Sr & WORD_MASK
	}
	if bits&GRP2_HLT == GRP2_HLT {
		cpu.Run = false
		if cpu.Verbose {
			log.Printf("cpu: halt at %04o", cpu.ip)
		}
	}
}
